// Package api provides the HTTP server for the SSO-gated dashboard gateway.
//
// # Overview
//
// The Server assembles the gorilla/mux router and the ordered middleware
// pipeline:
//
//	recovery -> security headers -> CORS -> rate limit -> audit log -> metrics -> router
//
// Recovery sits outermost so panics anywhere below it become a generic 500,
// after the audit middleware has already logged the request. Health and
// metrics endpoints bypass the rate limiter via its exempt path list.
//
// Authentication routes (SAML login, callback, logout, metadata) live in
// AuthHandlers. Protected application routes are mounted through
// RouteRegistrar implementations, each wrapped by the session auth guard.
//
// # Usage Example
//
// Wire and serve:
//
//	srv := api.NewServer(api.ServerOptions{
//		Config:        apiCfg,
//		Authenticator: orchestrator,
//		Sessions:      sessions,
//		Limiter:       limiter,
//		Logger:        logger,
//		Metrics:       metrics,
//		Health:        health,
//		Registry:      registry,
//	})
//	srv.Register(dashboardHandler)
//	http.ListenAndServe(addr, srv.Handler())
//
// # Related Packages
//
//   - pkg/sso: SAML authentication behind the Authenticator interface
//   - pkg/session: Session issuance and lookup
//   - pkg/middleware: Pipeline stages and the auth guard
//   - pkg/dashboard: Application routes mounted via RouteRegistrar
package api
