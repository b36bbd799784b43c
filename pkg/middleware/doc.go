// Package middleware provides the HTTP middleware stack guarding the
// dashboard API.
//
// # Overview
//
// The middleware here compose into one ordered pipeline:
//
//	recovery -> security headers -> rate limit -> audit log -> router
//
// Recovery sits outermost so a panic anywhere below still becomes a clean
// 500. Security headers run before the rate limiter so even rejected
// requests carry them. The rate limiter runs before the audit log so flood
// traffic cannot inflate the audit trail, and the audit middleware
// wraps the router so it observes the final status of every admitted
// request. AuthGuard is applied per-route by the API server rather than
// globally, since the SSO entry points must stay reachable without a
// session.
//
// # Rate Limiting
//
// SlidingWindowLimiter admits at most Limit requests per client per Window,
// measured over a true sliding window of request timestamps rather than
// fixed buckets. Rejected requests are not recorded, so a client that keeps
// hammering while blocked does not push its own window forward. An optional
// Redis-backed limiter shares the window across gateway replicas and fails
// open when Redis is unreachable.
//
// # Related Packages
//
//   - pkg/session: the auth guard resolves session cookies here
//   - pkg/api: assembles the pipeline and mounts routes
package middleware
