package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rackforge/dashgate/pkg/httputil"
	"github.com/rackforge/dashgate/pkg/identity"
	"github.com/rackforge/dashgate/pkg/middleware"
	"github.com/rackforge/dashgate/pkg/observability"
	"github.com/rackforge/dashgate/pkg/session"
)

// Authenticator is the SAML flow the auth handlers drive. Implemented by
// sso.Orchestrator.
type Authenticator interface {
	BeginLogin(r *http.Request, relayState string) (string, error)
	CompleteLogin(ctx context.Context, samlResponse string) (*identity.Identity, error)
	Metadata() ([]byte, error)
}

// Config holds the server-level settings the handlers need.
type Config struct {
	// FrontendURL is the dashboard origin the callback redirects to.
	FrontendURL string

	// AllowedOrigins for credentialed CORS requests.
	AllowedOrigins []string

	// SessionTTL sets the session cookie Max-Age.
	SessionTTL time.Duration

	// SecureCookies marks the session cookie Secure. On in production.
	SecureCookies bool

	// CookieDomain scopes the session cookie. Empty means host-only.
	CookieDomain string
}

// ServerOptions bundles the dependencies for NewServer.
type ServerOptions struct {
	Config        Config
	Authenticator Authenticator
	Sessions      *session.Store
	Limiter       middleware.Limiter
	Logger        *observability.Logger
	Metrics       *observability.Metrics
	Health        *observability.HealthChecker
	Registry      *prometheus.Registry
}

// Server is the dashboard gateway HTTP server.
type Server struct {
	config  Config
	router  *mux.Router
	guard   *middleware.AuthGuard
	limiter middleware.Limiter
	logger  *observability.Logger
	metrics *observability.Metrics
	handler http.Handler
}

// NewServer creates the server, mounts the auth, health, and metrics
// routes, and builds the middleware pipeline.
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		config:  opts.Config,
		router:  mux.NewRouter(),
		guard:   middleware.NewAuthGuard(opts.Sessions),
		limiter: opts.Limiter,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}

	authHandlers := NewAuthHandlers(opts.Config, opts.Authenticator, opts.Sessions, s.guard, opts.Logger, opts.Metrics)
	authHandlers.RegisterRoutes(s.router)

	if opts.Health != nil {
		s.router.HandleFunc("/health", opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/live", opts.Health.Liveness).Methods("GET")
		s.router.HandleFunc("/health/ready", opts.Health.Readiness).Methods("GET")
	}
	if opts.Registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(opts.Registry)).Methods("GET")
	}

	s.handler = s.buildPipeline()
	return s
}

// RouteRegistrar mounts application routes behind the auth guard.
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router, guard *middleware.AuthGuard)
}

// Register mounts routes from a RouteRegistrar.
func (s *Server) Register(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router, s.guard)
}

// Handler returns the router wrapped in the full middleware pipeline.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// buildPipeline assembles the ordered middleware stack around the router.
func (s *Server) buildPipeline() http.Handler {
	stages := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(s.logger),
		middleware.NewSecurityHeadersMiddleware().Handler,
		httputil.CORSMiddleware(s.config.AllowedOrigins),
	}
	if s.limiter != nil {
		stages = append(stages, middleware.NewRateLimitMiddleware(s.limiter).Handler)
	}
	stages = append(stages, middleware.NewAuditMiddleware(s.logger).Handler)
	if s.metrics != nil {
		stages = append(stages, observability.HTTPMetricsMiddleware(s.metrics))
	}

	return httputil.Chain(stages...)(s.router)
}
