package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors exported by the gateway
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Login metrics
	LoginSuccessTotal *prometheus.CounterVec
	LoginFailureTotal *prometheus.CounterVec

	// Session metrics
	SessionsIssuedTotal  prometheus.Counter
	SessionsRevokedTotal prometheus.Counter
	SessionsExpiredTotal prometheus.Counter
	SessionsActive       prometheus.Gauge

	// Rate limit metrics
	RateLimitRejectionsTotal *prometheus.CounterVec
	RateLimitTrackedClients  prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		LoginSuccessTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashgate_login_success_total",
				Help: "Total number of successful SAML logins",
			},
			[]string{"role"},
		),
		LoginFailureTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashgate_login_failure_total",
				Help: "Total number of rejected SAML logins",
			},
			[]string{"reason"},
		),

		SessionsIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashgate_sessions_issued_total",
				Help: "Total number of sessions issued",
			},
		),
		SessionsRevokedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashgate_sessions_revoked_total",
				Help: "Total number of sessions revoked by logout",
			},
		),
		SessionsExpiredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dashgate_sessions_expired_total",
				Help: "Total number of sessions removed after expiry",
			},
		),
		SessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashgate_sessions_active",
				Help: "Number of live sessions in the store",
			},
		),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashgate_ratelimit_rejections_total",
				Help: "Total number of requests rejected by the rate limiter",
			},
			[]string{"limiter"},
		),
		RateLimitTrackedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dashgate_ratelimit_tracked_clients",
				Help: "Number of client windows currently tracked",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoginSuccessTotal,
		m.LoginFailureTotal,
		m.SessionsIssuedTotal,
		m.SessionsRevokedTotal,
		m.SessionsExpiredTotal,
		m.SessionsActive,
		m.RateLimitRejectionsTotal,
		m.RateLimitTrackedClients,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the handler serving the /metrics endpoint
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
