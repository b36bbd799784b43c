// Package observability provides structured logging, Prometheus metrics,
// health probes, and graceful shutdown for the dashboard gateway.
//
// # Overview
//
// Logger wraps log/slog with a JSON handler and a small fluent API
// (WithField, WithError) so call sites stay compact. Metrics holds every
// Prometheus collector the gateway exports; families cover HTTP traffic,
// login outcomes, session lifecycle, and rate limiting. HealthChecker backs
// the liveness and readiness probes, and ShutdownManager coordinates
// signal-driven teardown of the HTTP server and background sweeps.
//
// # Usage Example
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//
//	logger.WithField("addr", addr).Info("listening")
//	metrics.LoginSuccessTotal.Inc()
//
// # Related Packages
//
//   - pkg/middleware: audit and rate-limit middleware record into Metrics
//   - pkg/api: mounts the /metrics and /health endpoints
package observability
