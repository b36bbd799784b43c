package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/rackforge/dashgate/pkg/contextkeys"
	"github.com/rackforge/dashgate/pkg/observability"
)

// AuditMiddleware writes one structured log line per request: request id,
// method, path, client, status, and latency.
type AuditMiddleware struct {
	logger *observability.Logger
}

// NewAuditMiddleware creates the audit middleware
func NewAuditMiddleware(logger *observability.Logger) *AuditMiddleware {
	return &AuditMiddleware{logger: logger}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Handler wraps an HTTP handler with audit logging. The log line is emitted
// from a deferred call, so a panicking handler is still recorded before the
// panic travels up to the recovery middleware.
func (m *AuditMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		requestID := uuid.NewString()

		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		defer func() {
			m.logger.WithFields(map[string]interface{}{
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"client":      ClientIP(r),
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(startTime).Milliseconds(),
			}).Info("http request")
		}()

		next.ServeHTTP(wrapped, r.WithContext(ctx))
	})
}
