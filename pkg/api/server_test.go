package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rackforge/dashgate/pkg/middleware"
)

// panicRegistrar mounts a route that always panics, for recovery tests.
type panicRegistrar struct{}

func (panicRegistrar) RegisterRoutes(router *mux.Router, guard *middleware.AuthGuard) {
	router.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})
}

func TestServer_SecurityHeadersOnEveryResponse(t *testing.T) {
	f := newServerFixture(t)

	paths := []string{"/health", "/me", "/saml/metadata", "/no-such-route"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.server.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
		})
	}
}

func TestServer_RateLimitHeaders(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest("GET", "/saml/metadata", nil)
	req.RemoteAddr = "10.0.0.9:40000"
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestServer_RateLimitRejection(t *testing.T) {
	f := newServerFixture(t)

	var rec *httptest.ResponseRecorder
	for i := 0; i < 101; i++ {
		req := httptest.NewRequest("GET", "/saml/metadata", nil)
		req.RemoteAddr = "10.0.0.9:40000"
		rec = httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
	}

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestServer_HealthBypassesRateLimit(t *testing.T) {
	f := newServerFixture(t)

	for i := 0; i < 150; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.0.0.9:40000"
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "health request %d must not be limited", i+1)
	}
}

func TestServer_HealthAndMetricsNeedNoSession(t *testing.T) {
	f := newServerFixture(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.server.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestServer_RecoveryReturnsGeneric500(t *testing.T) {
	f := newServerFixture(t)
	f.server.Register(panicRegistrar{})

	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.NotContains(t, rec.Body.String(), "kaboom", "panic value must not leak")
}

func TestServer_CORS(t *testing.T) {
	f := newServerFixture(t)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://dashboard.example.com")
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)

		assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_ClientsLimitedIndependently(t *testing.T) {
	f := newServerFixture(t)

	exhaust := func(addr string) int {
		var last int
		for i := 0; i < 101; i++ {
			req := httptest.NewRequest("GET", "/saml/metadata", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			f.server.ServeHTTP(rec, req)
			last = rec.Code
		}
		return last
	}

	require.Equal(t, http.StatusTooManyRequests, exhaust(fmt.Sprintf("%s:1234", "10.0.0.1")))

	req := httptest.NewRequest("GET", "/saml/metadata", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "second client must not share the first client's window")
}
