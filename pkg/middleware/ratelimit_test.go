package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(limit int, window time.Duration) *RateLimitConfig {
	return &RateLimitConfig{
		Limit:       limit,
		Window:      window,
		ExemptPaths: []string{"/health"},
	}
}

func TestSlidingWindowLimiter_AdmitsUpToLimit(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewSlidingWindowLimiter(testConfig(100, time.Minute), clock, nil)

	for i := 0; i < 100; i++ {
		allowed, remaining := limiter.Allow(context.Background(), "10.0.0.1")
		require.True(t, allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 99-i, remaining)
	}

	allowed, remaining := limiter.Allow(context.Background(), "10.0.0.1")
	assert.False(t, allowed, "101st request must be rejected")
	assert.Equal(t, 0, remaining)
}

func TestSlidingWindowLimiter_ClientsAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewSlidingWindowLimiter(testConfig(2, time.Minute), clock, nil)

	limiter.Allow(context.Background(), "10.0.0.1")
	limiter.Allow(context.Background(), "10.0.0.1")
	allowed, _ := limiter.Allow(context.Background(), "10.0.0.1")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(context.Background(), "10.0.0.2")
	assert.True(t, allowed, "a blocked client must not affect others")
}

func TestSlidingWindowLimiter_WindowSlides(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewSlidingWindowLimiter(testConfig(2, time.Minute), clock, nil)
	ctx := context.Background()

	// Two requests 30s apart fill the window
	limiter.Allow(ctx, "10.0.0.1")
	clock.Advance(30 * time.Second)
	limiter.Allow(ctx, "10.0.0.1")

	clock.Advance(29 * time.Second)
	allowed, _ := limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, allowed, "both stamps still inside the window at t=59s")

	// At t=61s the first stamp has slid out, freeing exactly one slot
	clock.Advance(2 * time.Second)
	allowed, _ = limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, allowed)
}

func TestSlidingWindowLimiter_RejectionsNotRecorded(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewSlidingWindowLimiter(testConfig(2, time.Minute), clock, nil)
	ctx := context.Background()

	limiter.Allow(ctx, "10.0.0.1")
	limiter.Allow(ctx, "10.0.0.1")

	// Hammering while blocked must not extend the window
	for i := 0; i < 50; i++ {
		clock.Advance(time.Second)
		allowed, _ := limiter.Allow(ctx, "10.0.0.1")
		assert.False(t, allowed)
	}

	// 61s after the first admitted request its stamp is gone, regardless
	// of the rejected attempts in between
	clock.Advance(11 * time.Second)
	allowed, _ := limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed)
}

func TestSlidingWindowLimiter_ConcurrentAdmitsExactlyLimit(t *testing.T) {
	limiter := NewSlidingWindowLimiter(testConfig(50, time.Minute), clockwork.NewFakeClock(), nil)

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if allowed, _ := limiter.Allow(context.Background(), "10.0.0.1"); allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), admitted, "concurrent admission must be exact")
}

func TestSlidingWindowLimiter_Cleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewSlidingWindowLimiter(testConfig(10, time.Minute), clock, nil)
	ctx := context.Background()

	limiter.Allow(ctx, "10.0.0.1")
	clock.Advance(30 * time.Second)
	limiter.Allow(ctx, "10.0.0.2")

	assert.Equal(t, 2, limiter.TrackedClients())

	// Only the first client's whole window has expired
	clock.Advance(31 * time.Second)
	limiter.Cleanup()
	assert.Equal(t, 1, limiter.TrackedClients())

	clock.Advance(time.Minute)
	limiter.Cleanup()
	assert.Equal(t, 0, limiter.TrackedClients())
}

func TestRateLimitMiddleware_Handler(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("sets rate limit headers on success", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(testConfig(100, time.Minute), clockwork.NewFakeClock(), nil)
		handler := NewRateLimitMiddleware(limiter).Handler(okHandler)

		req := httptest.NewRequest("GET", "/me", nil)
		req.RemoteAddr = "10.0.0.1:54321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("rejects with 429 and retry-after", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(testConfig(1, time.Minute), clockwork.NewFakeClock(), nil)
		handler := NewRateLimitMiddleware(limiter).Handler(okHandler)

		req := httptest.NewRequest("GET", "/me", nil)
		req.RemoteAddr = "10.0.0.1:54321"

		handler.ServeHTTP(httptest.NewRecorder(), req)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Contains(t, rec.Body.String(), "rate limit exceeded")
	})

	t.Run("health probes bypass the limiter", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(testConfig(1, time.Minute), clockwork.NewFakeClock(), nil)
		handler := NewRateLimitMiddleware(limiter).Handler(okHandler)

		for i := 0; i < 10; i++ {
			req := httptest.NewRequest("GET", "/health", nil)
			req.RemoteAddr = "10.0.0.1:54321"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
		}

		assert.Equal(t, 0, limiter.TrackedClients(), "exempt paths must not be recorded")
	})

	t.Run("forwarded clients are limited independently", func(t *testing.T) {
		limiter := NewSlidingWindowLimiter(testConfig(1, time.Minute), clockwork.NewFakeClock(), nil)
		handler := NewRateLimitMiddleware(limiter).Handler(okHandler)

		first := httptest.NewRequest("GET", "/me", nil)
		first.RemoteAddr = "172.16.0.1:1111"
		first.Header.Set("X-Forwarded-For", "203.0.113.1, 172.16.0.1")
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest("GET", "/me", nil)
		second.RemoteAddr = "172.16.0.1:1111"
		second.Header.Set("X-Forwarded-For", "203.0.113.2, 172.16.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		assert.Equal(t, http.StatusOK, rec.Code, "distinct forwarded clients share a proxy address")
	})
}

func TestSlidingWindowLimiter_StartCleanup(t *testing.T) {
	clock := clockwork.NewFakeClock()
	limiter := NewSlidingWindowLimiter(testConfig(10, time.Minute), clock, nil)

	limiter.Allow(context.Background(), "10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	limiter.StartCleanup(ctx)

	clock.BlockUntil(1)
	clock.Advance(2 * time.Minute)

	require.Eventually(t, func() bool {
		return limiter.TrackedClients() == 0
	}, time.Second, 10*time.Millisecond)
}
