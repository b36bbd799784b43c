package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rackforge/dashgate/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// Limit is the max requests allowed per client within the window
	Limit int
	// Window is the sliding time window
	Window time.Duration
	// ExemptPaths bypass the limiter entirely (health probes)
	ExemptPaths []string
}

// DefaultRateLimitConfig returns the default per-client limit
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limit:       100,
		Window:      time.Minute,
		ExemptPaths: []string{"/health", "/health/live", "/health/ready"},
	}
}

// Limiter admits or rejects a request for a client. Implementations must
// not count rejected requests against the window.
type Limiter interface {
	// Allow reports whether the client may proceed and how many requests
	// remain in its window after this one.
	Allow(ctx context.Context, clientID string) (allowed bool, remaining int)
	Config() *RateLimitConfig
}

// SlidingWindowLimiter tracks per-client request timestamps over a true
// sliding window. Admission for one client is atomic: prune, check, and
// record happen under that client's lock.
type SlidingWindowLimiter struct {
	config  *RateLimitConfig
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu      sync.RWMutex
	windows map[string]*window
}

type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

// NewSlidingWindowLimiter creates an in-memory sliding window limiter.
// clock may be nil to use wall-clock time; metrics may be nil.
func NewSlidingWindowLimiter(config *RateLimitConfig, clock clockwork.Clock, metrics *observability.Metrics) *SlidingWindowLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SlidingWindowLimiter{
		config:  config,
		clock:   clock,
		metrics: metrics,
		windows: make(map[string]*window),
	}
}

// Config returns the limiter configuration
func (rl *SlidingWindowLimiter) Config() *RateLimitConfig {
	return rl.config
}

// Allow checks and records a request for the client
func (rl *SlidingWindowLimiter) Allow(_ context.Context, clientID string) (bool, int) {
	rl.mu.Lock()
	win, exists := rl.windows[clientID]
	if !exists {
		win = &window{}
		rl.windows[clientID] = win
	}
	rl.mu.Unlock()

	win.mu.Lock()
	defer win.mu.Unlock()

	now := rl.clock.Now()
	cutoff := now.Add(-rl.config.Window)

	// Drop timestamps that have slid out of the window. Stamps are in
	// arrival order, so the first surviving index bounds the prune.
	keep := 0
	for keep < len(win.stamps) && !win.stamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		win.stamps = append(win.stamps[:0], win.stamps[keep:]...)
	}

	if len(win.stamps) >= rl.config.Limit {
		// Rejected requests are not recorded; a blocked client's window
		// drains on schedule no matter how hard it retries.
		if rl.metrics != nil {
			rl.metrics.RateLimitRejectionsTotal.WithLabelValues("memory").Inc()
		}
		return false, 0
	}

	win.stamps = append(win.stamps, now)
	return true, rl.config.Limit - len(win.stamps)
}

// Cleanup removes clients whose whole window has expired
func (rl *SlidingWindowLimiter) Cleanup() {
	cutoff := rl.clock.Now().Add(-rl.config.Window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for clientID, win := range rl.windows {
		win.mu.Lock()
		stale := len(win.stamps) == 0 || !win.stamps[len(win.stamps)-1].After(cutoff)
		win.mu.Unlock()
		if stale {
			delete(rl.windows, clientID)
		}
	}

	if rl.metrics != nil {
		rl.metrics.RateLimitTrackedClients.Set(float64(len(rl.windows)))
	}
}

// TrackedClients reports how many client windows are currently held
func (rl *SlidingWindowLimiter) TrackedClients() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.windows)
}

// StartCleanup runs Cleanup once per window until the context is cancelled
func (rl *SlidingWindowLimiter) StartCleanup(ctx context.Context) {
	ticker := rl.clock.NewTicker(rl.config.Window)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				rl.Cleanup()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RateLimitMiddleware provides HTTP rate limiting over any Limiter
type RateLimitMiddleware struct {
	limiter Limiter
}

// NewRateLimitMiddleware creates the rate limit middleware
func NewRateLimitMiddleware(limiter Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// Handler wraps an HTTP handler with per-client rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	cfg := m.limiter.Config()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, path := range cfg.ExemptPaths {
			if r.URL.Path == path {
				next.ServeHTTP(w, r)
				return
			}
		}

		clientID := ClientIP(r)
		allowed, remaining := m.limiter.Allow(r.Context(), clientID)
		if !allowed {
			m.rateLimitExceeded(w, cfg)
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(cfg.Window).Unix()))

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) rateLimitExceeded(w http.ResponseWriter, cfg *RateLimitConfig) {
	retryAfter := fmt.Sprintf("%.0f", cfg.Window.Seconds())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", retryAfter)
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(cfg.Window).Unix()))
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded","retry_after":` + retryAfter + `}`))
}
