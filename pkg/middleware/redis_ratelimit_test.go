package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLimiter(t *testing.T, limit int) (*RedisSlidingWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisSlidingWindowLimiter(client, testConfig(limit, time.Minute), nil, nil), mr
}

func TestRedisSlidingWindowLimiter_AdmitsUpToLimit(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, remaining := limiter.Allow(ctx, "10.0.0.1")
		require.True(t, allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 2-i, remaining)
	}

	allowed, remaining := limiter.Allow(ctx, "10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 0, remaining)
}

func TestRedisSlidingWindowLimiter_ClientsAreIndependent(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 1)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "10.0.0.1")
	require.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "10.0.0.1")
	require.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "10.0.0.2")
	assert.True(t, allowed)
}

func TestRedisSlidingWindowLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewRedisSlidingWindowLimiter(client, testConfig(1, time.Minute), nil, nil)
	mr.Close()

	allowed, remaining := limiter.Allow(context.Background(), "10.0.0.1")
	assert.True(t, allowed, "redis outage must not block requests")
	assert.Equal(t, 1, remaining)
}

func TestRedisSlidingWindowLimiter_Reset(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 1)
	ctx := context.Background()

	limiter.Allow(ctx, "10.0.0.1")
	allowed, _ := limiter.Allow(ctx, "10.0.0.1")
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "10.0.0.1"))

	allowed, _ = limiter.Allow(ctx, "10.0.0.1")
	assert.True(t, allowed)
}

func TestRedisSlidingWindowLimiter_ImplementsLimiter(t *testing.T) {
	limiter, _ := newRedisLimiter(t, 1)
	var _ Limiter = limiter
	assert.Equal(t, 1, limiter.Config().Limit)
}
