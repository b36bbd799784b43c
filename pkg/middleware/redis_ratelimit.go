package middleware

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rackforge/dashgate/pkg/observability"
)

// slidingWindowScript prunes, checks, and conditionally records in one
// round trip so admission stays atomic across gateway replicas.
//
// KEYS[1] window sorted set
// ARGV[1] now (unix milliseconds)
// ARGV[2] window length (milliseconds)
// ARGV[3] limit
// ARGV[4] member id for this request
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return -1
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return limit - count - 1
`)

// RedisSlidingWindowLimiter shares one sliding window per client across
// gateway replicas. Redis failures fail open: a blip in the limiter backend
// must not take down dashboard logins.
type RedisSlidingWindowLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	clock  clockwork.Clock
	prefix string

	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewRedisSlidingWindowLimiter creates a Redis-backed sliding window limiter
func NewRedisSlidingWindowLimiter(redisClient *redis.Client, config *RateLimitConfig, logger *observability.Logger, metrics *observability.Metrics) *RedisSlidingWindowLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RedisSlidingWindowLimiter{
		redis:   redisClient,
		config:  config,
		clock:   clockwork.NewRealClock(),
		prefix:  "ratelimit",
		logger:  logger,
		metrics: metrics,
	}
}

// Config returns the limiter configuration
func (rl *RedisSlidingWindowLimiter) Config() *RateLimitConfig {
	return rl.config
}

// Allow checks and records a request for the client
func (rl *RedisSlidingWindowLimiter) Allow(ctx context.Context, clientID string) (bool, int) {
	key := fmt.Sprintf("%s:%s", rl.prefix, clientID)
	now := rl.clock.Now().UnixMilli()

	result, err := slidingWindowScript.Run(ctx, rl.redis, []string{key},
		strconv.FormatInt(now, 10),
		strconv.FormatInt(rl.config.Window.Milliseconds(), 10),
		strconv.Itoa(rl.config.Limit),
		uuid.NewString(),
	).Int()
	if err != nil {
		if rl.logger != nil {
			rl.logger.WithError(err).Warn("rate limiter redis error, failing open")
		}
		return true, rl.config.Limit
	}

	if result < 0 {
		if rl.metrics != nil {
			rl.metrics.RateLimitRejectionsTotal.WithLabelValues("redis").Inc()
		}
		return false, 0
	}
	return true, result
}

// Reset clears the window for a client
func (rl *RedisSlidingWindowLimiter) Reset(ctx context.Context, clientID string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, clientID)).Err()
}
