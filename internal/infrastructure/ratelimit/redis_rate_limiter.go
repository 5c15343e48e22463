// Package ratelimit provides distributed rate limiting using Redis, with an
// in-process token bucket fallback.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/logger"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// Limit is the number of attempts allowed per Window
	Limit int
	// Window is the time in which a full bucket refills
	Window time.Duration
	// KeyPrefix is the Redis key prefix
	KeyPrefix string
}

// tokenBucketScript atomically refills and takes one token.
// Returns {allowed, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

tokens = math.min(capacity, tokens + math.max(0, now - last_refill) * rate / 1000)

local allowed = 0
local retry_ms = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
else
    retry_ms = math.ceil((1 - tokens) / rate * 1000)
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
redis.call('PEXPIRE', key, math.ceil((capacity - tokens) / rate * 1000) + 60000)

return {allowed, retry_ms}
`)

var _ service.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter implements distributed rate limiting using Redis.
type RedisRateLimiter struct {
	client       redis.UniversalClient
	config       RateLimiterConfig
	rate         float64 // tokens per millisecond * 1000
	localBuckets *TokenBucketPool
	logger       logger.Logger
	now          func() time.Time
}

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client redis.UniversalClient, cfg RateLimiterConfig, log logger.Logger) *RedisRateLimiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "bgw:rl"
	}
	rate := float64(cfg.Limit) / cfg.Window.Seconds()
	return &RedisRateLimiter{
		client:       client,
		config:       cfg,
		rate:         rate,
		localBuckets: NewTokenBucketPool(float64(cfg.Limit), rate, cfg.Window+time.Minute),
		logger:       log.WithComponent("RateLimiter"),
		now:          time.Now,
	}
}

// Allow implements service.RateLimiter. While Redis is unreachable the decision
// falls back to a per-process bucket.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := rl.buildKey(key)
	res, err := tokenBucketScript.Run(ctx, rl.client, []string{redisKey},
		rl.config.Limit, rl.rate, rl.now().UnixMilli()).Int64Slice()
	if err != nil || len(res) != 2 {
		rl.logger.Warn(ctx, "Redis rate limit check failed, using local bucket",
			logger.String("key", redisKey),
			logger.Error(err),
		)
		allowed, retry := rl.localBuckets.Get(redisKey).Take()
		return allowed, retry, nil
	}
	return res[0] == 1, time.Duration(res[1]) * time.Millisecond, nil
}

// Reset implements service.RateLimiter.
func (rl *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	redisKey := rl.buildKey(key)
	rl.localBuckets.Remove(redisKey)
	if err := rl.client.Del(ctx, redisKey).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("reset rate limit %s: %w", redisKey, err)
	}
	return nil
}

func (rl *RedisRateLimiter) buildKey(key string) string {
	return rl.config.KeyPrefix + ":" + key
}
