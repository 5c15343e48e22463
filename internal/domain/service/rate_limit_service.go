package service

import (
	"context"
	"time"
)

// RateLimiter throttles repeated attempts per key, e.g. logins per client and username.
// RateLimiter 按键限制重复尝试，例如按客户端与用户名限制登录次数。
type RateLimiter interface {
	// Allow consumes one attempt. When denied, retryAfter tells when the next attempt may succeed.
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)

	// Reset forgets the attempts recorded for key.
	Reset(ctx context.Context, key string) error
}
