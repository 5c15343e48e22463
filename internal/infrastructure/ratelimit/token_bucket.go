package ratelimit

import (
	"math"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// TokenBucket implements the token bucket algorithm for rate limiting.
// It is the in-process fallback used while Redis is unreachable.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64   // Maximum number of tokens
	tokens     float64   // Current number of tokens
	rate       float64   // Tokens added per second
	lastRefill time.Time // Last time tokens were refilled
	now        func() time.Time
}

// NewTokenBucket creates a full bucket holding capacity tokens, refilled at rate per second.
func NewTokenBucket(capacity, rate float64) *TokenBucket {
	return newTokenBucket(capacity, rate, time.Now)
}

func newTokenBucket(capacity, rate float64, now func() time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		rate:       rate,
		lastRefill: now(),
		now:        now,
	}
}

// Take consumes one token. When none is available it returns false and the
// time until one will be.
func (tb *TokenBucket) Take() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	missing := 1 - tb.tokens
	return false, time.Duration(math.Ceil(missing / tb.rate * float64(time.Second)))
}

// refill adds tokens for the time elapsed since the last refill. Must be called with lock held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	tb.tokens = math.Min(tb.capacity, tb.tokens+now.Sub(tb.lastRefill).Seconds()*tb.rate)
	tb.lastRefill = now
}

// TokenBucketPool hands out one bucket per key. Idle buckets expire.
type TokenBucketPool struct {
	mu       sync.Mutex
	buckets  *gocache.Cache
	capacity float64
	rate     float64
}

// NewTokenBucketPool creates a pool whose buckets are dropped after idle of inactivity.
func NewTokenBucketPool(capacity, rate float64, idle time.Duration) *TokenBucketPool {
	return &TokenBucketPool{
		buckets:  gocache.New(idle, idle),
		capacity: capacity,
		rate:     rate,
	}
}

// Get returns the bucket for key, creating it when missing.
func (p *TokenBucketPool) Get(key string) *TokenBucket {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.buckets.Get(key); ok {
		p.buckets.SetDefault(key, b)
		return b.(*TokenBucket)
	}
	b := NewTokenBucket(p.capacity, p.rate)
	p.buckets.SetDefault(key, b)
	return b
}

// Remove drops the bucket for key.
func (p *TokenBucketPool) Remove(key string) {
	p.buckets.Delete(key)
}
