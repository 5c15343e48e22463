// Package redis provides Redis-backed implementations of domain interfaces.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/backupgw/internal/config"
	"github.com/turtacn/backupgw/internal/domain/service"
)

const blacklistKeyPrefix = "bgw:bl:"

type tokenBlacklist struct{ rdb redis.UniversalClient }

// NewTokenBlacklistStore creates a revocation store on top of a redis client.
func NewTokenBlacklistStore(rdb redis.UniversalClient) service.TokenBlacklistStore {
	return &tokenBlacklist{rdb: rdb}
}

// NewClient creates a redis client from configuration and verifies connectivity.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func key(jti string) string { return blacklistKeyPrefix + jti }

// Revoke blacklists jti until exp. Already expired tokens need no entry.
func (b *tokenBlacklist) Revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, key(jti), "1", ttl).Err()
}

func (b *tokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.rdb.Exists(ctx, key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
