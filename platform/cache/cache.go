// Package cache provides Redis connection infrastructure for the distributed
// rate limiter and short-lived agent caches.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/tls"

	"journeyon_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client from the configured URL.
// Returns nil when no Redis URL is configured; callers must treat a nil
// client as "feature disabled" and fall back to in-process behaviour.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		clone := opt.TLSConfig.Clone()
		clone.InsecureSkipVerify = true
		opt.TLSConfig = clone
	} else if opt.TLSConfig == nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return redis.NewClient(opt), nil
}

// Ping verifies Redis connectivity. A nil client pings successfully since
// the cache is optional infrastructure.
func Ping(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Ping(ctx).Err()
}
