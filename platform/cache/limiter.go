package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"journeyon_backend/platform/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether a keyed caller may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RedisLimiter is a fixed-window rate limiter backed by Redis, shared across
// instances. When Redis is unreachable it degrades to a per-process
// token-bucket limiter instead of failing open or closed arbitrarily.
type RedisLimiter struct {
	client   *redis.Client
	limit    int
	window   time.Duration
	fallback *localLimiter
	log      *logger.Logger
}

// NewRedisLimiter creates a limiter allowing limit requests per window per key.
// A nil client yields a limiter that only uses the in-process fallback.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, log *logger.Logger) *RedisLimiter {
	perSecond := rate.Limit(float64(limit) / window.Seconds())
	return &RedisLimiter{
		client:   client,
		limit:    limit,
		window:   window,
		fallback: newLocalLimiter(perSecond, limit),
		log:      log,
	}
}

// Allow reports whether the keyed caller is within its budget.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l.client == nil {
		return l.fallback.allow(key)
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warn("rate limiter falling back to local window", "error", err)
		return l.fallback.allow(key)
	}
	if count == 1 {
		// First hit in this window owns the expiry.
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.log.Warn("rate limiter expire failed", "error", err)
		}
	}

	return count <= int64(l.limit)
}

// localLimiter is the in-process fallback used when Redis is unavailable.
type localLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
}

func newLocalLimiter(r rate.Limit, burst int) *localLimiter {
	return &localLimiter{rate: r, burst: burst}
}

func (l *localLimiter) allow(key string) bool {
	limiter, ok := l.limiters.Load(key)
	if !ok {
		limiter, _ = l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	}
	return limiter.(*rate.Limiter).Allow()
}
