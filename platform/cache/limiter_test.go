package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"journeyon_backend/platform/logger"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLimiter(client, limit, window, logger.New("test")), mr
}

func TestRedisLimiterAllowsWithinBudget(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !l.Allow(ctx, "user:1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(ctx, "user:1") {
		t.Fatal("fourth request should be rejected")
	}
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if !l.Allow(ctx, "user:1") {
		t.Fatal("first user should be allowed")
	}
	if l.Allow(ctx, "user:1") {
		t.Fatal("first user should be over budget")
	}
	if !l.Allow(ctx, "user:2") {
		t.Fatal("second user has its own budget")
	}
}

func TestRedisLimiterWindowExpiry(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if !l.Allow(ctx, "user:1") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow(ctx, "user:1") {
		t.Fatal("second request should be rejected")
	}

	mr.FastForward(time.Minute + time.Second)

	if !l.Allow(ctx, "user:1") {
		t.Fatal("request after window expiry should be allowed")
	}
}

func TestRedisLimiterFallsBackWithoutClient(t *testing.T) {
	l := NewRedisLimiter(nil, 2, time.Minute, logger.New("test"))
	ctx := context.Background()

	if !l.Allow(ctx, "user:1") || !l.Allow(ctx, "user:1") {
		t.Fatal("local fallback should allow up to the burst")
	}
	if l.Allow(ctx, "user:1") {
		t.Fatal("local fallback should reject over burst")
	}
}
