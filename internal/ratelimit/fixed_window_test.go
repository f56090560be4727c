package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, mr *miniredis.Miniredis, limit int) *FixedWindowLimiter {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	limiter, err := NewFixedWindowLimiter(client, "test:ratelimit", limit, time.Minute)
	require.NoError(t, err)
	return limiter
}

func TestFixedWindowLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := newLimiter(t, mr, 2)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "ip-1"))
	assert.True(t, limiter.Allow(ctx, "ip-1"))
	assert.False(t, limiter.Allow(ctx, "ip-1"), "third request in the window is blocked")
	assert.True(t, limiter.Allow(ctx, "ip-2"), "keys are counted separately")
}

func TestFixedWindowLimiterNextWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := newLimiter(t, mr, 1)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow(ctx, "user-1"))
	assert.False(t, limiter.Allow(ctx, "user-1"))

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow(ctx, "user-1"))
}

func TestFixedWindowLimiterFailsClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	limiter := newLimiter(t, mr, 5)
	mr.Close()

	assert.False(t, limiter.Allow(context.Background(), "ip-1"))
}

func TestNewFixedWindowLimiterValidation(t *testing.T) {
	_, err := NewFixedWindowLimiter(nil, "", 1, time.Second)
	assert.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	_, err = NewFixedWindowLimiter(client, "", 0, time.Second)
	assert.Error(t, err)
}
