package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter counts requests per key in fixed windows stored in Redis.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration
	prefix string
	client *redis.Client
	now    func() time.Time
}

// NewFixedWindowLimiter builds a limiter sharing the given Redis client.
func NewFixedWindowLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if client == nil {
		return nil, errors.New("rate limiter requires a redis client")
	}
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "wellness:ratelimit"
	}
	return &FixedWindowLimiter{
		limit:  limit,
		window: window,
		prefix: prefix,
		client: client,
		now:    time.Now,
	}, nil
}

// Allow reports whether key is still within its quota for the current window.
// Redis failures fail closed.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false
	}
	return count <= int64(l.limit)
}
