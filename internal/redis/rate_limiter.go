package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter allows or denies requests using a sliding-window count in Redis.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Limit() int
}

// slidingWindow trims the window, then records the request only if it is
// admitted. Denied requests leave no trace, so a client retrying while over
// the limit is not locked out past the window.
//
// KEYS[1] key; ARGV: now_ms, window_ms, limit, member.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call('ZREMRANGEBYSCORE', key, '-inf', tostring(now - window))
if redis.call('ZCARD', key) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', key, ARGV[1], ARGV[4])
redis.call('PEXPIRE', key, tostring(window * 2))
return 1
`)

type slidingWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRateLimiter returns a limiter admitting at most limit requests per key
// in any window. prefix keeps limiters sharing one server apart.
func NewRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) RateLimiter {
	return &slidingWindowLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *slidingWindowLimiter) Limit() int { return r.limit }

func (r *slidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	admitted, err := slidingWindow.Run(ctx, r.client,
		[]string{"ratelimit:" + r.prefix + ":" + key},
		time.Now().UnixMilli(), r.window.Milliseconds(), r.limit, uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit %s/%s: %w", r.prefix, key, err)
	}
	return admitted == 1, nil
}
