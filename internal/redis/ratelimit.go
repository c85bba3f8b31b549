package redis

import (
	"context"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shelfwise/bookstore/internal/middleware"
)

// RateLimiter is a fixed-window limiter shared by every API replica. It
// fails open when Redis is unavailable.
type RateLimiter struct {
	client  *goredis.Client
	log     *slog.Logger
	prefix  string
	timeout time.Duration
}

var _ middleware.RateLimiter = (*RateLimiter)(nil)

func NewRateLimiter(client *goredis.Client, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{
		client:  client,
		log:     log,
		prefix:  "bookstore:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) middleware.RateDecision {
	if limit <= 0 {
		return middleware.RateDecision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.log.Error("redis rate limiter error", "op", "incr", "error", err)
		return middleware.RateDecision{Allowed: true}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.log.Error("redis rate limiter error", "op", "expire", "error", err)
		}
	}
	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return middleware.RateDecision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

// Close is a no-op; the client is owned by the caller.
func (rl *RateLimiter) Close() {}
