// Package redis holds the catalog's optional shared state: the book view
// cache and the auth rate limiter. The event streams in package events run
// on the same connection.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/models"
)

const bookViewPrefix = "book:view:"

// Client is one pooled connection shared by every Redis-backed component.
type Client struct {
	*goredis.Client
	cacheTTL time.Duration
}

// Connect dials cfg.Addr and pings it, so a misconfigured address fails at
// startup instead of on the first request.
func Connect(ctx context.Context, cfg config.Redis) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return &Client{Client: rdb, cacheTTL: cfg.CacheTTL}, nil
}

// BookCache is the read-through cache behind GET /books/:id.
func (c *Client) BookCache(log *slog.Logger) *ViewCache[models.Book] {
	return NewViewCache[models.Book](c.Client, bookViewPrefix, c.cacheTTL, log)
}

func (c *Client) RateLimiter(log *slog.Logger) *RateLimiter {
	return NewRateLimiter(c.Client, log)
}
