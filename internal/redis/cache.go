package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// InvalidationHold is how long Delete keeps a slot blocked. It only has to
// outlast a read that loaded the row before the write landed.
const InvalidationHold = 5 * time.Second

// tombstone marks a slot that was invalidated and must not be refilled yet.
var tombstone = []byte("\x00invalidated")

// ViewCache is a generic JSON-backed Redis cache for read models.
// Pass ttl 0 for keys that should not expire.
type ViewCache[T any] struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

func NewViewCache[T any](client *goredis.Client, prefix string, ttl time.Duration, log *slog.Logger) *ViewCache[T] {
	if log == nil {
		log = slog.Default()
	}
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (c *ViewCache[T]) key(id string) string {
	return c.prefix + id
}

// Get returns (nil, false) on a miss, a Redis error or a payload that no
// longer decodes.
func (c *ViewCache[T]) Get(ctx context.Context, id string) (*T, bool) {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("view cache read failed", "key", c.key(id), "error", err)
		}
		return nil, false
	}
	if bytes.Equal(data, tombstone) {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.Warn("view cache decode failed", "key", c.key(id), "error", err)
		return nil, false
	}
	return &v, true
}

// Set fills the slot for id only when it is empty, so it never replaces a
// newer entry or an invalidation still on hold. Failures are logged; a failed
// cache write never fails the request.
func (c *ViewCache[T]) Set(ctx context.Context, id string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("view cache encode failed", "key", c.key(id), "error", err)
		return
	}
	if err := c.client.SetNX(ctx, c.key(id), data, c.ttl).Err(); err != nil {
		c.log.Warn("view cache write failed", "key", c.key(id), "error", err)
	}
}

// Delete evicts id and holds the slot for InvalidationHold. A read that
// loaded the old row before the write cannot put it back in the meantime.
func (c *ViewCache[T]) Delete(ctx context.Context, id string) {
	if err := c.client.Set(ctx, c.key(id), tombstone, InvalidationHold).Err(); err != nil {
		c.log.Warn("view cache invalidate failed", "key", c.key(id), "error", err)
	}
}
