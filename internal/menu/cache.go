package menu

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a small JSON read-through cache over redis. A nil receiver
// or client disables caching entirely, which keeps tests and tooling
// free to run without redis.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

// NewCache builds a cache with the given TTL.
func NewCache(r *redis.Client, ttl time.Duration) *Cache {
	return &Cache{R: r, TTL: ttl}
}

// GetJSON loads key into dest. It reports whether a value was found;
// decode failures are treated as a miss so stale shapes self-heal.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil || c.R == nil {
		return false
	}
	raw, err := c.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores v under key best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil || c.R == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.R.Set(ctx, key, raw, c.TTL).Err()
}
