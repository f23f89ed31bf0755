// Package cache is a small Redis-backed JSON cache for the dashboard list
// queries, most importantly the pending-requests triage view that every
// inventory screen polls. Cache misses and Redis failures both fall through
// to the database; writes invalidate.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "benchtrack:"
	defaultTTL = 30 * time.Second
)

// PendingRequestsKey is the cache key for the shared pending listing.
const PendingRequestsKey = "requests:pending"

// Cache wraps a Redis client. A nil *Cache is valid and disables caching.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis at addr, or returns nil when addr is empty.
func New(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Get unmarshals the cached value for key into dest. Returns false on miss
// or any Redis error.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores value under key with the configured TTL, best-effort.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}

// Invalidate drops the given keys, best-effort.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	_ = c.rdb.Del(ctx, full...).Err()
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
