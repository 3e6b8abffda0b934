package vitals

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a Redis cache-aside layer for per-user reading lists.
//
// Keys are vitals:{userID}:limit:{n}. A nil Cache (or one built with a nil
// client) is a no-op: every Get misses and every Set/Invalidate succeeds, so
// the service never depends on Redis being up.
type Cache struct {
	rdb *redis.Client
	log *slog.Logger
	ttl time.Duration
}

// DefaultCacheTTL is how long a cached reading list stays fresh.
const DefaultCacheTTL = 60 * time.Second

// NewCache wraps a Redis client as a readings cache.
func NewCache(rdb *redis.Client, log *slog.Logger, ttl time.Duration) *Cache {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{rdb: rdb, log: log, ttl: ttl}
}

func recentKey(userID string, limit int) string {
	return fmt.Sprintf("vitals:%s:limit:%d", userID, limit)
}

// GetRecent returns the cached list for (userID, limit), or ok=false on miss.
// Redis errors are logged and treated as misses.
func (c *Cache) GetRecent(ctx context.Context, userID string, limit int) ([]Reading, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, recentKey(userID, limit)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("vitals.cache.get.fail", "err", err)
		return nil, false
	}

	var out []Reading
	if err := json.Unmarshal(raw, &out); err != nil {
		c.log.Warn("vitals.cache.decode.fail", "err", err)
		return nil, false
	}
	return out, true
}

// SetRecent caches the list for (userID, limit) with the configured TTL.
func (c *Cache) SetRecent(ctx context.Context, userID string, limit int, readings []Reading) {
	if c == nil || c.rdb == nil {
		return
	}

	raw, err := json.Marshal(readings)
	if err != nil {
		c.log.Warn("vitals.cache.encode.fail", "err", err)
		return
	}
	if err := c.rdb.Set(ctx, recentKey(userID, limit), raw, c.ttl).Err(); err != nil {
		c.log.Warn("vitals.cache.set.fail", "err", err)
	}
}

// Invalidate drops every cached list for userID. Called after each ingest so
// reads never serve a list missing the newest reading for longer than one
// round trip.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.rdb == nil {
		return
	}

	pattern := fmt.Sprintf("vitals:%s:*", userID)
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("vitals.cache.scan.fail", "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("vitals.cache.del.fail", "err", err)
	}
}
