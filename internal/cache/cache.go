package cache

import (
	"context"
	"encoding/json"
	"time"

	"stocktier-backend/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "stocktier:"

// Cache is a thin JSON cache over Redis. A nil *Cache is valid and
// does nothing, so callers never guard on configuration.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to Redis at addr. Returns nil when addr is empty.
func New(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		logger.L.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// DeletePattern removes all keys matching the glob pattern.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	if c == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, keyPrefix+pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			logger.L.Debug("cache delete failed", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
}
