package redisstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
)

// Cache implements store.ResultCache with SET EX / GET.
type Cache struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ store.ResultCache = (*Cache)(nil)

// NewCache creates a Redis-backed result cache.
func NewCache(client redis.UniversalClient, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, logger: logger.With("component", "result_cache")}
}

// Put implements store.ResultCache.
func (c *Cache) Put(ctx context.Context, key domain.ResourceKey, payload []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, cacheKey(key), payload, ttl).Err(); err != nil {
		c.logger.Error("cache write failed", "key", key.String(), "error", err)
		return mapError("cache", "put", err)
	}
	c.logger.Debug("cached artifact", "key", key.String(), "bytes", len(payload), "ttl", ttl)
	return nil
}

// Get implements store.ResultCache.
func (c *Cache) Get(ctx context.Context, key domain.ResourceKey) ([]byte, bool, error) {
	payload, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, mapError("cache", "get", err)
	}
	return payload, true, nil
}
