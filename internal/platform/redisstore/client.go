package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/domain"
)

const (
	lockPrefix     = "lock:"
	progressPrefix = "progress:"
	queuePrefix    = "queue:"
)

// NewClient parses the configured URL, connects and pings Redis.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, mapError("redis", "ping", err)
	}

	return client, nil
}

func cacheKey(key domain.ResourceKey) string    { return key.String() }
func lockKey(key domain.ResourceKey) string     { return lockPrefix + key.String() }
func progressKey(key domain.ResourceKey) string { return progressPrefix + key.String() }
func queueKey(lane domain.Lane) string          { return queuePrefix + string(lane) }
