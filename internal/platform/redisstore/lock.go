package redisstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
)

// releaseScript deletes KEYS[1] only while it still holds ARGV[1].
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockManager implements store.LockManager with SET NX EX and a
// compare-and-delete script.
type LockManager struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ store.LockManager = (*LockManager)(nil)

// NewLockManager creates a Redis-backed lock manager.
func NewLockManager(client redis.UniversalClient, logger *slog.Logger) *LockManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LockManager{client: client, logger: logger.With("component", "lock_manager")}
}

// TryAcquire implements store.LockManager.
func (m *LockManager) TryAcquire(ctx context.Context, key domain.ResourceKey, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := m.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		m.logger.Warn("lock store unreachable, refusing lock", "key", key.String(), "error", err)
		return "", mapError("lock", "acquire", err)
	}
	if !ok {
		m.logger.Debug("lock already held", "key", key.String())
		return "", store.ErrLockUnavailable
	}

	m.logger.Debug("lock acquired", "key", key.String(), "ttl", ttl)
	return token, nil
}

// Release implements store.LockManager.
func (m *LockManager) Release(ctx context.Context, key domain.ResourceKey, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, m.client, []string{lockKey(key)}, token).Int64()
	if err != nil {
		return false, mapError("lock", "release", err)
	}
	if deleted == 0 {
		m.logger.Debug("lock not released, token no longer current", "key", key.String())
		return false, nil
	}
	m.logger.Debug("lock released", "key", key.String())
	return true, nil
}
