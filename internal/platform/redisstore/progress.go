package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
)

// maxWatchRetries bounds optimistic-lock retries in Set.
const maxWatchRetries = 5

// ProgressTracker implements store.ProgressTracker as JSON records written
// under WATCH so the monotone fraction rule holds across processes.
type ProgressTracker struct {
	client redis.UniversalClient
	logger *slog.Logger
}

var _ store.ProgressTracker = (*ProgressTracker)(nil)

// NewProgressTracker creates a Redis-backed progress tracker.
func NewProgressTracker(client redis.UniversalClient, logger *slog.Logger) *ProgressTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressTracker{client: client, logger: logger.With("component", "progress_tracker")}
}

// Set implements store.ProgressTracker.
func (p *ProgressTracker) Set(ctx context.Context, record domain.ProgressRecord, ttl time.Duration) error {
	k := progressKey(record.Key)
	record.Fraction = domain.ClampFraction(record.Fraction)
	if record.Status == domain.ProgressDone {
		record.Fraction = 1
	}
	record.UpdatedAt = time.Now().UTC()

	txf := func(tx *redis.Tx) error {
		next := record

		raw, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var prev domain.ProgressRecord
			if jsonErr := json.Unmarshal(raw, &prev); jsonErr == nil {
				next = mergeProgress(prev, next)
			}
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal progress: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := p.client.Watch(ctx, txf, k)
		if err == nil {
			p.logger.Debug("progress updated",
				"key", record.Key.String(),
				"status", record.Status,
				"fraction", record.Fraction)
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return mapError("progress", "set", err)
	}

	return store.NewStoreError("progress", "set", "too much contention", store.ErrUpdateFailed)
}

// mergeProgress applies the monotone rule: within a running execution the
// fraction never decreases; a processing write over a terminal record
// starts a new execution and is taken as is.
func mergeProgress(prev, next domain.ProgressRecord) domain.ProgressRecord {
	if prev.Terminal() {
		return next
	}
	if next.Fraction < prev.Fraction && next.Status != domain.ProgressDone {
		next.Fraction = prev.Fraction
	}
	return next
}

// Get implements store.ProgressTracker.
func (p *ProgressTracker) Get(ctx context.Context, key domain.ResourceKey) (*domain.ProgressRecord, error) {
	raw, err := p.client.Get(ctx, progressKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrProgressNotFound
	}
	if err != nil {
		return nil, mapError("progress", "get", err)
	}

	var record domain.ProgressRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, store.NewStoreError("progress", "get", "corrupt record", err)
	}
	return &record, nil
}
