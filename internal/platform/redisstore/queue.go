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

// Queue implements store.JobQueue with one Redis list per lane. Producers
// LPUSH and workers BRPOP, so delivery within a lane is FIFO in the
// absence of redelivery.
type Queue struct {
	client      redis.UniversalClient
	pollTimeout time.Duration
	logger      *slog.Logger
}

var _ store.JobQueue = (*Queue)(nil)

// NewQueue creates a Redis-backed job queue. pollTimeout bounds each BRPOP
// so that Dequeue notices cancellation; it defaults to five seconds.
func NewQueue(client redis.UniversalClient, pollTimeout time.Duration, logger *slog.Logger) *Queue {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		client:      client,
		pollTimeout: pollTimeout,
		logger:      logger.With("component", "job_queue"),
	}
}

// Enqueue implements store.JobQueue.
func (q *Queue) Enqueue(ctx context.Context, job *domain.Job) error {
	if !job.Lane.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidLane, job.Lane)
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, queueKey(job.Lane), payload).Err(); err != nil {
		return mapError("queue", "enqueue", err)
	}

	q.logger.Debug("job enqueued",
		"job_id", job.ID,
		"lane", job.Lane,
		"key", job.Key.String())
	return nil
}

// Dequeue implements store.JobQueue.
func (q *Queue) Dequeue(ctx context.Context, lane domain.Lane) (*domain.Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := q.client.BRPop(ctx, q.pollTimeout, queueKey(lane)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, mapError("queue", "dequeue", err)
		}

		// BRPOP returns [list, value]
		if len(res) != 2 {
			return nil, store.NewStoreError("queue", "dequeue", "unexpected reply", store.ErrStoreUnavailable)
		}

		var job domain.Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			q.logger.Error("dropping malformed job", "lane", lane, "error", err)
			continue
		}
		return &job, nil
	}
}

// Len reports how many jobs wait on lane.
func (q *Queue) Len(ctx context.Context, lane domain.Lane) (int64, error) {
	n, err := q.client.LLen(ctx, queueKey(lane)).Result()
	if err != nil {
		return 0, mapError("queue", "len", err)
	}
	return n, nil
}
