package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
)

// ErrQueueFull is returned when a lane's buffer has no room left.
var ErrQueueFull = errors.New("job queue is full")

// MemoryQueue implements store.JobQueue with one buffered channel per lane.
// It serves single-process deployments and tests; jobs are lost when the
// process exits.
type MemoryQueue struct {
	lanes  map[domain.Lane]chan *domain.Job
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

var _ store.JobQueue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a queue whose lanes each buffer up to size jobs.
func NewMemoryQueue(size int, logger *slog.Logger) *MemoryQueue {
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	lanes := make(map[domain.Lane]chan *domain.Job)
	for _, lane := range domain.AllLanes() {
		lanes[lane] = make(chan *domain.Job, size)
	}
	return &MemoryQueue{
		lanes:  lanes,
		done:   make(chan struct{}),
		logger: logger.With("component", "memory_queue"),
	}
}

// Enqueue implements store.JobQueue. It never blocks: a full lane returns
// ErrQueueFull.
func (q *MemoryQueue) Enqueue(ctx context.Context, job *domain.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return store.ErrQueueClosed
	}
	ch, ok := q.lanes[job.Lane]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrInvalidLane, job.Lane)
	}

	select {
	case ch <- job:
		q.logger.Debug("job enqueued",
			"job_id", job.ID,
			"lane", job.Lane,
			"queue_len", len(ch),
			"queue_cap", cap(ch))
		return nil
	default:
		return fmt.Errorf("%w: lane %s capacity %d reached", ErrQueueFull, job.Lane, cap(ch))
	}
}

// Dequeue implements store.JobQueue.
func (q *MemoryQueue) Dequeue(ctx context.Context, lane domain.Lane) (*domain.Job, error) {
	ch, ok := q.lanes[lane]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLane, lane)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		return nil, store.ErrQueueClosed
	case job := <-ch:
		return job, nil
	}
}

// Len reports how many jobs wait on lane.
func (q *MemoryQueue) Len(lane domain.Lane) int {
	return len(q.lanes[lane])
}

// Close stops the queue. Pending jobs are dropped and blocked consumers
// return store.ErrQueueClosed.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
		q.logger.Info("job queue closed")
	}
}
