package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// ErrUnavailable is returned when the shared store cannot be reached. The
// dispatcher never guesses: callers get this error instead of a silent wait.
var ErrUnavailable = errors.New("artifact dispatch unavailable")

// Outcome describes what GetOrGenerate did for a request.
type Outcome string

const (
	// OutcomeCached means the artifact was already in the cache.
	OutcomeCached Outcome = "cached"
	// OutcomeEnqueued means this caller won the lock and enqueued a job.
	OutcomeEnqueued Outcome = "enqueued"
	// OutcomePending means another caller holds the lock; the artifact is
	// expected to appear without further action.
	OutcomePending Outcome = "pending"
)

// Result is the outcome of a get-or-generate request.
type Result struct {
	Key     domain.ResourceKey
	Outcome Outcome
	Payload []byte
	JobID   uuid.UUID
}

// Ready reports whether the payload is available now.
func (r *Result) Ready() bool { return r.Outcome == OutcomeCached }

// Config holds the dispatcher's TTL and retry knobs.
type Config struct {
	LockTTL         time.Duration
	EnqueueAttempts uint
	EnqueueBackoff  time.Duration
}

// ConfigFromOrchestration derives a dispatcher Config from application config.
func ConfigFromOrchestration(cfg config.OrchestrationConfig) Config {
	return Config{
		LockTTL:         cfg.LockTTL,
		EnqueueAttempts: cfg.EnqueueAttempts,
		EnqueueBackoff:  cfg.EnqueueBackoff,
	}
}

// Dispatcher ties the result cache, lock manager and job queue together.
type Dispatcher struct {
	cache  store.ResultCache
	locks  store.LockManager
	queue  store.JobQueue
	config Config
	logger *slog.Logger
}

// New creates a Dispatcher.
func New(
	cache store.ResultCache,
	locks store.LockManager,
	queue store.JobQueue,
	cfg Config,
	log *slog.Logger,
) *Dispatcher {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 300 * time.Second
	}
	if cfg.EnqueueAttempts == 0 {
		cfg.EnqueueAttempts = 1
	}
	if cfg.EnqueueBackoff <= 0 {
		cfg.EnqueueBackoff = 200 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		cache:  cache,
		locks:  locks,
		queue:  queue,
		config: cfg,
		logger: log.With("component", "dispatcher"),
	}
}

// GetOrGenerate returns the cached artifact for key, or makes sure exactly
// one job producing it is enqueued. The lane follows from the key's domain.
// input is the job payload and is only marshalled when a job is enqueued.
func (d *Dispatcher) GetOrGenerate(ctx context.Context, key domain.ResourceKey, input any) (*Result, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	lane, err := domain.LaneForDomain(key.Domain)
	if err != nil {
		return nil, err
	}
	log := logger.FromContextOrDefault(ctx, d.logger).With("key", key.String(), "lane", lane)

	if res, err := d.checkCache(ctx, key); res != nil || err != nil {
		return res, err
	}

	token, err := d.locks.TryAcquire(ctx, key, d.config.LockTTL)
	switch {
	case errors.Is(err, store.ErrLockUnavailable):
		log.DebugContext(ctx, "lock held elsewhere, waiting for result")
		return &Result{Key: key, Outcome: OutcomePending}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: acquire lock: %w", ErrUnavailable, err)
	}
	defer d.release(ctx, log, key, token)

	// A job may have completed between the first cache check and the lock.
	if res, err := d.checkCache(ctx, key); res != nil || err != nil {
		return res, err
	}

	job, err := domain.NewJob(lane, key, input)
	if err != nil {
		return nil, err
	}
	if err := d.Enqueue(ctx, job); err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "job enqueued", "job_id", job.ID)
	return &Result{Key: key, Outcome: OutcomeEnqueued, JobID: job.ID}, nil
}

// Enqueue hands job to the queue, retrying with backoff while the store is
// unreachable. Losing a job is worse than a duplicate.
func (d *Dispatcher) Enqueue(ctx context.Context, job *domain.Job) error {
	log := logger.FromContextOrDefault(ctx, d.logger)

	err := retry.Do(
		func() error { return d.queue.Enqueue(ctx, job) },
		retry.Context(ctx),
		retry.Attempts(d.config.EnqueueAttempts),
		retry.Delay(d.config.EnqueueBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(store.IsUnavailableError),
		retry.OnRetry(func(n uint, err error) {
			log.WarnContext(ctx, "enqueue failed, retrying",
				"job_id", job.ID,
				"lane", job.Lane,
				"retry", n+1,
				"error", err)
		}),
	)
	if err != nil {
		if store.IsUnavailableError(err) {
			return fmt.Errorf("%w: enqueue %s job: %w", ErrUnavailable, job.Lane, err)
		}
		return fmt.Errorf("failed to enqueue %s job: %w", job.Lane, err)
	}
	return nil
}

// Lookup checks the cache without side effects.
func (d *Dispatcher) Lookup(ctx context.Context, key domain.ResourceKey) ([]byte, bool, error) {
	payload, ok, err := d.cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: cache lookup: %w", ErrUnavailable, err)
	}
	return payload, ok, nil
}

func (d *Dispatcher) checkCache(ctx context.Context, key domain.ResourceKey) (*Result, error) {
	payload, ok, err := d.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Result{Key: key, Outcome: OutcomeCached, Payload: payload}, nil
}

// release runs even when ctx was cancelled so that the lock does not sit
// until its TTL.
func (d *Dispatcher) release(ctx context.Context, log *slog.Logger, key domain.ResourceKey, token string) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	released, err := d.locks.Release(releaseCtx, key, token)
	switch {
	case err != nil:
		log.WarnContext(ctx, "failed to release lock", "error", err)
	case !released:
		log.WarnContext(ctx, "lock expired before release")
	}
}
