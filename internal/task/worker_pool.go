package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// WorkerPool drains one lane with a fixed number of goroutines.
type WorkerPool struct {
	lane    domain.Lane
	queue   store.JobQueue
	handler Handler
	config  WorkerPoolConfig

	// wg tracks active worker goroutines for clean shutdown
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	// errorHandler is called when a job fails after all retries.
	// If nil, errors are only logged
	errorHandler func(job *domain.Job, err error)
}

// WorkerPoolConfig holds configuration options for a lane's worker pool.
type WorkerPoolConfig struct {
	// WorkerCount is the number of concurrent workers. If zero or
	// negative, defaults to 1.
	WorkerCount int

	// RetryAttempts is how many extra times a retryable failure is run
	// again. Zero disables retry.
	RetryAttempts int

	// RetryDelay is the base backoff between retries.
	RetryDelay time.Duration

	// UnavailableBackoff is how long a worker sleeps after the queue
	// reports the store unreachable.
	UnavailableBackoff time.Duration
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount:        2,
		RetryDelay:         500 * time.Millisecond,
		UnavailableBackoff: time.Second,
	}
}

// NewWorkerPool creates a pool that feeds jobs from handler's lane to handler.
func NewWorkerPool(queue store.JobQueue, handler Handler, config WorkerPoolConfig, log *slog.Logger) *WorkerPool {
	if log == nil {
		log = slog.Default()
	}
	lane := handler.Lane()
	log = log.With("lane", lane)

	if config.WorkerCount <= 0 {
		log.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultWorkerPoolConfig().RetryDelay
	}
	if config.UnavailableBackoff <= 0 {
		config.UnavailableBackoff = DefaultWorkerPoolConfig().UnavailableBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		lane:    lane,
		queue:   queue,
		handler: handler,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log,
	}
}

// SetErrorHandler sets a callback for jobs that fail after all retries.
func (p *WorkerPool) SetErrorHandler(handler func(job *domain.Job, err error)) {
	p.errorHandler = handler
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.config.WorkerCount)
	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals workers to stop dequeuing and waits for in-flight jobs.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		job, err := p.queue.Dequeue(p.ctx, p.lane)
		switch {
		case err == nil:
			p.processJob(job, id)
		case p.ctx.Err() != nil:
			p.logger.Debug("stopping worker", "worker_id", id)
			return
		case errors.Is(err, store.ErrQueueClosed):
			p.logger.Debug("queue closed, stopping worker", "worker_id", id)
			return
		default:
			p.logger.Warn("dequeue failed, backing off",
				"worker_id", id,
				"backoff", p.config.UnavailableBackoff,
				"error", err)
			select {
			case <-p.ctx.Done():
				return
			case <-time.After(p.config.UnavailableBackoff):
			}
		}
	}
}

// processJob runs one job to completion. Jobs run on a fresh context so that
// stopping the pool lets in-flight work finish.
func (p *WorkerPool) processJob(job *domain.Job, workerID int) {
	log := p.logger.With(
		"job_id", job.ID,
		"key", job.Key.String(),
		"worker_id", workerID,
	)
	ctx := logger.WithLogger(context.Background(), log)

	log.Info("processing job")
	start := time.Now()

	err := p.execute(ctx, log, job)
	if err != nil {
		log.Error("job failed", "error", err, "duration", time.Since(start))
		if p.errorHandler != nil {
			p.errorHandler(job, err)
		}
		return
	}
	log.Info("job completed", "duration", time.Since(start))
}

func (p *WorkerPool) execute(ctx context.Context, log *slog.Logger, job *domain.Job) error {
	if p.config.RetryAttempts == 0 {
		return p.handle(ctx, job)
	}
	return retry.Do(
		func() error { return p.handle(ctx, job) },
		retry.Context(ctx),
		retry.Attempts(uint(p.config.RetryAttempts)+1),
		retry.Delay(p.config.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retrying job", "retry", n+1, "error", err)
		}),
	)
}

func (p *WorkerPool) handle(ctx context.Context, job *domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, r)
		}
	}()
	return p.handler.Handle(ctx, job)
}
