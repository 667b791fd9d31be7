package task

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/store"
)

// RunnerConfig holds configuration for the lane runner.
type RunnerConfig struct {
	// Lanes to consume. Empty means every lane with a registered handler.
	Lanes []domain.Lane

	// WorkersPerLane determines how many concurrent workers drain each lane.
	WorkersPerLane int

	// RetryAttempts is the number of extra attempts after a retryable
	// failure. Zero disables worker-level retry.
	RetryAttempts int

	// RetryDelay is the base backoff between worker retries.
	RetryDelay time.Duration
}

// RunnerConfigFromOrchestration derives a RunnerConfig from application config.
func RunnerConfigFromOrchestration(cfg config.OrchestrationConfig, lanes []domain.Lane) RunnerConfig {
	return RunnerConfig{
		Lanes:          lanes,
		WorkersPerLane: cfg.WorkersPerLane,
		RetryAttempts:  cfg.WorkerRetryAttempts,
		RetryDelay:     cfg.EnqueueBackoff,
	}
}

// Runner manages one worker pool per lane.
type Runner struct {
	queue      store.JobQueue
	handlers   map[domain.Lane]Handler
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(job *domain.Job, err error)

	mu      sync.Mutex
	pools   []*WorkerPool
	started bool
}

// NewRunner creates a Runner. Each handler must claim a distinct lane.
func NewRunner(queue store.JobQueue, config RunnerConfig, logger *slog.Logger, handlers ...Handler) (*Runner, error) {
	if queue == nil {
		return nil, fmt.Errorf("job queue cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	byLane := make(map[domain.Lane]Handler, len(handlers))
	for _, h := range handlers {
		lane := h.Lane()
		if !lane.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidLane, lane)
		}
		if _, dup := byLane[lane]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateHandler, lane)
		}
		byLane[lane] = h
	}

	return &Runner{
		queue:    queue,
		handlers: byLane,
		config:   config,
		logger:   logger.With("component", "lane_runner"),
	}, nil
}

// SetErrorHandler allows setting a callback for failed jobs.
func (r *Runner) SetErrorHandler(handler func(job *domain.Job, err error)) {
	r.errHandler = handler
}

// Lanes returns the lanes the runner will consume.
func (r *Runner) Lanes() []domain.Lane {
	if len(r.config.Lanes) > 0 {
		return r.config.Lanes
	}
	var lanes []domain.Lane
	for _, lane := range domain.AllLanes() {
		if _, ok := r.handlers[lane]; ok {
			lanes = append(lanes, lane)
		}
	}
	return lanes
}

// Start launches a worker pool for every configured lane. It fails without
// starting anything when a lane has no handler.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("runner already started")
	}

	lanes := r.Lanes()
	if len(lanes) == 0 {
		return fmt.Errorf("%w: no lanes configured", ErrNoHandler)
	}
	for _, lane := range lanes {
		if _, ok := r.handlers[lane]; !ok {
			return fmt.Errorf("%w: %s", ErrNoHandler, lane)
		}
	}

	poolConfig := WorkerPoolConfig{
		WorkerCount:   r.config.WorkersPerLane,
		RetryAttempts: r.config.RetryAttempts,
		RetryDelay:    r.config.RetryDelay,
	}
	for _, lane := range lanes {
		pool := NewWorkerPool(r.queue, r.handlers[lane], poolConfig, r.logger)
		if r.errHandler != nil {
			pool.SetErrorHandler(r.errHandler)
		}
		pool.Start()
		r.pools = append(r.pools, pool)
	}

	r.started = true
	r.logger.Info("lane runner started", "lanes", lanes, "workers_per_lane", r.config.WorkersPerLane)
	return nil
}

// Stop stops every pool and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var wg sync.WaitGroup
	for _, pool := range r.pools {
		wg.Add(1)
		go func(p *WorkerPool) {
			defer wg.Done()
			p.Stop()
		}(pool)
	}
	wg.Wait()

	r.pools = nil
	r.started = false
	r.logger.Info("lane runner stopped")
}
