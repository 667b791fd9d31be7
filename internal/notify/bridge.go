package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/mockview-api/internal/config"
	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/events"
	"github.com/phrazzld/mockview-api/internal/platform/logger"
	"github.com/phrazzld/mockview-api/internal/store"
)

// ErrTimeout is reported when an artifact does not become ready in time.
var ErrTimeout = errors.New("timed out waiting for result")

// Mode selects what a subscription watches.
type Mode int

const (
	// ModeCache waits for the artifact to appear in the result cache.
	ModeCache Mode = iota
	// ModeProgress follows the progress record until it is terminal and
	// forwards every change on the way.
	ModeProgress
)

func (m Mode) String() string {
	if m == ModeProgress {
		return "progress"
	}
	return "cache"
}

// Subscription describes one watch.
type Subscription struct {
	Key  domain.ResourceKey
	Mode Mode

	// QuestionID is echoed on events for legacy clients.
	QuestionID string

	// Timeout overrides the bridge default when positive.
	Timeout time.Duration
}

// Config holds the polling interval and the default subscriber budget.
type Config struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

// ConfigFromServer derives a bridge Config from server config.
func ConfigFromServer(cfg config.ServerConfig) Config {
	return Config{PollInterval: cfg.PollInterval, Timeout: cfg.RequestTimeout}
}

// Bridge watches the cache and progress tracker for subscribers.
type Bridge struct {
	cache    store.ResultCache
	progress store.ProgressTracker
	config   Config
	logger   *slog.Logger
}

// NewBridge creates a Bridge.
func NewBridge(cache store.ResultCache, progress store.ProgressTracker, cfg Config, log *slog.Logger) *Bridge {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		cache:    cache,
		progress: progress,
		config:   cfg,
		logger:   log.With("component", "notification_bridge"),
	}
}

// Watch polls until the subscription reaches a terminal state and emits
// exactly one ready or error event for it. It returns nil after the
// terminal event was delivered. When ctx is cancelled it stops at once,
// emits nothing further and returns the context error. In progress mode
// the timeout restarts whenever the record changes, so it bounds how long
// a job may stall rather than how long it may run.
func (b *Bridge) Watch(ctx context.Context, sub Subscription, emitter events.Emitter) error {
	timeout := sub.Timeout
	if timeout <= 0 {
		timeout = b.config.Timeout
	}
	log := logger.FromContextOrDefault(ctx, b.logger).With("key", sub.Key.String(), "mode", sub.Mode.String())

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	w := &watch{bridge: b, sub: sub, emitter: emitter}
	for {
		done, err := w.poll(ctx)
		if done || err != nil {
			return err
		}
		if w.advanced {
			w.advanced = false
			timer.Reset(timeout)
		}

		select {
		case <-ctx.Done():
			log.DebugContext(ctx, "subscriber gone, stopping watch")
			return ctx.Err()
		case <-timer.C:
			log.WarnContext(ctx, "watch timed out", "timeout", timeout)
			return w.emit(ctx, events.Failed(sub.Key, fmt.Sprintf("%s after %s", ErrTimeout, timeout)))
		case <-ticker.C:
		}
	}
}

// watch carries the per-subscription state of one polling loop.
type watch struct {
	bridge  *Bridge
	sub     Subscription
	emitter events.Emitter
	last    *domain.ProgressRecord

	// advanced is set when the last poll saw a changed progress record.
	advanced bool
}

// poll checks once. done is true after a terminal event was emitted.
func (w *watch) poll(ctx context.Context) (done bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if w.sub.Mode == ModeProgress {
		return w.pollProgress(ctx)
	}
	return w.pollCache(ctx)
}

func (w *watch) pollCache(ctx context.Context) (bool, error) {
	_, ok, err := w.bridge.cache.Get(ctx, w.sub.Key)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, w.emit(ctx, events.Failed(w.sub.Key, "result store unavailable"))
	case ok:
		return true, w.emit(ctx, events.Ready(w.sub.Key))
	}
	return false, nil
}

func (w *watch) pollProgress(ctx context.Context) (bool, error) {
	record, err := w.bridge.progress.Get(ctx, w.sub.Key)
	switch {
	case errors.Is(err, store.ErrProgressNotFound):
		return false, nil
	case err != nil:
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, w.emit(ctx, events.Failed(w.sub.Key, "progress store unavailable"))
	}

	if w.last != nil && w.last.Status == record.Status && w.last.Fraction == record.Fraction {
		return false, nil
	}
	w.last = record
	w.advanced = true

	event := events.FromProgress(*record)
	return event.Terminal(), w.emit(ctx, event)
}

func (w *watch) emit(ctx context.Context, event events.Event) error {
	event.QuestionID = w.sub.QuestionID
	return w.emitter.Emit(ctx, event)
}
