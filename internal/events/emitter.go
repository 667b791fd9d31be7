package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrEmitterClosed is returned by Emit after Close.
var ErrEmitterClosed = errors.New("event emitter is closed")

// Emitter delivers events to one subscriber.
type Emitter interface {
	// Emit delivers event, blocking until it is accepted or ctx is done.
	Emit(ctx context.Context, event Event) error
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(ctx context.Context, event Event) error

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, event Event) error { return f(ctx, event) }

// ChannelEmitter queues events on a channel so that several producers can
// share one consumer, such as the single writer of a WebSocket connection.
type ChannelEmitter struct {
	events chan Event
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

var _ Emitter = (*ChannelEmitter)(nil)

// NewChannelEmitter creates an emitter buffering up to size events.
func NewChannelEmitter(size int, logger *slog.Logger) *ChannelEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChannelEmitter{
		events: make(chan Event, size),
		done:   make(chan struct{}),
		logger: logger.With("component", "channel_emitter"),
	}
}

// Emit implements Emitter.
func (e *ChannelEmitter) Emit(ctx context.Context, event Event) error {
	select {
	case <-e.done:
		return ErrEmitterClosed
	default:
	}

	select {
	case e.events <- event:
		e.logger.Debug("event queued", "event", event.Event, "key", event.Key)
		return nil
	case <-e.done:
		return ErrEmitterClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the channel consumers read from.
func (e *ChannelEmitter) Events() <-chan Event {
	return e.events
}

// Done is closed when the emitter is closed.
func (e *ChannelEmitter) Done() <-chan struct{} {
	return e.done
}

// Close stops accepting events. The events channel is left open so that
// a racing Emit can never panic.
func (e *ChannelEmitter) Close() {
	e.once.Do(func() { close(e.done) })
}
