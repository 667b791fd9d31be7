package task

import (
	"context"
	"errors"

	"github.com/phrazzld/mockview-api/internal/domain"
	"github.com/phrazzld/mockview-api/internal/generation"
	"github.com/phrazzld/mockview-api/internal/store"
)

// Errors returned by the runner.
var (
	// ErrNoHandler is returned when a lane is started without a handler.
	ErrNoHandler = errors.New("no handler registered for lane")

	// ErrDuplicateHandler is returned when two handlers claim the same lane.
	ErrDuplicateHandler = errors.New("duplicate handler for lane")

	// ErrJobPanicked wraps a value recovered from a panicking handler.
	ErrJobPanicked = errors.New("job handler panicked")

	// ErrForeignPath is returned for a job whose input names a file outside
	// the upload directory. Such files are never read or removed.
	ErrForeignPath = errors.New("file is outside the upload directory")
)

// UploadArea is the directory uploaded files wait in until a handler
// consumes them.
type UploadArea interface {
	Contains(path string) bool
	Remove(path string)
}

// Handler executes the jobs of one lane.
type Handler interface {
	// Lane returns the lane this handler consumes.
	Lane() domain.Lane

	// Handle executes job. The context is not tied to any request and is
	// only cancelled by the handler itself.
	Handle(ctx context.Context, job *domain.Job) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc struct {
	LaneName domain.Lane
	Fn       func(ctx context.Context, job *domain.Job) error
}

// Lane implements Handler.
func (h HandlerFunc) Lane() domain.Lane { return h.LaneName }

// Handle implements Handler.
func (h HandlerFunc) Handle(ctx context.Context, job *domain.Job) error { return h.Fn(ctx, job) }

// IsRetryable reports whether a failed job may succeed when run again.
// Validation exhaustion and blocked content are final.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, generation.ErrValidationExhausted),
		errors.Is(err, generation.ErrContentBlocked),
		errors.Is(err, generation.ErrInvalidConfig):
		return false
	case errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrProducerFailure),
		store.IsUnavailableError(err):
		return true
	}
	return false
}
