package store

import (
	"context"
	"time"

	"github.com/phrazzld/mockview-api/internal/domain"
)

// ResultCache is a keyed, TTL-bounded store of finished artifacts. Presence
// of a non-expired entry is the single source of truth for "artifact ready".
type ResultCache interface {
	// Put stores payload under key, overwriting any existing value and
	// resetting its TTL.
	Put(ctx context.Context, key domain.ResourceKey, payload []byte, ttl time.Duration) error

	// Get returns the payload and true when present. It never waits.
	// Connectivity failures return ErrStoreUnavailable.
	Get(ctx context.Context, key domain.ResourceKey) ([]byte, bool, error)
}

// LockManager is a short-lived, ownership-checked mutual exclusion
// primitive keyed by resource identity.
type LockManager interface {
	// TryAcquire returns a fresh token when the lock was free. It never
	// blocks waiting for the lock: a held lock returns ErrLockUnavailable
	// and an unreachable store returns ErrStoreUnavailable. No token is
	// ever granted when the store cannot be reached.
	TryAcquire(ctx context.Context, key domain.ResourceKey, ttl time.Duration) (string, error)

	// Release deletes the lock only if the stored token equals token and
	// reports whether it did. A mismatched token is a no-op.
	Release(ctx context.Context, key domain.ResourceKey, token string) (bool, error)
}

// ProgressTracker holds the incremental status of multi-step jobs.
type ProgressTracker interface {
	// Set records the progress of the job owning key. Within one execution
	// the stored fraction never decreases. Setting processing on a key whose
	// record is terminal starts a new execution from the given fraction.
	Set(ctx context.Context, record domain.ProgressRecord, ttl time.Duration) error

	// Get returns the current record or ErrProgressNotFound.
	Get(ctx context.Context, key domain.ResourceKey) (*domain.ProgressRecord, error)
}

// JobQueue is a work queue with one named lane per artifact type.
type JobQueue interface {
	// Enqueue hands job to its lane for at-least-once delivery.
	Enqueue(ctx context.Context, job *domain.Job) error

	// Dequeue blocks until a job is available on lane or ctx is done.
	Dequeue(ctx context.Context, lane domain.Lane) (*domain.Job, error)
}
