package redisstore

import (
	"context"
	"errors"

	"github.com/phrazzld/mockview-api/internal/store"
)

// mapError wraps a Redis failure. Cancellation is passed through unchanged;
// everything else means the shared store could not serve the request.
// Callers must handle redis.Nil before calling mapError.
func mapError(entity, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return store.NewStoreError(entity, op, err.Error(), store.ErrStoreUnavailable)
}
