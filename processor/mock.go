package processor

import (
	"context"
	"time"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Error returns an action that fails every item with err. It can be used
// as a mock action.
func Error[T, R any](err error) batch.Action[T, R] {
	return func(context.Context, T) (R, error) {
		var zero R
		return zero, err
	}
}

// Nil returns an action that discards every item after duration. It can be
// used as a mock action for testing timing behavior.
func Nil[T, R any](duration time.Duration) batch.Action[T, R] {
	return func(ctx context.Context, _ T) (R, error) {
		var zero R
		if duration <= 0 {
			return zero, nil
		}

		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
			return zero, nil
		}
	}
}
