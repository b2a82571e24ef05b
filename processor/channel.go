package processor

import (
	"context"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Channel wraps an action and sends each successful result to output
// before returning it. The send blocks until output is ready or ctx is
// done, so it occupies one concurrency slot of the Batch meanwhile.
//
// Ownership of the output channel remains with the caller. Because the
// action is unaware of when the Batch has finished, it does not close the
// channel; close it after Batch.Done is closed.
func Channel[T, R any](action batch.Action[T, R], output chan<- R) batch.Action[T, R] {
	if output == nil {
		return action
	}

	return func(ctx context.Context, item T) (R, error) {
		res, err := action(ctx, item)
		if err != nil {
			return res, err
		}

		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case output <- res:
			return res, nil
		}
	}
}
