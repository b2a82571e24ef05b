package processor

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Throttle delays each call of action until limiter allows it. Unlike the
// engine's sliding-window RateLimit, which admits every action of a Batch,
// a token bucket can be shared by several batches or applied to one stage
// of a Chain. If limiter is nil, action is returned unchanged.
//
// Example:
//
//	// At most 5 calls per second with bursts of 2, across both batches
//	limiter := rate.NewLimiter(5, 2)
//	a := batch.New(processor.Throttle(fetch, limiter), nil)
//	b := batch.New(processor.Throttle(fetch, limiter), nil)
func Throttle[T, R any](action batch.Action[T, R], limiter *rate.Limiter) batch.Action[T, R] {
	if limiter == nil {
		return action
	}

	return func(ctx context.Context, item T) (R, error) {
		if err := limiter.Wait(ctx); err != nil {
			var zero R
			return zero, err
		}
		return action(ctx, item)
	}
}
