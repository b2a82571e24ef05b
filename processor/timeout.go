package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// TimeoutError is returned by a Timeout action that ran out of time.
type TimeoutError struct {
	After time.Duration
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("action timed out after %v", e.After)
}

// Unwrap returns context.DeadlineExceeded.
func (e TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// Timeout bounds each call of action to d. The action's context is
// cancelled after d, and Timeout returns a *TimeoutError without waiting
// for an action that ignores its context; such an action keeps running in
// the background until it returns. A non-positive d disables the bound.
func Timeout[T, R any](action batch.Action[T, R], d time.Duration) batch.Action[T, R] {
	if d <= 0 {
		return action
	}

	type result struct {
		value R
		err   error
	}

	return func(ctx context.Context, item T) (R, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		done := make(chan result, 1)
		go func() {
			var r result
			defer func() {
				if p := recover(); p != nil {
					r.err = &batch.PanicError{Value: p}
				}
				done <- r
			}()
			r.value, r.err = action(ctx, item)
		}()

		select {
		case r := <-done:
			if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return r.value, &TimeoutError{After: d}
			}
			return r.value, r.err
		case <-ctx.Done():
			var zero R
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return zero, &TimeoutError{After: d}
			}
			return zero, ctx.Err()
		}
	}
}
