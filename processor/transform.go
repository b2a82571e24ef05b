package processor

import (
	"context"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Transform adapts a plain function that cannot fail to a batch.Action.
func Transform[T, R any](fn func(T) R) batch.Action[T, R] {
	return func(_ context.Context, item T) (R, error) {
		return fn(item), nil
	}
}

// TransformErr adapts a plain fallible function to a batch.Action.
func TransformErr[T, R any](fn func(T) (R, error)) batch.Action[T, R] {
	return func(_ context.Context, item T) (R, error) {
		return fn(item)
	}
}

// Chain returns an action that feeds the result of first into second. If
// first fails, second is not called.
func Chain[T, M, R any](first batch.Action[T, M], second batch.Action[M, R]) batch.Action[T, R] {
	return func(ctx context.Context, item T) (R, error) {
		mid, err := first(ctx, item)
		if err != nil {
			var zero R
			return zero, err
		}
		return second(ctx, mid)
	}
}
