package processor

import (
	"context"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Predicate adapts a plain predicate to a batch.Filter. Return true to keep
// the item.
func Predicate[T any](fn func(T) bool) batch.Filter[T] {
	return func(_ context.Context, item T) (bool, error) {
		return fn(item), nil
	}
}

// Not inverts filter. An error from filter is passed through, so the item
// is still rejected.
func Not[T any](filter batch.Filter[T]) batch.Filter[T] {
	return func(ctx context.Context, item T) (bool, error) {
		keep, err := filter(ctx, item)
		if err != nil {
			return false, err
		}
		return !keep, nil
	}
}

// All keeps an item only if every filter keeps it. Filters are called in
// order and evaluation stops at the first rejection or error. All with no
// filters keeps every item.
func All[T any](filters ...batch.Filter[T]) batch.Filter[T] {
	return func(ctx context.Context, item T) (bool, error) {
		for _, f := range filters {
			keep, err := f(ctx, item)
			if err != nil || !keep {
				return false, err
			}
		}
		return true, nil
	}
}

// Any keeps an item if at least one filter keeps it. Filters are called in
// order and evaluation stops at the first acceptance or error. Any with no
// filters rejects every item.
func Any[T any](filters ...batch.Filter[T]) batch.Filter[T] {
	return func(ctx context.Context, item T) (bool, error) {
		for _, f := range filters {
			keep, err := f(ctx, item)
			if err != nil {
				return false, err
			}
			if keep {
				return true, nil
			}
		}
		return false, nil
	}
}
