package processor

import (
	"context"
	"runtime/debug"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Recover returns an action that turns a panic in action into a
// *batch.PanicError. A Batch already does this for the actions it calls;
// Recover is for actions that are also called elsewhere.
func Recover[T, R any](action batch.Action[T, R]) batch.Action[T, R] {
	return func(ctx context.Context, item T) (res R, err error) {
		defer func() {
			if p := recover(); p != nil {
				var zero R
				res, err = zero, &batch.PanicError{Value: p, Stack: debug.Stack()}
			}
		}()
		return action(ctx, item)
	}
}
