package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Logging wraps an action and logs every call with its duration and error.
// If logger is nil, action is returned unchanged. If name is empty, the
// action's type is used.
//
// Example:
//
//	logger := batch.NewSlogLogger(slog.Default())
//	action := processor.Logging(fetch, logger, "fetch")
func Logging[T, R any](action batch.Action[T, R], logger batch.Logger, name string) batch.Action[T, R] {
	if logger == nil {
		return action
	}
	if name == "" {
		name = fmt.Sprintf("%T", action)
	}

	return func(ctx context.Context, item T) (R, error) {
		startTime := time.Now()
		logger.Debug("Action '%s' starting on %v", name, item)

		res, err := action(ctx, item)

		duration := time.Since(startTime)
		if err != nil {
			logger.Error("Action '%s' failed after %v on %v: %v", name, duration, item, err)
		} else {
			logger.Debug("Action '%s' completed in %v", name, duration)
		}
		return res, err
	}
}
