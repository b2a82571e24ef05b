package source

import (
	"context"
	"time"
)

// Nil is an iterator that doesn't produce any data. Instead it reports
// exhaustion after the specified duration. It can be used as a mock
// producer.
type Nil[T any] struct {
	Duration time.Duration
}

// Next implements the queue.Iterator interface.
func (s *Nil[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.Duration <= 0 {
		return zero, false, nil
	}

	timer := time.NewTimer(s.Duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case <-timer.C:
		return zero, false, nil
	}
}
