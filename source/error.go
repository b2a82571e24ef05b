package source

import "context"

// Error is an iterator that produces no data. It reports the first non-nil
// error read from Errs, or exhaustion once Errs is closed. It is useful for
// testing how an engine reacts to failing producers.
type Error[T any] struct {
	// Errs is the channel from which this source will read errors.
	// The Error source will not close this channel.
	Errs <-chan error
}

// NewError returns an Error source that fails with err on its first pull.
func NewError[T any](err error) *Error[T] {
	errs := make(chan error, 1)
	errs <- err
	close(errs)
	return &Error[T]{Errs: errs}
}

// Next implements the queue.Iterator interface.
func (s *Error[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.Errs == nil {
		return zero, false, nil
	}

	for {
		select {
		case <-ctx.Done():
			return zero, false, ctx.Err()
		case err, ok := <-s.Errs:
			if !ok {
				return zero, false, nil
			}
			// Only forward non-nil errors
			if err != nil {
				return zero, false, err
			}
		}
	}
}
