package source

import "context"

// Func adapts an ordinary function to the queue.Iterator interface.
type Func[T any] func(ctx context.Context) (T, bool, error)

// Next implements the queue.Iterator interface by calling f.
func (f Func[T]) Next(ctx context.Context) (T, bool, error) {
	return f(ctx)
}
