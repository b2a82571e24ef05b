package source

import "context"

// Slice yields the elements of Items in order. Items is read lazily and is
// not copied, so elements changed before they are reached are seen changed.
type Slice[T any] struct {
	Items []T
	pos   int
}

// NewSlice returns a Slice over items.
func NewSlice[T any](items []T) *Slice[T] {
	return &Slice[T]{Items: items}
}

// Next implements the queue.Iterator interface.
func (s *Slice[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if s.pos >= len(s.Items) {
		return zero, false, nil
	}
	v := s.Items[s.pos]
	s.pos++
	return v, true, nil
}
