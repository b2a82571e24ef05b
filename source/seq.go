package source

import (
	"context"
	"iter"
)

// Seq adapts a range-over-func iterator. The sequence is pulled one element
// at a time with iter.Pull, so it only advances when the queue asks for the
// next item.
type Seq[T any] struct {
	next func() (T, bool)
	stop func()
}

// NewSeq returns an iterator over seq. Call Stop if the iterator is
// abandoned before it is exhausted; the queue does this automatically.
func NewSeq[T any](seq iter.Seq[T]) *Seq[T] {
	next, stop := iter.Pull(seq)
	return &Seq[T]{next: next, stop: stop}
}

// Next implements the queue.Iterator interface. ctx is checked before the
// sequence is advanced.
func (s *Seq[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	v, ok := s.next()
	return v, ok, nil
}

// Stop releases the sequence.
func (s *Seq[T]) Stop() {
	s.stop()
}

// Seq2 adapts a range-over-func iterator of (item, error) pairs. The first
// non-nil error ends the iterator.
type Seq2[T any] struct {
	next func() (T, error, bool)
	stop func()
}

// NewSeq2 returns an iterator over seq.
func NewSeq2[T any](seq iter.Seq2[T, error]) *Seq2[T] {
	next, stop := iter.Pull2(seq)
	return &Seq2[T]{next: next, stop: stop}
}

// Next implements the queue.Iterator interface.
func (s *Seq2[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	v, err, ok := s.next()
	if !ok {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Stop releases the sequence.
func (s *Seq2[T]) Stop() {
	s.stop()
}
