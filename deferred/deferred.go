// Package deferred provides a one-shot, externally settleable future.
//
// A Deferred is used purely as a wake-up primitive: one party blocks on it
// while another decides when (and whether successfully) it is settled. It is
// never reused; once settled the owner replaces it with a fresh instance for
// the next wait cycle.
//
//	d := deferred.New[struct{}]()
//	go func() {
//		// ...
//		d.Resolve(struct{}{})
//	}()
//	<-d.Done()
package deferred

import (
	"context"
	"sync"
)

// Deferred is a future that is settled from the outside, at most once.
// The zero value is not usable; create one with New.
type Deferred[T any] struct {
	once sync.Once
	done chan struct{}

	// value and err are written once, before done is closed.
	value T
	err   error
}

// New returns an unsettled Deferred.
func New[T any]() *Deferred[T] {
	return &Deferred[T]{
		done: make(chan struct{}),
	}
}

// NewFuncs returns an unsettled Deferred split into its three capabilities:
// the future to wait on, and the resolve and reject functions that settle it.
func NewFuncs[T any]() (future *Deferred[T], resolve func(T) bool, reject func(error) bool) {
	d := New[T]()
	return d, d.Resolve, d.Reject
}

// Resolve settles d with value. It returns false if d was already settled,
// in which case the call has no effect.
func (d *Deferred[T]) Resolve(value T) bool {
	return d.settle(value, nil)
}

// Reject settles d with err. It returns false if d was already settled,
// in which case the call has no effect.
func (d *Deferred[T]) Reject(err error) bool {
	var zero T
	return d.settle(zero, err)
}

func (d *Deferred[T]) settle(value T, err error) bool {
	settled := false
	d.once.Do(func() {
		d.value = value
		d.err = err
		close(d.done)
		settled = true
	})
	return settled
}

// Done returns a channel that is closed once d is settled.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Settled reports whether d has been resolved or rejected.
func (d *Deferred[T]) Settled() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Wait blocks until d is settled or ctx is done. It returns the settled value
// and error, or ctx.Err() if the context ended first.
func (d *Deferred[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
