package queue

import (
	"context"
	"fmt"
	"sync"
)

// Iterator produces the items of one open-ended entry. Next returns the next
// item and true, or false once the iterator is exhausted. A non-nil error
// ends the entry.
//
// Next may block; the queue never holds its lock while calling it.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
}

// stopper is implemented by iterators that hold resources (goroutines,
// channels) that must be released when the queue stops pulling from them.
type stopper interface {
	Stop()
}

// SourceError is returned by Next when an Iterator entry fails.
type SourceError struct {
	Err error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("source error: %v", e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

type entryKind int

const (
	entrySingle entryKind = iota
	entrySlice
	entryIterator
)

type entry[T any] struct {
	kind   entryKind
	single T
	slice  []T
	pos    int
	it     Iterator[T]
}

func (e *entry[T]) stop() {
	if e.kind != entryIterator {
		return
	}
	if s, ok := e.it.(stopper); ok {
		s.Stop()
	}
}

// Queue is a lazy FIFO over pushed entries. The zero value is ready to use.
type Queue[T any] struct {
	mu      sync.Mutex
	entries []*entry[T]

	// cursor is the entry currently being drained. It is removed from
	// entries when pulling starts on it.
	cursor *entry[T]

	// pulling is set while Next calls an Iterator outside the lock.
	pulling bool

	// generation is bumped by Clear so an in-progress iterator pull can tell
	// that its entry was discarded.
	generation uint64
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push appends one single-item entry per item.
func (q *Queue[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, item := range items {
		q.entries = append(q.entries, &entry[T]{kind: entrySingle, single: item})
	}
}

// PushFront inserts item ahead of every pending entry, including the one
// currently being drained.
func (q *Queue[T]) PushFront(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := &entry[T]{kind: entrySingle, single: item}
	if q.cursor != nil {
		q.entries = append([]*entry[T]{q.cursor}, q.entries...)
		q.cursor = nil
	}
	q.entries = append([]*entry[T]{e}, q.entries...)
}

// PushSlice appends items as one entry. The slice is not copied.
func (q *Queue[T]) PushSlice(items []T) {
	if len(items) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(q.entries, &entry[T]{kind: entrySlice, slice: items})
}

// PushIterator appends it as one entry. Nothing is pulled from it until the
// queue reaches it.
func (q *Queue[T]) PushIterator(it Iterator[T]) {
	if it == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = append(q.entries, &entry[T]{kind: entryIterator, it: it})
}

// Next returns the next item in FIFO order. It returns false when every entry
// has been drained; a later call starts over on entries pushed since.
//
// If an Iterator entry fails, that entry is dropped and Next returns a
// SourceError. An error never means the queue is empty; call Next again.
func (q *Queue[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	q.mu.Lock()
	if q.pulling {
		q.mu.Unlock()
		panic("queue: concurrent calls to Next are not allowed")
	}

	for {
		if q.cursor == nil {
			if len(q.entries) == 0 {
				q.mu.Unlock()
				return zero, false, nil
			}
			q.cursor = q.entries[0]
			q.entries[0] = nil
			q.entries = q.entries[1:]
		}

		cur := q.cursor
		switch cur.kind {
		case entrySingle:
			q.cursor = nil
			q.mu.Unlock()
			return cur.single, true, nil

		case entrySlice:
			if cur.pos < len(cur.slice) {
				v := cur.slice[cur.pos]
				cur.pos++
				if cur.pos == len(cur.slice) {
					q.cursor = nil
				}
				q.mu.Unlock()
				return v, true, nil
			}
			q.cursor = nil

		case entryIterator:
			gen := q.generation
			q.pulling = true
			q.mu.Unlock()

			v, ok, err := cur.it.Next(ctx)

			q.mu.Lock()
			q.pulling = false
			if gen != q.generation {
				// Cleared while pulling: the entry is gone, and so is
				// whatever it just produced.
				cur.stop()
				continue
			}
			if err != nil {
				q.cursor = nil
				q.mu.Unlock()
				cur.stop()
				return zero, false, &SourceError{Err: err}
			}
			if ok {
				q.mu.Unlock()
				return v, true, nil
			}
			q.cursor = nil
			cur.stop()

		default:
			q.mu.Unlock()
			panic(fmt.Sprintf("queue: unknown entry kind %d", cur.kind))
		}
	}
}

// Empty reports whether there is nothing left to pull. An Iterator entry
// counts as non-empty until it has reported exhaustion.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor == nil && len(q.entries) == 0
}

// Len returns the number of entries not yet fully drained, including the one
// being drained.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if q.cursor != nil {
		n++
	}
	return n
}

// Clear drops every pending entry and resets the cursor. Items already
// returned by Next are unaffected.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	dropped := q.entries
	q.entries = nil
	if q.cursor != nil && !q.pulling {
		dropped = append(dropped, q.cursor)
	}
	q.cursor = nil
	q.generation++
	q.mu.Unlock()

	for _, e := range dropped {
		e.stop()
	}
}
