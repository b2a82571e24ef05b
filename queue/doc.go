// Package queue implements the lazy multi-source FIFO queue that feeds the
// batch engine.
//
// A Queue holds an ordered list of entries. An entry is a single item, a
// slice of items (stored by reference, never copied) or an Iterator that
// produces items on demand. Next drains the entries left to right, and
// within an entry in iteration order. Drained entries are dropped, so pulling
// is destructive.
//
// Push, PushSlice, PushIterator, PushFront and Clear may be called from any
// goroutine. Next must only ever be called by one consumer at a time.
//
//	q := queue.New[int]()
//	q.Push(1, 2)
//	q.PushSlice([]int{3, 4})
//	q.PushIterator(source.NewSeq(slices.Values([]int{5, 6})))
//
//	for {
//		v, ok, err := q.Next(ctx)
//		if err != nil {
//			continue // a producer failed; its entry was dropped
//		}
//		if !ok {
//			break // empty
//		}
//		fmt.Println(v)
//	}
package queue
