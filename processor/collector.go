package processor

import (
	"sync"

	"github.com/MasterOfBinary/asyncbatch/batch"
	"github.com/MasterOfBinary/asyncbatch/event"
)

// Result is the outcome of one item, as reported by processingEnd.
type Result[T, R any] struct {
	Seq     uint64
	Item    T
	Value   R
	Err     error
	Outcome batch.Outcome
}

// ResultCollector collects the outcome of every item processed by the
// batches it is attached to.
//
// By default only items whose action succeeded are collected. Set
// CollectErrors to also keep failed items. Skipped and prevented items are
// never collected.
//
// ResultCollector is safe for concurrent use: it can be attached to several
// batches, and Results can be called while they are running.
type ResultCollector[T, R any] struct {
	// Filter is an optional function to decide which results to collect.
	// Return true to keep a result.
	Filter func(Result[T, R]) bool

	// MaxItems limits the number of results to collect. Once reached,
	// further results are dropped. If 0 or negative, no limit is applied.
	MaxItems int

	// CollectErrors keeps failed items as well.
	CollectErrors bool

	mu      sync.RWMutex
	results []Result[T, R]
}

// Attach subscribes the collector to the processingEnd events of b. Call
// the returned function to detach it again. Attach before b.Go so that no
// item is missed.
func (c *ResultCollector[T, R]) Attach(b *batch.Batch[T, R]) event.Unsubscribe {
	return b.Events().OnProcessingEnd(func(e *batch.ProcessingEndEvent[T, R]) {
		c.Record(Result[T, R]{
			Seq:     e.Seq,
			Item:    e.Item,
			Value:   e.Result,
			Err:     e.Err,
			Outcome: e.Outcome,
		})
	})
}

// Record adds r to the collector if it passes the collector's settings.
// It reports whether r was kept.
func (c *ResultCollector[T, R]) Record(r Result[T, R]) bool {
	switch r.Outcome {
	case batch.Succeeded:
	case batch.Failed:
		if !c.CollectErrors {
			return false
		}
	default:
		return false
	}

	if c.Filter != nil && !c.Filter(r) {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MaxItems > 0 && len(c.results) >= c.MaxItems {
		return false
	}
	c.results = append(c.results, r)
	return true
}

// Results returns a copy of the collected results in the order they were
// recorded. If reset is true, the collector is cleared afterwards.
func (c *ResultCollector[T, R]) Results(reset bool) []Result[T, R] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Result[T, R], len(c.results))
	copy(out, c.results)

	if reset {
		c.results = nil
	}
	return out
}

// Values returns the action results of the collected successful items.
func (c *ResultCollector[T, R]) Values() []R {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]R, 0, len(c.results))
	for _, r := range c.results {
		if r.Outcome == batch.Succeeded {
			out = append(out, r.Value)
		}
	}
	return out
}

// Count returns the number of collected results.
func (c *ResultCollector[T, R]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.results)
}

// Reset clears all collected results.
func (c *ResultCollector[T, R]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = nil
}
