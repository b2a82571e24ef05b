package batch

import (
	"context"
	"sync"
)

// Summary counts how the items of a Run ended.
type Summary struct {
	// Processed is the number of items that reached processingEnd.
	Processed int
	Succeeded int
	Failed    int
	// Skipped counts items rejected by the filter or prevented.
	Skipped int
}

// Run processes items with action and blocks until every item has ended or
// ctx is done. The Batch is started immediately and destructs itself once
// the items are drained, so AutoStart and DisableAutoDestruct in opts are
// ignored.
//
// The returned error is ctx.Err() if ctx ended first; item failures are
// only reflected in the Summary.
//
// Example:
//
//	sum, err := batch.Run(ctx, urls, fetch, &batch.Options{MaxConcurrency: 8})
func Run[T, R any](ctx context.Context, items []T, action Action[T, R], opts *Options) (Summary, error) {
	o := opts.WithDefaults()
	o.AutoStart = true
	o.DisableAutoDestruct = false

	b := New(action, o)

	var (
		mu  sync.Mutex
		sum Summary
	)
	b.Events().OnProcessingEnd(func(e *ProcessingEndEvent[T, R]) {
		mu.Lock()
		defer mu.Unlock()

		sum.Processed++
		switch e.Outcome {
		case Succeeded:
			sum.Succeeded++
		case Failed:
			sum.Failed++
		default:
			sum.Skipped++
		}
	})

	// Items must be queued before Go, otherwise the first drain would
	// destruct the Batch right away.
	if err := b.AddMany(items); err != nil {
		return Summary{}, err
	}

	<-b.Go(ctx)

	mu.Lock()
	defer mu.Unlock()
	return sum, ctx.Err()
}
