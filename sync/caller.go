package sync

import (
	"context"
	"errors"
	"sync"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// Caller provides synchronous calls that are queued and throttled by a
// batch engine behind the scenes.
type Caller[T, R any] struct {
	batch  *batch.Batch[*request[T, R], R]
	cancel context.CancelFunc
	closed bool
	mu     sync.Mutex
}

// NewCaller creates a Caller that runs action for every call. opts
// configures the engine; AutoStart and DisableAutoDestruct are overridden
// since the engine must live until Close. NewCaller panics on invalid
// options like batch.New.
func NewCaller[T, R any](action batch.Action[T, R], opts *batch.Options) *Caller[T, R] {
	if action == nil {
		panic("sync: nil action")
	}

	o := opts.WithDefaults()
	o.AutoStart = true
	o.DisableAutoDestruct = true

	ctx, cancel := context.WithCancel(context.Background())

	b := batch.New(func(engineCtx context.Context, req *request[T, R]) (R, error) {
		// The action sees the caller's context, cut short if the engine
		// itself is cancelled.
		callCtx, stop := context.WithCancel(req.ctx)
		defer stop()
		defer context.AfterFunc(engineCtx, stop)()

		return action(callCtx, req.item)
	}, o)

	// Requests whose caller gave up are not worth running.
	b.SetFilter(func(_ context.Context, req *request[T, R]) (bool, error) {
		return req.ctx.Err() == nil, nil
	})

	b.Events().OnProcessingEnd(func(e *batch.ProcessingEndEvent[*request[T, R], R]) {
		req := e.Item
		switch e.Outcome {
		case batch.Succeeded:
			req.sendResponse(e.Result, nil)
		case batch.Failed:
			var actionErr *batch.ActionError
			if errors.As(e.Err, &actionErr) {
				req.sendError(actionErr.Err)
				return
			}
			req.sendError(e.Err)
		case batch.Skipped:
			if err := req.ctx.Err(); err != nil {
				req.sendError(err)
				return
			}
			req.sendError(ErrNotProcessed)
		default:
			req.sendError(ErrNotProcessed)
		}
	})

	b.Go(ctx)

	return &Caller[T, R]{
		batch:  b,
		cancel: cancel,
	}
}

// Call runs the action for item and returns its result. It blocks until
// the engine has processed the item or ctx is done. Concurrent calls are
// processed in the order they were queued, within the engine's
// concurrency ceiling and rate limit.
func (c *Caller[T, R]) Call(ctx context.Context, item T) (R, error) {
	var zero R

	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	req := newRequest[T, R](ctx, item)

	// Send request
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClosed
	}
	err := c.batch.Add(req)
	c.mu.Unlock()
	if err != nil {
		return zero, ErrClosed
	}

	// Wait for response
	select {
	case resp := <-req.response:
		return resp.value, resp.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Pending returns the number of queued calls that have not started yet.
func (c *Caller[T, R]) Pending() int {
	return c.batch.Pending()
}

// Close gracefully shuts down the Caller. It waits for queued and running
// calls to complete, then destructs the engine. Calls made after Close
// return ErrClosed.
func (c *Caller[T, R]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	// Wait until the queue is drained and nothing is in flight. Subscribe
	// before checking so the last waitingForData cannot be missed.
	for {
		drained := c.batch.Events().NextWaitingForData()
		if c.batch.IsWaitingForData() && c.batch.CurrentConcurrency() == 0 {
			break
		}
		select {
		case <-drained:
			continue
		case <-c.batch.Done():
		}
		break
	}

	c.batch.Destruct()
	c.cancel()
	<-c.batch.Done()
}
