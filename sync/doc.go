// Package sync provides a synchronous, blocking API built on top of the
// asyncbatch engine. Each Call queues one item and blocks until the engine
// has processed it, so callers get the engine's concurrency ceiling and
// rate limiting without dealing with events.
//
// Basic usage:
//
//	// Define the action that handles one item
//	fetch := func(ctx context.Context, url string) ([]byte, error) {
//		return httpGet(ctx, url)
//	}
//
//	// Create a caller that allows 4 concurrent fetches and 10 per second
//	caller := sync.NewCaller(fetch, &batch.Options{
//		MaxConcurrency: 4,
//		RateLimit:      &batch.RateLimit{MaxExecutions: 10, Window: time.Second},
//	})
//	defer caller.Close()
//
//	// Make synchronous calls that are throttled behind the scenes
//	body, err := caller.Call(ctx, "https://example.com")
//
// The sync package handles:
//   - Per-request context cancellation
//   - Request queuing in call order
//   - Error propagation from the action to its caller
//   - Graceful shutdown
package sync
