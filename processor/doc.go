// Package processor contains building blocks for batch actions and filters,
// including:
//
// - Transform and Chain: For adapting plain functions and composing actions
// - Timeout: For bounding the duration of each action call
// - Throttle: For sharing a token bucket rate limit between actions
// - Logging and Instrument: For wrapping an action with logs or statistics
// - Recover: For turning panics into errors outside a Batch
// - Channel: For forwarding results to an output channel
// - Error and Nil: Mock actions that fail or sleep
// - Predicate, Not, All and Any: For composing filters
// - ResultCollector: For collecting the outcome of every item of a Batch
//
// Each wrapper respects context cancellation and returns a plain
// batch.Action or batch.Filter, so they compose freely.
//
// Basic usage of Transform and Timeout:
//
//	action := processor.Timeout(processor.Transform(strings.ToUpper), time.Second)
//	b := batch.New(action, nil)
package processor
