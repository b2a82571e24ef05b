// Package batch contains the asynchronous batch processing engine.
// The main type is Batch, which can be created using New. It pulls items
// from a lazy queue and runs an Action for each of them on its own
// goroutine, with at most MaxConcurrency actions in flight at once.
//
// Items may be added at any time: one by one with Add, as a slice with
// AddMany, or as an open-ended producer with AddIterator. Producers for
// common cases are provided in the source package.
//
// The drive loop moves through a few gates for every item:
//
//   - Pause gate: nothing is dispatched while the Batch is paused. The
//     paused event is emitted once per pause and started once per resume.
//   - Data gate: when the queue is empty the loop waits for new data and
//     emits waitingForData once nothing is in flight.
//   - Budget: an optional cap on dispatches per window.
//   - Dispatch: the filter, the processingStart event, rate limit admission
//     and the action itself run on the item's goroutine.
//   - Back-pressure: the loop waits while MaxConcurrency items are in flight.
//
// processingStart events are emitted in dispatch order even though filters
// and actions run concurrently. Completions may be out of order.
//
// Action failures never stop the Batch. They are reported through the
// processingError and processingEnd events only. A Batch stops for good
// only when it is destructed, either explicitly with Destruct, by
// cancelling the context passed to Go, or automatically when its queue
// first drains.
//
// For one-shot usage, Run processes a slice and returns a Summary:
//
//	sum, err := batch.Run(ctx, items, action, nil)
package batch
