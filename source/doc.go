// Package source contains implementations of the queue.Iterator interface
// for common producer scenarios, including:
//
// - Slice: For draining an in-memory slice lazily
// - Channel: For using existing channels as item producers
// - Seq and Seq2: For adapting range-over-func iterators
// - Func: For adapting a plain function
// - Error: For simulating error-only producers without data
// - Nil: For testing timing behavior without producing data
//
// Each iterator honors context cancellation while blocked, and iterators that
// own goroutines implement Stop so the queue can release them when their
// entry is drained or cleared.
//
// Basic usage of the Channel source with a batch engine:
//
//	input := make(chan string, 2)
//	input <- "a"
//	input <- "b"
//	close(input)
//
//	b.AddIterator(source.NewChannelUnchecked(input))
package source
