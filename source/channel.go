package source

import (
	"context"
	"errors"
	"fmt"
)

// Channel is an iterator that reads items from Input until it is closed.
// If Errs is set, an error received on it ends the iterator with that error.
//
// The Channel source never closes Input or Errs; the producer owns them.
type Channel[T any] struct {
	// Input is the channel from which this source will read data.
	Input <-chan T

	// Errs is an optional channel of producer errors.
	Errs <-chan error
}

// ChannelConfig provides configuration options for creating a Channel source.
type ChannelConfig[T any] struct {
	// Input is the channel from which this source will read data.
	// This field is required.
	Input <-chan T

	// Errs is an optional channel of producer errors.
	Errs <-chan error
}

// Validate checks if the ChannelConfig is valid.
func (c ChannelConfig[T]) Validate() error {
	if c.Input == nil {
		return errors.New("input channel cannot be nil")
	}
	return nil
}

// NewChannel creates a new Channel source with the given configuration.
// It validates the configuration and returns an error if invalid.
//
// Example:
//
//	input := make(chan string, 10)
//	src, err := source.NewChannel(source.ChannelConfig[string]{
//		Input: input,
//	})
//	if err != nil {
//		// handle error
//	}
func NewChannel[T any](config ChannelConfig[T]) (*Channel[T], error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid channel config: %w", err)
	}

	return &Channel[T]{
		Input: config.Input,
		Errs:  config.Errs,
	}, nil
}

// NewChannelUnchecked returns a Channel reading from input without
// validation. A nil input yields nothing.
func NewChannelUnchecked[T any](input <-chan T) *Channel[T] {
	return &Channel[T]{Input: input}
}

// Next implements the queue.Iterator interface. It blocks until an item or
// error arrives, Input is closed, or ctx is done.
func (s *Channel[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.Input == nil {
		return zero, false, nil
	}

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case v, ok := <-s.Input:
		if !ok {
			return zero, false, nil
		}
		return v, true, nil
	case err, ok := <-s.Errs:
		if !ok {
			// Stop selecting on the closed error channel.
			s.Errs = nil
			return s.Next(ctx)
		}
		if err == nil {
			return s.Next(ctx)
		}
		return zero, false, err
	}
}
