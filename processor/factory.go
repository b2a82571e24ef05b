package processor

import (
	"errors"
	"fmt"
)

// CollectorConfig holds configuration for creating a ResultCollector.
type CollectorConfig[T, R any] struct {
	// Filter is an optional function to decide which results to collect.
	Filter func(Result[T, R]) bool
	// MaxItems limits the number of results. If 0, no limit is applied.
	MaxItems int
	// CollectErrors keeps failed items as well.
	CollectErrors bool
}

// Validate checks that the configuration is valid.
func (c CollectorConfig[T, R]) Validate() error {
	if c.MaxItems < 0 {
		return errors.New("MaxItems cannot be negative")
	}
	return nil
}

// NewResultCollector creates a ResultCollector with validation.
// Returns an error if the configuration is invalid.
func NewResultCollector[T, R any](config CollectorConfig[T, R]) (*ResultCollector[T, R], error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid collector config: %w", err)
	}
	return &ResultCollector[T, R]{
		Filter:        config.Filter,
		MaxItems:      config.MaxItems,
		CollectErrors: config.CollectErrors,
	}, nil
}
