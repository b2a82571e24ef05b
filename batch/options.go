package batch

import (
	"errors"
	"fmt"
	"time"
)

// RateLimit configures the sliding-window admission limit applied to every
// action call.
type RateLimit struct {
	// MaxExecutions is the number of actions admitted per Window.
	MaxExecutions int `yaml:"maxExecutions"`

	// Window is the length of the sliding window.
	Window time.Duration `yaml:"window"`
}

// Budget configures a coarse throttle on dispatches: at most MaxExecutions
// items are dispatched per Window, counted from the first dispatch of each
// window. When the budget is spent the drive loop holds the next item until
// the window elapses.
type Budget struct {
	MaxExecutions int           `yaml:"maxExecutions"`
	Window        time.Duration `yaml:"window"`
}

// Options contains optional configuration for creating a new Batch.
type Options struct {
	// AutoStart makes the Batch dispatch items as soon as Go is called.
	// Otherwise Start must be called.
	AutoStart bool

	// MaxConcurrency limits how many actions run at once.
	// Default: DefaultMaxConcurrency
	MaxConcurrency int

	// RateLimit, if set, bounds the rate of action calls.
	RateLimit *RateLimit

	// Budget, if set, bounds the number of dispatches per window.
	Budget *Budget

	// DisableAutoDestruct keeps the Batch alive after its queue first
	// drains with nothing in flight. By default the Batch destructs itself
	// at that point.
	DisableAutoDestruct bool

	// Logger receives diagnostic messages. If nil, no logging occurs.
	Logger Logger

	// Stats receives per-item metrics. If nil, no statistics are collected.
	Stats StatsCollector
}

// WithDefaults returns a copy of the Options with default values where not
// specified. A nil receiver yields the default Options.
func (o *Options) WithDefaults() *Options {
	var c Options
	if o != nil {
		c = *o
	}

	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Logger == nil {
		c.Logger = &NoOpLogger{}
	}
	if c.Stats == nil {
		c.Stats = &NoOpStatsCollector{}
	}

	return &c
}

// Validate checks if the Options are valid. A nil receiver is valid.
func (o *Options) Validate() error {
	if o == nil {
		return nil
	}

	if o.MaxConcurrency < 0 {
		return errors.New("MaxConcurrency cannot be negative")
	}

	if o.RateLimit != nil {
		if err := validateWindow(o.RateLimit.MaxExecutions, o.RateLimit.Window); err != nil {
			return fmt.Errorf("invalid rate limit: %w", err)
		}
	}

	if o.Budget != nil {
		if err := validateWindow(o.Budget.MaxExecutions, o.Budget.Window); err != nil {
			return fmt.Errorf("invalid budget: %w", err)
		}
		if o.Budget.MaxExecutions == 0 || o.Budget.Window == 0 {
			return errors.New("invalid budget: MaxExecutions and Window must both be set")
		}
	}

	return nil
}

func validateWindow(maxExecutions int, window time.Duration) error {
	if maxExecutions < 0 {
		return errors.New("MaxExecutions cannot be negative")
	}
	if window < 0 {
		return errors.New("Window cannot be negative")
	}
	return nil
}
