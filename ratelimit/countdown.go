package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Countdown is a restartable one-shot timer. Start records a deadline
// duration from now; Remaining reports how much of it is left. It is safe for
// concurrent use.
type Countdown struct {
	duration time.Duration
	now      func() time.Time

	mu       sync.Mutex
	running  bool
	deadline time.Time
}

// NewCountdown creates a stopped countdown of duration d.
func NewCountdown(d time.Duration, opts ...CountdownOption) *Countdown {
	c := &Countdown{
		duration: d,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CountdownOption configures a Countdown.
type CountdownOption func(*Countdown)

// WithCountdownClock replaces time.Now as the countdown's time source.
func WithCountdownClock(now func() time.Time) CountdownOption {
	return func(c *Countdown) {
		if now != nil {
			c.now = now
		}
	}
}

// Duration returns the countdown length.
func (c *Countdown) Duration() time.Duration { return c.duration }

// Start arms the countdown. It is a no-op if the countdown is already running.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start()
}

func (c *Countdown) start() {
	if c.running {
		return
	}
	c.running = true
	c.deadline = c.now().Add(c.duration)
}

// Reload stops the countdown and starts it again from now.
func (c *Countdown) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.start()
}

// Running reports whether Start has been called since creation.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Remaining returns the time left before the deadline, or zero if the
// deadline has passed or the countdown was never started.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return 0
	}
	if left := c.deadline.Sub(c.now()); left > 0 {
		return left
	}
	return 0
}

// Wait blocks for the remaining time, if any, or until ctx is done.
func (c *Countdown) Wait(ctx context.Context) error {
	left := c.Remaining()
	if left == 0 {
		return nil
	}
	return sleep(ctx, left)
}
