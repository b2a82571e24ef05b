package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimitExceeded is returned (wrapped in a ViolationError) by Shot when
// the window is already full. It means Wait was not called, or its result
// was not respected, before recording the shot.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// ViolationError describes a Shot that would overflow the window.
type ViolationError struct {
	MaxShots int
	Window   time.Duration
}

func (e ViolationError) Error() string {
	return fmt.Sprintf("ratelimit: too many shots (%d per %v), call Wait before adding a new shot",
		e.MaxShots, e.Window)
}

func (e ViolationError) Unwrap() error {
	return ErrRateLimitExceeded
}
