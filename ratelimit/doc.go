// Package ratelimit contains the time-based throttles used by the batch
// engine:
//
// - Limiter: sliding-window admission control. At most MaxShots executions
// are admitted within any window of the configured duration.
// - Countdown: a restartable one-shot timer, used to reset a coarse
// per-window execution budget.
//
// Both are evaluated lazily at call time. Nothing runs in the background,
// so an idle or disabled throttle costs nothing.
//
// Typical use of the Limiter:
//
//	l := ratelimit.New(8, 200*time.Millisecond)
//	if err := l.Acquire(ctx); err != nil {
//		return err // ctx ended while waiting
//	}
//	// ... admitted, run the action
//
// Wait and Shot expose the two halves of Acquire for callers that
// coordinate admission themselves. Shot fails with ErrRateLimitExceeded
// when no prior Wait left room in the window.
package ratelimit
