package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Epsilon is added to every computed sleep so a waiter does not wake exactly
// on the window boundary and find the oldest shot still inside it.
const Epsilon = 500 * time.Microsecond

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now as the limiter's time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// Limiter is a sliding-window rate limiter. It keeps the timestamps of the
// admitted executions ("shots") that are younger than the window and blocks
// new admissions while the window holds MaxShots of them.
//
// A Limiter is safe for concurrent use. A Limiter with maxShots or window
// equal to zero is disabled: every call returns immediately.
type Limiter struct {
	maxShots int
	window   time.Duration
	now      func() time.Time

	mu    sync.Mutex
	shots []time.Time
}

// New creates a Limiter that admits at most maxShots executions per window.
func New(maxShots int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		maxShots: maxShots,
		window:   window,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enabled reports whether the limiter restricts anything.
func (l *Limiter) Enabled() bool {
	return l != nil && l.maxShots > 0 && l.window > 0
}

// MaxShots returns the number of executions admitted per window.
func (l *Limiter) MaxShots() int { return l.maxShots }

// Window returns the window duration.
func (l *Limiter) Window() time.Duration { return l.window }

// Len returns the number of shots currently inside the window.
func (l *Limiter) Len() int {
	if !l.Enabled() {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.shots)
}

// Shot records one admitted execution. It returns a ViolationError wrapping
// ErrRateLimitExceeded if the window is already full.
func (l *Limiter) Shot() error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.shots) >= l.maxShots {
		return &ViolationError{MaxShots: l.maxShots, Window: l.window}
	}
	l.shots = append(l.shots, now)
	return nil
}

// Wait blocks until the window has room for one more shot or ctx is done.
// It does not record a shot; concurrent waiters may all be released by the
// same free slot; use Acquire when the check and the shot must be atomic.
func (l *Limiter) Wait(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}

	for {
		l.mu.Lock()
		delay, room := l.delay(l.now())
		l.mu.Unlock()
		if room || delay <= 0 {
			return nil
		}
		if err := sleep(ctx, delay+Epsilon); err != nil {
			return err
		}
	}
}

// Acquire waits for room in the window and records a shot in the same
// critical section, so concurrent callers never overflow the window.
func (l *Limiter) Acquire(ctx context.Context) error {
	if !l.Enabled() {
		return nil
	}

	for {
		l.mu.Lock()
		now := l.now()
		delay, room := l.delay(now)
		if room {
			l.shots = append(l.shots, now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if delay < 0 {
			delay = 0
		}
		if err := sleep(ctx, delay+Epsilon); err != nil {
			return err
		}
	}
}

// delay prunes the window and reports whether there is room. When there is
// none, it returns how long to wait before checking again. l.mu must be held.
func (l *Limiter) delay(now time.Time) (time.Duration, bool) {
	l.prune(now)
	if len(l.shots) < l.maxShots {
		return 0, true
	}

	// The oldest shot leaves the window first.
	return l.shots[0].Add(l.window).Sub(now), false
}

// prune drops the shots that are at least one window old. l.mu must be held.
func (l *Limiter) prune(now time.Time) {
	i := 0
	for i < len(l.shots) && now.Sub(l.shots[i]) >= l.window {
		i++
	}
	if i == 0 {
		return
	}
	n := copy(l.shots, l.shots[i:])
	l.shots = l.shots[:n]
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
