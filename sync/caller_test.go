package sync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

func upper(_ context.Context, s string) (string, error) {
	return strings.ToUpper(s), nil
}

func TestCaller_SingleCall(t *testing.T) {
	caller := NewCaller(upper, nil)
	defer caller.Close()

	value, err := caller.Call(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "TEST", value)
}

func TestCaller_ConcurrentCalls(t *testing.T) {
	var inFlight, peak int32
	caller := NewCaller(func(ctx context.Context, n int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return n * n, nil
	}, &batch.Options{MaxConcurrency: 3})
	defer caller.Close()

	var wg sync.WaitGroup
	results := make([]int, 20)
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = caller.Call(context.Background(), i)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, i*i, results[i])
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestCaller_Error(t *testing.T) {
	sentinel := errors.New("not found")
	caller := NewCaller(func(_ context.Context, key string) (string, error) {
		if key == "missing" {
			return "", sentinel
		}
		return key, nil
	}, nil)
	defer caller.Close()

	_, err := caller.Call(context.Background(), "missing")
	assert.Same(t, sentinel, err, "the action's own error is returned")

	value, err := caller.Call(context.Background(), "present")
	require.NoError(t, err)
	assert.Equal(t, "present", value)
}

func TestCaller_Panic(t *testing.T) {
	caller := NewCaller(func(context.Context, int) (int, error) {
		panic("boom")
	}, nil)
	defer caller.Close()

	_, err := caller.Call(context.Background(), 1)
	var panicErr *batch.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Value)
}

func TestCaller_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	caller := NewCaller(func(_ context.Context, n int) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return n, nil
	}, &batch.Options{MaxConcurrency: 1})

	// Occupy the only slot.
	blocked := make(chan error, 1)
	go func() {
		_, err := caller.Call(context.Background(), 1)
		blocked <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := caller.Call(ctx, 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-blocked)

	caller.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "the abandoned call must not run")
}

func TestCaller_ActionSeesCallerContext(t *testing.T) {
	caller := NewCaller(func(ctx context.Context, _ int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, nil)
	defer caller.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := caller.Call(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestCaller_AlreadyCancelled(t *testing.T) {
	caller := NewCaller(upper, nil)
	defer caller.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := caller.Call(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, caller.Pending())
}

func TestCaller_Close(t *testing.T) {
	t.Run("waits for pending calls", func(t *testing.T) {
		caller := NewCaller(func(_ context.Context, n int) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return n, nil
		}, &batch.Options{MaxConcurrency: 1})

		var wg sync.WaitGroup
		var succeeded int32
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, err := caller.Call(context.Background(), i); err == nil {
					atomic.AddInt32(&succeeded, 1)
				}
			}(i)
		}
		require.Eventually(t, func() bool { return caller.Pending() > 0 }, time.Second, time.Millisecond)

		caller.Close()
		wg.Wait()

		// Calls queued before Close all complete; late ones see ErrClosed.
		assert.Positive(t, atomic.LoadInt32(&succeeded))
	})

	t.Run("rejects new calls", func(t *testing.T) {
		caller := NewCaller(upper, nil)
		caller.Close()

		_, err := caller.Call(context.Background(), "x")
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("idempotent", func(t *testing.T) {
		caller := NewCaller(upper, nil)
		caller.Close()
		caller.Close()
	})
}

func TestNewCaller_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "sync: nil action", func() {
		NewCaller[int, int](nil, nil)
	})
	assert.Panics(t, func() {
		NewCaller(upper, &batch.Options{MaxConcurrency: -1})
	})
}
