package processor_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/MasterOfBinary/asyncbatch/batch"
	"github.com/MasterOfBinary/asyncbatch/processor"
)

func TestTransform(t *testing.T) {
	action := processor.Transform(strings.ToUpper)

	res, err := action(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", res)
}

func TestTransformErr(t *testing.T) {
	action := processor.TransformErr(strconv.Atoi)

	res, err := action(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 42, res)

	_, err = action(context.Background(), "x")
	var numErr *strconv.NumError
	assert.ErrorAs(t, err, &numErr)
}

func TestChain(t *testing.T) {
	var secondCalls int32
	second := func(_ context.Context, n int) (string, error) {
		atomic.AddInt32(&secondCalls, 1)
		return strconv.Itoa(n * 2), nil
	}
	action := processor.Chain(processor.TransformErr(strconv.Atoi), second)

	res, err := action(context.Background(), "21")
	require.NoError(t, err)
	assert.Equal(t, "42", res)

	res, err = action(context.Background(), "nope")
	assert.Error(t, err)
	assert.Empty(t, res)
	assert.Equal(t, int32(1), atomic.LoadInt32(&secondCalls), "second stage must not run after a failure")
}

func TestTimeout(t *testing.T) {
	t.Run("fast action", func(t *testing.T) {
		action := processor.Timeout(processor.Transform(strings.ToLower), time.Second)

		res, err := action(context.Background(), "ABC")
		require.NoError(t, err)
		assert.Equal(t, "abc", res)
	})

	t.Run("slow action", func(t *testing.T) {
		action := processor.Timeout(processor.Nil[int, int](time.Second), 20*time.Millisecond)

		start := time.Now()
		_, err := action(context.Background(), 1)
		assert.Less(t, time.Since(start), 500*time.Millisecond)

		var timeout *processor.TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, 20*time.Millisecond, timeout.After)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, "action timed out after 20ms", err.Error())
	})

	t.Run("action ignoring context", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		action := processor.Timeout(func(context.Context, int) (int, error) {
			<-release
			return 1, nil
		}, 10*time.Millisecond)

		_, err := action(context.Background(), 1)
		var timeout *processor.TimeoutError
		assert.ErrorAs(t, err, &timeout)
	})

	t.Run("parent cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		action := processor.Timeout(processor.Nil[int, int](time.Second), time.Minute)
		_, err := action(ctx, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("panic", func(t *testing.T) {
		action := processor.Timeout(func(context.Context, int) (int, error) {
			panic("boom")
		}, time.Second)

		_, err := action(context.Background(), 1)
		var panicErr *batch.PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "boom", panicErr.Value)
	})

	t.Run("disabled", func(t *testing.T) {
		action := processor.Timeout(processor.Nil[int, int](30*time.Millisecond), 0)

		_, err := action(context.Background(), 1)
		assert.NoError(t, err)
	})
}

func TestRecover(t *testing.T) {
	sentinel := errors.New("sentinel")
	action := processor.Recover(func(_ context.Context, n int) (int, error) {
		if n == 1 {
			panic(sentinel)
		}
		return n, nil
	})

	res, err := action(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res)

	res, err = action(context.Background(), 1)
	assert.Zero(t, res)
	assert.ErrorIs(t, err, sentinel)

	var panicErr *batch.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestLogging(t *testing.T) {
	var out bytes.Buffer
	logger := batch.NewSlogLogger(slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})))

	action := processor.Logging(func(_ context.Context, n int) (int, error) {
		if n < 0 {
			return 0, errors.New("negative")
		}
		return n, nil
	}, logger, "abs")

	_, err := action(context.Background(), 3)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `level=DEBUG msg="Action 'abs' starting on 3"`)
	assert.Contains(t, out.String(), "Action 'abs' completed in")

	_, err = action(context.Background(), -1)
	require.Error(t, err)
	assert.Contains(t, out.String(), `level=ERROR msg="Action 'abs' failed after`)
	assert.Contains(t, out.String(), "on -1: negative")

	t.Run("nil logger", func(t *testing.T) {
		action := processor.Logging(processor.Transform(strings.TrimSpace), nil, "")
		res, err := action(context.Background(), " x ")
		require.NoError(t, err)
		assert.Equal(t, "x", res)
	})
}

func TestInstrument(t *testing.T) {
	stats := batch.NewBasicStatsCollector()
	action := processor.Instrument(processor.TransformErr(strconv.Atoi), stats)

	for _, s := range []string{"1", "2", "x"} {
		_, _ = action(context.Background(), s)
	}

	got := stats.GetStats()
	assert.Equal(t, uint64(3), got.ItemsStarted)
	assert.Equal(t, uint64(2), got.ItemsSucceeded)
	assert.Equal(t, uint64(1), got.ItemsFailed)
}

func TestThrottle(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)
	action := processor.Throttle(processor.Transform(strings.ToUpper), limiter)

	start := time.Now()
	for _, s := range []string{"a", "b", "c"} {
		res, err := action(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, strings.ToUpper(s), res)
	}
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond, "the burst allows one call, the rest wait")

	t.Run("context", func(t *testing.T) {
		slow := processor.Throttle(processor.Transform(strings.ToUpper), rate.NewLimiter(rate.Every(time.Hour), 1))
		_, err := slow(context.Background(), "first")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = slow(ctx, "second")
		assert.Error(t, err)
	})

	t.Run("nil limiter", func(t *testing.T) {
		res, err := processor.Throttle(processor.Transform(strings.ToUpper), nil)(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, "X", res)
	})
}

func TestChannel(t *testing.T) {
	out := make(chan string, 2)
	action := processor.Channel(processor.TransformErr(func(s string) (string, error) {
		if s == "" {
			return "", errors.New("empty")
		}
		return strings.ToUpper(s), nil
	}), out)

	_, err := action(context.Background(), "a")
	require.NoError(t, err)
	_, err = action(context.Background(), "")
	require.Error(t, err)

	require.Len(t, out, 1, "failed items must not be forwarded")
	assert.Equal(t, "A", <-out)

	t.Run("blocked send honours context", func(t *testing.T) {
		blocked := make(chan int)
		action := processor.Channel(processor.Transform(func(n int) int { return n }), blocked)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := action(ctx, 1)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestError(t *testing.T) {
	sentinel := errors.New("always")
	action := processor.Error[int, string](sentinel)

	res, err := action(context.Background(), 1)
	assert.Empty(t, res)
	assert.ErrorIs(t, err, sentinel)
}

func TestNil(t *testing.T) {
	action := processor.Nil[int, int](30 * time.Millisecond)

	start := time.Now()
	_, err := action(context.Background(), 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = action(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilters(t *testing.T) {
	even := processor.Predicate(func(n int) bool { return n%2 == 0 })
	positive := processor.Predicate(func(n int) bool { return n > 0 })
	failing := func(context.Context, int) (bool, error) { return true, errors.New("filter failed") }

	tests := []struct {
		name   string
		filter batch.Filter[int]
		item   int
		keep   bool
		err    bool
	}{
		{name: "predicate keeps", filter: even, item: 2, keep: true},
		{name: "predicate rejects", filter: even, item: 3, keep: false},
		{name: "not inverts", filter: processor.Not(even), item: 3, keep: true},
		{name: "not passes error", filter: processor.Not[int](failing), item: 3, keep: false, err: true},
		{name: "all keeps", filter: processor.All(even, positive), item: 4, keep: true},
		{name: "all rejects", filter: processor.All(even, positive), item: -4, keep: false},
		{name: "all empty", filter: processor.All[int](), item: 1, keep: true},
		{name: "all error", filter: processor.All(positive, failing), item: 1, keep: false, err: true},
		{name: "any keeps", filter: processor.Any(even, positive), item: 3, keep: true},
		{name: "any rejects", filter: processor.Any(even, positive), item: -3, keep: false},
		{name: "any empty", filter: processor.Any[int](), item: 1, keep: false},
		{name: "any stops at acceptance", filter: processor.Any(even, failing), item: 2, keep: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, err := tt.filter(context.Background(), tt.item)
			assert.Equal(t, tt.keep, keep)
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessors_InBatch(t *testing.T) {
	var out []string
	sink := make(chan string, 10)

	action := processor.Channel(
		processor.Timeout(processor.Transform(strconv.Itoa), time.Second),
		sink,
	)

	b := batch.New(action, &batch.Options{AutoStart: true, MaxConcurrency: 1})
	b.SetFilter(processor.Not(processor.Predicate(func(n int) bool { return n == 3 })))
	require.NoError(t, b.Add(1, 2, 3, 4))

	select {
	case <-b.Go(context.Background()):
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not finish")
	}
	close(sink)

	for s := range sink {
		out = append(out, s)
	}
	assert.Equal(t, []string{"1", "2", "4"}, out)
}
