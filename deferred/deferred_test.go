package deferred_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/asyncbatch/deferred"
)

func TestDeferred_Resolve(t *testing.T) {
	d := deferred.New[int]()
	assert.False(t, d.Settled())

	require.True(t, d.Resolve(42))
	assert.True(t, d.Settled())

	v, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDeferred_SettlesOnce(t *testing.T) {
	d := deferred.New[string]()

	require.True(t, d.Resolve("first"))
	assert.False(t, d.Resolve("second"), "second resolve must be a no-op")
	assert.False(t, d.Reject(errors.New("late")), "reject after resolve must be a no-op")

	v, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestDeferred_Reject(t *testing.T) {
	future, resolve, reject := deferred.NewFuncs[int]()
	boom := errors.New("boom")

	require.True(t, reject(boom))
	assert.False(t, resolve(1))

	_, err := future.Wait(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestDeferred_WaitBlocksUntilSettled(t *testing.T) {
	d := deferred.New[struct{}]()

	go func() {
		time.Sleep(20 * time.Millisecond)
		d.Resolve(struct{}{})
	}()

	start := time.Now()
	_, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestDeferred_WaitContextCancelled(t *testing.T) {
	d := deferred.New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, d.Settled())
}

func TestDeferred_ConcurrentSettle(t *testing.T) {
	d := deferred.New[int]()

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			if d.Resolve(v) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one settle call must win")
	<-d.Done()
}
