package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MasterOfBinary/asyncbatch/event"
)

func TestKind_Preventable(t *testing.T) {
	preventable := map[event.Kind]bool{
		event.ProcessingStart: true,
		event.BeforeClear:     true,
		event.WillDestruct:    true,
	}

	for _, k := range event.Kinds {
		t.Run(k.String(), func(t *testing.T) {
			assert.Equal(t, preventable[k], k.Preventable())
		})
	}
}

func TestPrevention(t *testing.T) {
	p := event.NewPrevention(event.WillDestruct)
	assert.True(t, p.Preventable())
	assert.False(t, p.Prevented())
	assert.True(t, p.Prevent())
	assert.True(t, p.Prevent())
	assert.True(t, p.Prevented())

	q := event.NewPrevention(event.Started)
	assert.False(t, q.Prevent())
	assert.False(t, q.Prevented())
}

func TestPrevention_Frozen(t *testing.T) {
	p := event.NewPrevention(event.ProcessingStart)
	f := p.Frozen()
	assert.False(t, f.Preventable())
	assert.False(t, f.Prevent())
	assert.False(t, f.Prevented())

	require.True(t, p.Prevent())
	f = p.Frozen()
	assert.True(t, f.Prevented(), "frozen copy keeps the veto")
	assert.False(t, f.Prevent())
	assert.True(t, p.Preventable(), "original is unchanged")
}

func TestEmitter_Order(t *testing.T) {
	var em event.Emitter[int]
	var got []string

	em.On(event.Started, func(v int) { got = append(got, "a") })
	em.On(event.Started, func(v int) { got = append(got, "b") })
	em.On(event.Paused, func(v int) { got = append(got, "paused") })

	em.Emit(event.Started, 1)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, em.Count(event.Started))
	assert.Equal(t, 1, em.Count(event.Paused))
}

func TestEmitter_Unsubscribe(t *testing.T) {
	var em event.Emitter[int]
	calls := 0

	off := em.On(event.Cleared, func(int) { calls++ })
	em.Emit(event.Cleared, 0)
	off()
	off()
	em.Emit(event.Cleared, 0)

	assert.Equal(t, 1, calls)
	assert.Zero(t, em.Count(event.Cleared))
}

func TestEmitter_SnapshotDuringEmit(t *testing.T) {
	var em event.Emitter[int]
	var got []string

	var offB event.Unsubscribe
	em.On(event.Started, func(int) {
		got = append(got, "a")
		offB()
		em.On(event.Started, func(int) { got = append(got, "late") })
	})
	offB = em.On(event.Started, func(int) { got = append(got, "b") })

	em.Emit(event.Started, 0)
	assert.Equal(t, []string{"a", "b"}, got, "first emit uses the snapshot")

	got = nil
	em.Emit(event.Started, 0)
	assert.Equal(t, []string{"a", "late"}, got)
	assert.Equal(t, 3, em.Count(event.Started))
}

func TestEmitter_Once(t *testing.T) {
	var em event.Emitter[int]

	ch := em.Once(event.ProcessingEnd)
	calls := 0
	em.OnceFunc(event.ProcessingEnd, func(int) { calls++ })

	em.Emit(event.ProcessingEnd, 7)
	em.Emit(event.ProcessingEnd, 8)

	require.Len(t, ch, 1)
	assert.Equal(t, 7, <-ch)
	assert.Equal(t, 1, calls)
	assert.Zero(t, em.Count(event.ProcessingEnd))
}

func TestEmitter_PanicRecovered(t *testing.T) {
	var recovered []any
	em := event.NewEmitter[int](func(kind event.Kind, r any) {
		assert.Equal(t, event.ProcessingError, kind)
		recovered = append(recovered, r)
	})

	after := false
	em.On(event.ProcessingError, func(int) { panic("listener blew up") })
	em.On(event.ProcessingError, func(int) { after = true })

	assert.NotPanics(t, func() { em.Emit(event.ProcessingError, 0) })
	assert.True(t, after)
	assert.Equal(t, []any{"listener blew up"}, recovered)
}

func TestEmitter_RemoveAll(t *testing.T) {
	var em event.Emitter[int]
	calls := 0
	for _, k := range event.Kinds {
		em.On(k, func(int) { calls++ })
	}

	em.RemoveAll()
	for _, k := range event.Kinds {
		em.Emit(k, 0)
		assert.Zero(t, em.Count(k))
	}
	assert.Zero(t, calls)
}

func TestEmitter_NilListenerPanics(t *testing.T) {
	var em event.Emitter[int]
	assert.PanicsWithValue(t, "event: nil listener", func() {
		em.On(event.Started, nil)
	})
}
