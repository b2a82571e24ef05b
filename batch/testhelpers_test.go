package batch_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MasterOfBinary/asyncbatch/batch"
)

// waitTimeout bounds every blocking receive in tests.
const waitTimeout = 5 * time.Second

// recv receives from ch or fails the test after waitTimeout.
func recv[E any](t *testing.T, ch <-chan E) E {
	t.Helper()

	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatalf("timed out waiting for %T", *new(E))
		panic("unreachable")
	}
}

// waitDone waits for b to finish.
func waitDone[T, R any](t *testing.T, b *batch.Batch[T, R]) {
	t.Helper()
	recv(t, b.Done())
}

// double is an action returning twice its input.
func double(_ context.Context, n int) (int, error) {
	return n * 2, nil
}

// recorder keeps a textual trace of every event a Batch emits.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func record(b *batch.Batch[int, int]) *recorder {
	r := &recorder{}
	b.Events().OnAll(func(e batch.Event[int, int]) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.lines = append(r.lines, describe(e))
	})
	return r
}

func (r *recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n") + "\n"
}

// count returns how many recorded lines start with kind.
func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, l := range r.lines {
		if l == kind || strings.HasPrefix(l, kind+" ") {
			n++
		}
	}
	return n
}

func describe(e batch.Event[int, int]) string {
	switch ev := e.(type) {
	case *batch.ProcessingStartEvent[int, int]:
		return fmt.Sprintf("%s seq=%d item=%d", ev.Kind(), ev.Seq, ev.Item)
	case *batch.ProcessingSuccessEvent[int, int]:
		return fmt.Sprintf("%s seq=%d item=%d result=%d", ev.Kind(), ev.Seq, ev.Item, ev.Result)
	case *batch.ProcessingErrorEvent[int, int]:
		return fmt.Sprintf("%s seq=%d item=%d err=%v", ev.Kind(), ev.Seq, ev.Item, ev.Err)
	case *batch.ProcessingEndEvent[int, int]:
		return fmt.Sprintf("%s seq=%d item=%d outcome=%s", ev.Kind(), ev.Seq, ev.Item, ev.Outcome)
	default:
		return string(e.Kind())
	}
}

// intRange returns [from, to).
func intRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
