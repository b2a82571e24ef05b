package batch

import (
	"github.com/MasterOfBinary/asyncbatch/event"
)

// Event is implemented by every event a Batch emits.
type Event[T, R any] interface {
	Kind() event.Kind
	Batch() *Batch[T, R]
}

// Outcome describes how the processing of one item ended.
type Outcome int

const (
	// Succeeded means the action returned without error.
	Succeeded Outcome = iota
	// Failed means the action returned an error or panicked.
	Failed
	// Skipped means the filter rejected the item.
	Skipped
	// Prevented means a listener prevented the processingStart event.
	Prevented
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	case Prevented:
		return "prevented"
	default:
		return "unknown"
	}
}

type origin[T, R any] struct {
	b *Batch[T, R]
}

// Batch returns the Batch that emitted the event.
func (s origin[T, R]) Batch() *Batch[T, R] { return s.b }

// StartedEvent is emitted once before the first dispatch after creation and
// after every resume.
type StartedEvent[T, R any] struct{ origin[T, R] }

func (*StartedEvent[T, R]) Kind() event.Kind { return event.Started }

// PausedEvent is emitted once when the drive loop stops at the pause gate.
type PausedEvent[T, R any] struct{ origin[T, R] }

func (*PausedEvent[T, R]) Kind() event.Kind { return event.Paused }

// BeforeClearEvent is emitted by Clear. Preventing it keeps the queue.
type BeforeClearEvent[T, R any] struct {
	origin[T, R]
	event.Prevention
}

func (*BeforeClearEvent[T, R]) Kind() event.Kind { return event.BeforeClear }

// ClearedEvent is emitted after the queue has been emptied by Clear.
type ClearedEvent[T, R any] struct{ origin[T, R] }

func (*ClearedEvent[T, R]) Kind() event.Kind { return event.Cleared }

// WaitingForDataEvent is emitted when the queue is empty and nothing is in
// flight. It may be emitted more than once in a row.
type WaitingForDataEvent[T, R any] struct{ origin[T, R] }

func (*WaitingForDataEvent[T, R]) Kind() event.Kind { return event.WaitingForData }

// WillDestructEvent is emitted by Destruct. Preventing it keeps the Batch
// alive.
type WillDestructEvent[T, R any] struct {
	origin[T, R]
	event.Prevention
}

func (*WillDestructEvent[T, R]) Kind() event.Kind { return event.WillDestruct }

// ProcessingStartEvent is emitted before the action is called for an item.
// Preventing it skips the action; ProcessingEndEvent still follows.
type ProcessingStartEvent[T, R any] struct {
	origin[T, R]
	event.Prevention
	Seq  uint64
	Item T
}

func (*ProcessingStartEvent[T, R]) Kind() event.Kind { return event.ProcessingStart }

// ProcessingSuccessEvent is emitted when the action returns without error.
type ProcessingSuccessEvent[T, R any] struct {
	origin[T, R]
	Seq    uint64
	Item   T
	Result R
}

func (*ProcessingSuccessEvent[T, R]) Kind() event.Kind { return event.ProcessingSuccess }

// ProcessingErrorEvent is emitted when the action fails. Err is an
// *ActionError.
type ProcessingErrorEvent[T, R any] struct {
	origin[T, R]
	Seq  uint64
	Item T
	Err  error
}

func (*ProcessingErrorEvent[T, R]) Kind() event.Kind { return event.ProcessingError }

// ProcessingEndEvent is emitted exactly once for every dispatched item,
// whatever its outcome.
type ProcessingEndEvent[T, R any] struct {
	origin[T, R]
	Seq     uint64
	Item    T
	Result  R
	Err     error
	Outcome Outcome
}

func (*ProcessingEndEvent[T, R]) Kind() event.Kind { return event.ProcessingEnd }

// Events is the subscription surface of a Batch. Listeners are called
// synchronously on the goroutine that emits, so they must not block. A
// listener may call any Batch method.
type Events[T, R any] struct {
	em *event.Emitter[Event[T, R]]
}

func on[T, R any, E Event[T, R]](evs *Events[T, R], kind event.Kind, fn func(E)) event.Unsubscribe {
	return evs.em.On(kind, func(e Event[T, R]) { fn(e.(E)) })
}

// next delivers the next event of kind on a buffered channel. The receiver
// runs after Emit has returned, so preventable kinds pass a freeze func that
// copies the event with a frozen Prevention while still on the emitting
// goroutine.
func next[T, R any, E Event[T, R]](evs *Events[T, R], kind event.Kind, freeze func(E) E) <-chan E {
	ch := make(chan E, 1)
	evs.em.OnceFunc(kind, func(e Event[T, R]) {
		v := e.(E)
		if freeze != nil {
			v = freeze(v)
		}
		ch <- v
	})
	return ch
}

// On registers fn for every event of kind.
func (evs *Events[T, R]) On(kind event.Kind, fn func(Event[T, R])) event.Unsubscribe {
	return evs.em.On(kind, fn)
}

// OnAll registers fn for events of every kind.
func (evs *Events[T, R]) OnAll(fn func(Event[T, R])) event.Unsubscribe {
	offs := make([]event.Unsubscribe, 0, len(event.Kinds))
	for _, k := range event.Kinds {
		offs = append(offs, evs.em.On(k, fn))
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

// OnStarted registers fn for StartedEvent.
func (evs *Events[T, R]) OnStarted(fn func(*StartedEvent[T, R])) event.Unsubscribe {
	return on(evs, event.Started, fn)
}

// OnPaused registers fn for PausedEvent.
func (evs *Events[T, R]) OnPaused(fn func(*PausedEvent[T, R])) event.Unsubscribe {
	return on(evs, event.Paused, fn)
}

// OnBeforeClear registers fn for BeforeClearEvent. fn may veto the clear.
func (evs *Events[T, R]) OnBeforeClear(fn func(*BeforeClearEvent[T, R])) event.Unsubscribe {
	return on(evs, event.BeforeClear, fn)
}

// OnCleared registers fn for ClearedEvent.
func (evs *Events[T, R]) OnCleared(fn func(*ClearedEvent[T, R])) event.Unsubscribe {
	return on(evs, event.Cleared, fn)
}

// OnWaitingForData registers fn for WaitingForDataEvent.
func (evs *Events[T, R]) OnWaitingForData(fn func(*WaitingForDataEvent[T, R])) event.Unsubscribe {
	return on(evs, event.WaitingForData, fn)
}

// OnEmpty is an alias of OnWaitingForData.
func (evs *Events[T, R]) OnEmpty(fn func(*WaitingForDataEvent[T, R])) event.Unsubscribe {
	return evs.OnWaitingForData(fn)
}

// OnWillDestruct registers fn for WillDestructEvent. fn may veto the destruction.
func (evs *Events[T, R]) OnWillDestruct(fn func(*WillDestructEvent[T, R])) event.Unsubscribe {
	return on(evs, event.WillDestruct, fn)
}

// OnProcessingStart registers fn for ProcessingStartEvent. fn may skip the item.
func (evs *Events[T, R]) OnProcessingStart(fn func(*ProcessingStartEvent[T, R])) event.Unsubscribe {
	return on(evs, event.ProcessingStart, fn)
}

// OnProcessingSuccess registers fn for ProcessingSuccessEvent.
func (evs *Events[T, R]) OnProcessingSuccess(fn func(*ProcessingSuccessEvent[T, R])) event.Unsubscribe {
	return on(evs, event.ProcessingSuccess, fn)
}

// OnProcessingError registers fn for ProcessingErrorEvent.
func (evs *Events[T, R]) OnProcessingError(fn func(*ProcessingErrorEvent[T, R])) event.Unsubscribe {
	return on(evs, event.ProcessingError, fn)
}

// OnProcessingEnd registers fn for ProcessingEndEvent.
func (evs *Events[T, R]) OnProcessingEnd(fn func(*ProcessingEndEvent[T, R])) event.Unsubscribe {
	return on(evs, event.ProcessingEnd, fn)
}

// The Next methods return a channel that receives the next event of their
// kind. The channel is never closed: select on Batch.Done as well when the
// event may never come.
// NextStarted returns a channel receiving the next StartedEvent.
func (evs *Events[T, R]) NextStarted() <-chan *StartedEvent[T, R] {
	return next[T, R, *StartedEvent[T, R]](evs, event.Started, nil)
}

// NextPaused returns a channel receiving the next PausedEvent.
func (evs *Events[T, R]) NextPaused() <-chan *PausedEvent[T, R] {
	return next[T, R, *PausedEvent[T, R]](evs, event.Paused, nil)
}

// NextCleared returns a channel receiving the next ClearedEvent.
func (evs *Events[T, R]) NextCleared() <-chan *ClearedEvent[T, R] {
	return next[T, R, *ClearedEvent[T, R]](evs, event.Cleared, nil)
}

// NextWaitingForData returns a channel receiving the next WaitingForDataEvent.
func (evs *Events[T, R]) NextWaitingForData() <-chan *WaitingForDataEvent[T, R] {
	return next[T, R, *WaitingForDataEvent[T, R]](evs, event.WaitingForData, nil)
}

// NextWillDestruct returns a channel receiving a read-only copy of the next
// WillDestructEvent. Prevent on the copy returns false; use OnWillDestruct to
// veto.
func (evs *Events[T, R]) NextWillDestruct() <-chan *WillDestructEvent[T, R] {
	return next(evs, event.WillDestruct, func(e *WillDestructEvent[T, R]) *WillDestructEvent[T, R] {
		c := *e
		c.Prevention = e.Prevention.Frozen()
		return &c
	})
}

// NextProcessingStart returns a channel receiving a read-only copy of the
// next ProcessingStartEvent. Prevent on the copy returns false; use
// OnProcessingStart to skip items.
func (evs *Events[T, R]) NextProcessingStart() <-chan *ProcessingStartEvent[T, R] {
	return next(evs, event.ProcessingStart, func(e *ProcessingStartEvent[T, R]) *ProcessingStartEvent[T, R] {
		c := *e
		c.Prevention = e.Prevention.Frozen()
		return &c
	})
}

// NextProcessingSuccess returns a channel receiving the next ProcessingSuccessEvent.
func (evs *Events[T, R]) NextProcessingSuccess() <-chan *ProcessingSuccessEvent[T, R] {
	return next[T, R, *ProcessingSuccessEvent[T, R]](evs, event.ProcessingSuccess, nil)
}

// NextProcessingError returns a channel receiving the next ProcessingErrorEvent.
func (evs *Events[T, R]) NextProcessingError() <-chan *ProcessingErrorEvent[T, R] {
	return next[T, R, *ProcessingErrorEvent[T, R]](evs, event.ProcessingError, nil)
}

// NextProcessingEnd returns a channel receiving the next ProcessingEndEvent.
func (evs *Events[T, R]) NextProcessingEnd() <-chan *ProcessingEndEvent[T, R] {
	return next[T, R, *ProcessingEndEvent[T, R]](evs, event.ProcessingEnd, nil)
}

// Count returns the number of listeners registered for kind.
func (evs *Events[T, R]) Count(kind event.Kind) int {
	return evs.em.Count(kind)
}

// RemoveAll drops every listener.
func (evs *Events[T, R]) RemoveAll() {
	evs.em.RemoveAll()
}

func (evs *Events[T, R]) emit(e Event[T, R]) {
	evs.em.Emit(e.Kind(), e)
}
