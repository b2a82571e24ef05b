package event

import (
	"sync"
)

// Unsubscribe removes a listener. It is safe to call more than once.
type Unsubscribe func()

// PanicHandler receives a value recovered from a listener.
type PanicHandler func(kind Kind, recovered any)

type listener[E any] struct {
	id   uint64
	fn   func(E)
	once bool
}

// Emitter dispatches events of type E to listeners keyed by Kind. The zero
// value is ready to use.
type Emitter[E any] struct {
	mu        sync.Mutex
	listeners map[Kind][]*listener[E]
	nextID    uint64
	onPanic   PanicHandler
}

// NewEmitter returns an emitter that reports listener panics to onPanic.
// A nil onPanic swallows them.
func NewEmitter[E any](onPanic PanicHandler) *Emitter[E] {
	return &Emitter[E]{onPanic: onPanic}
}

// On registers fn for kind.
func (em *Emitter[E]) On(kind Kind, fn func(E)) Unsubscribe {
	return em.add(kind, fn, false)
}

// OnceFunc registers fn to be called for the next event of kind only.
func (em *Emitter[E]) OnceFunc(kind Kind, fn func(E)) Unsubscribe {
	return em.add(kind, fn, true)
}

// Once returns a channel that receives the next event of kind. The channel
// is buffered so emitting never blocks on it. It is never closed; RemoveAll
// leaves pending receivers waiting.
func (em *Emitter[E]) Once(kind Kind) <-chan E {
	ch := make(chan E, 1)
	em.add(kind, func(e E) { ch <- e }, true)
	return ch
}

func (em *Emitter[E]) add(kind Kind, fn func(E), once bool) Unsubscribe {
	if fn == nil {
		panic("event: nil listener")
	}

	em.mu.Lock()
	defer em.mu.Unlock()

	if em.listeners == nil {
		em.listeners = make(map[Kind][]*listener[E])
	}
	em.nextID++
	id := em.nextID
	em.listeners[kind] = append(em.listeners[kind], &listener[E]{id: id, fn: fn, once: once})

	return func() { em.remove(kind, id) }
}

func (em *Emitter[E]) remove(kind Kind, id uint64) bool {
	em.mu.Lock()
	defer em.mu.Unlock()

	ls := em.listeners[kind]
	for i, l := range ls {
		if l.id == id {
			em.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
			return true
		}
	}
	return false
}

// Emit calls every listener registered for kind, in registration order.
// Listeners added or removed during Emit take effect from the next Emit.
func (em *Emitter[E]) Emit(kind Kind, e E) {
	em.mu.Lock()
	snapshot := make([]*listener[E], len(em.listeners[kind]))
	copy(snapshot, em.listeners[kind])
	em.mu.Unlock()

	for _, l := range snapshot {
		// A once listener fires only if this Emit is the one that removed it.
		if l.once && !em.remove(kind, l.id) {
			continue
		}
		em.call(kind, l.fn, e)
	}
}

func (em *Emitter[E]) call(kind Kind, fn func(E), e E) {
	defer func() {
		if r := recover(); r != nil && em.onPanic != nil {
			em.onPanic(kind, r)
		}
	}()
	fn(e)
}

// Count returns the number of listeners registered for kind.
func (em *Emitter[E]) Count(kind Kind) int {
	em.mu.Lock()
	defer em.mu.Unlock()
	return len(em.listeners[kind])
}

// RemoveAll drops every listener of every kind.
func (em *Emitter[E]) RemoveAll() {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.listeners = nil
}
