package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MasterOfBinary/asyncbatch/deferred"
	"github.com/MasterOfBinary/asyncbatch/event"
	"github.com/MasterOfBinary/asyncbatch/queue"
	"github.com/MasterOfBinary/asyncbatch/ratelimit"
)

// Action processes one item.
type Action[T, R any] func(ctx context.Context, item T) (R, error)

// Filter decides whether an item should be processed. Returning false or an
// error skips the item.
type Filter[T any] func(ctx context.Context, item T) (bool, error)

// signal is a one-shot wake-up.
type signal = deferred.Deferred[struct{}]

// Batch drives an Action over a lazily filled queue with bounded
// concurrency, optional rate limiting and pause/resume.
//
// To create a new Batch, call New. Items may be added at any time with Add,
// AddMany or AddIterator, including after the queue has drained. Nothing is
// processed until Go is called and the Batch is started, either by
// Options.AutoStart or by Start.
//
// Go must only be called once. Calling Go again will cause a panic.
//
// Every lifecycle transition is reported through Events. Some events are
// preventable: a listener may prevent a processingStart to skip an item, a
// beforeClear to keep the queue, or a willDestruct to keep the Batch alive.
//
// A Batch destructs itself the first time its queue drains with nothing in
// flight, unless Options.DisableAutoDestruct is set. A destructed Batch
// rejects new items with ErrDestructed.
type Batch[T, R any] struct {
	id           uuid.UUID
	logger       Logger
	stats        StatsCollector
	limiter      *ratelimit.Limiter
	budget       *budget
	autoDestruct bool
	queue        *queue.Queue[T]
	events       *Events[T, R]
	done         chan struct{}
	destroyed    chan struct{}
	wg           sync.WaitGroup

	mu             sync.Mutex
	running        bool
	action         Action[T, R]
	filter         Filter[T]
	maxConcurrency int
	inFlight       int
	seq            uint64
	adds           uint64
	started        bool
	waitingForData bool
	destructed     bool
	cancelPull     context.CancelFunc
	startSignal    *signal
	dataSignal     *signal
	capSignal      *signal
}

// New creates a new Batch that runs action for every item. If opts is nil,
// default options are used.
//
// New panics if action is nil or opts is invalid; call Options.Validate
// first when the options come from user input.
func New[T, R any](action Action[T, R], opts *Options) *Batch[T, R] {
	if action == nil {
		panic("batch: nil action")
	}
	if err := opts.Validate(); err != nil {
		panic(fmt.Sprintf("batch: invalid options: %v", err))
	}
	opts = opts.WithDefaults()

	b := &Batch[T, R]{
		id:             newID(),
		logger:         opts.Logger,
		stats:          opts.Stats,
		limiter:        ratelimit.New(0, 0),
		autoDestruct:   !opts.DisableAutoDestruct,
		queue:          queue.New[T](),
		done:           make(chan struct{}),
		destroyed:      make(chan struct{}),
		action:         action,
		maxConcurrency: opts.MaxConcurrency,
		started:        opts.AutoStart,
		startSignal:    deferred.New[struct{}](),
		dataSignal:     deferred.New[struct{}](),
		capSignal:      deferred.New[struct{}](),
	}

	if opts.RateLimit != nil {
		b.limiter = ratelimit.New(opts.RateLimit.MaxExecutions, opts.RateLimit.Window)
	}
	if opts.Budget != nil {
		b.budget = newBudget(opts.Budget.MaxExecutions, opts.Budget.Window)
	}

	b.events = &Events[T, R]{
		em: event.NewEmitter[Event[T, R]](func(kind event.Kind, recovered any) {
			b.logger.Error("Batch %s: %s listener panicked: %v", b.id, kind, recovered)
		}),
	}

	return b
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// ID returns the identifier of the Batch, used in log messages.
func (b *Batch[T, R]) ID() uuid.UUID {
	return b.id
}

// Events returns the subscription surface of the Batch.
func (b *Batch[T, R]) Events() *Events[T, R] {
	return b.events
}

// Go starts the drive loop asynchronously and returns the Done channel.
//
// ctx is passed to every action and filter call and to queue iterators.
// Cancelling ctx destructs the Batch without emitting willDestruct, so it
// cannot be prevented. In-flight actions see the cancellation through ctx.
//
// Example:
//
//	b := batch.New(action, &batch.Options{AutoStart: true})
//	b.AddMany(items)
//	<-b.Go(ctx)
func (b *Batch[T, R]) Go(ctx context.Context) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		panic("Concurrent calls to Batch.Go are not allowed")
	}
	b.running = true

	pullCtx, cancel := context.WithCancel(ctx)
	b.cancelPull = cancel
	if b.destructed {
		cancel()
	}

	b.logger.Info("Batch %s: starting drive loop (max concurrency %d)", b.id, b.maxConcurrency)

	go b.watch(ctx)
	go b.run(ctx, pullCtx)

	return b.done
}

// Done returns a channel that is closed when the Batch has been destructed
// and every in-flight action has returned.
//
// Example:
//
//	select {
//	case <-b.Done():
//		fmt.Println("Processing complete")
//	case <-time.After(10 * time.Second):
//		fmt.Println("Timed out waiting for processing to finish")
//	}
func (b *Batch[T, R]) Done() <-chan struct{} {
	return b.done
}

// watch destructs the Batch when ctx ends.
func (b *Batch[T, R]) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		if b.destruct() {
			b.logger.Warn("Batch %s: context done, destructed: %v", b.id, ctx.Err())
		}
	case <-b.destroyed:
	}
}

// Add appends each item to the queue as its own entry.
func (b *Batch[T, R]) Add(items ...T) error {
	return b.push(func() { b.queue.Push(items...) })
}

// AddMany appends items to the queue as one entry. The slice is read lazily
// and is not copied.
func (b *Batch[T, R]) AddMany(items []T) error {
	return b.push(func() { b.queue.PushSlice(items) })
}

// AddIterator appends an open-ended producer to the queue. Nothing is pulled
// from it until the drive loop reaches it. If the iterator fails, its entry
// is dropped and processing continues with the next entry.
func (b *Batch[T, R]) AddIterator(it queue.Iterator[T]) error {
	return b.push(func() { b.queue.PushIterator(it) })
}

func (b *Batch[T, R]) push(fn func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destructed {
		return ErrDestructed
	}

	fn()
	b.adds++
	if b.waitingForData {
		b.waitingForData = false
		b.dataSignal.Resolve(struct{}{})
		b.dataSignal = deferred.New[struct{}]()
	}
	return nil
}

// Start resumes dispatching. It is a no-op if the Batch is already started.
func (b *Batch[T, R]) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destructed {
		return ErrDestructed
	}
	if b.started {
		return nil
	}

	b.started = true
	b.startSignal.Resolve(struct{}{})
	b.startSignal = deferred.New[struct{}]()
	return nil
}

// RequestPause stops new dispatches. In-flight actions are not interrupted.
// It is a no-op if the Batch is already paused.
func (b *Batch[T, R]) RequestPause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
}

// Stop is an alias of RequestPause.
func (b *Batch[T, R]) Stop() {
	b.RequestPause()
}

// Clear drops every queued item. Items already dispatched are unaffected.
// It returns false if a listener prevented it or the Batch is destructed.
func (b *Batch[T, R]) Clear() bool {
	if b.IsDestructed() {
		return false
	}

	before := &BeforeClearEvent[T, R]{origin: b.origin(), Prevention: event.NewPrevention(event.BeforeClear)}
	b.events.emit(before)
	if before.Prevented() {
		b.logger.Debug("Batch %s: clear prevented", b.id)
		return false
	}

	b.queue.Clear()
	b.logger.Debug("Batch %s: queue cleared", b.id)
	b.events.emit(&ClearedEvent[T, R]{origin: b.origin()})
	return true
}

// Destruct stops the Batch for good: it pauses, clears the queue and removes
// every listener. In-flight actions still run to completion, after which
// Done is closed. It returns false if a listener prevented it or the Batch
// was already destructed.
func (b *Batch[T, R]) Destruct() bool {
	if b.IsDestructed() {
		return false
	}

	ev := &WillDestructEvent[T, R]{origin: b.origin(), Prevention: event.NewPrevention(event.WillDestruct)}
	b.events.emit(ev)
	if ev.Prevented() {
		b.logger.Debug("Batch %s: destruct prevented", b.id)
		return false
	}

	return b.destruct()
}

func (b *Batch[T, R]) destruct() bool {
	b.mu.Lock()
	if b.destructed {
		b.mu.Unlock()
		return false
	}
	b.destructed = true
	b.started = false
	b.waitingForData = false
	close(b.destroyed)
	cancel := b.cancelPull
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.queue.Clear()
	b.events.RemoveAll()
	b.logger.Info("Batch %s: destructed", b.id)
	return true
}

// UpdateAction replaces the action for items dispatched from now on.
func (b *Batch[T, R]) UpdateAction(action Action[T, R]) {
	if action == nil {
		panic("batch: nil action")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.action = action
}

// UpdateMaxConcurrency changes the concurrency ceiling. Lowering it never
// interrupts in-flight actions; the drive loop waits until enough of them
// have finished.
func (b *Batch[T, R]) UpdateMaxConcurrency(n int) {
	if n <= 0 {
		panic("batch: max concurrency must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxConcurrency = n
	b.capSignal.Resolve(struct{}{})
	b.capSignal = deferred.New[struct{}]()
}

// SetFilter sets the filter for items dispatched from now on. A nil filter
// accepts every item.
func (b *Batch[T, R]) SetFilter(filter Filter[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = filter
}

// CurrentConcurrency returns the number of items in flight.
func (b *Batch[T, R]) CurrentConcurrency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight
}

// MaxConcurrency returns the concurrency ceiling.
func (b *Batch[T, R]) MaxConcurrency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxConcurrency
}

// Pending returns the number of queue entries not yet fully drained.
func (b *Batch[T, R]) Pending() int {
	return b.queue.Len()
}

// IsStarted reports whether the batch is dispatching items.
func (b *Batch[T, R]) IsStarted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.started
}

// IsPaused reports whether the batch is paused. It is the negation of IsStarted.
func (b *Batch[T, R]) IsPaused() bool {
	return !b.IsStarted()
}

// IsWaitingForData reports whether the queue ran dry since the last dispatch.
func (b *Batch[T, R]) IsWaitingForData() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waitingForData
}

// IsDestructed reports whether the batch has been destructed.
func (b *Batch[T, R]) IsDestructed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destructed
}

func (b *Batch[T, R]) origin() origin[T, R] {
	return origin[T, R]{b: b}
}

// await blocks until sig fires. It returns false if the Batch was
// destructed first.
func (b *Batch[T, R]) await(sig <-chan struct{}) bool {
	select {
	case <-sig:
		return true
	case <-b.destroyed:
		return false
	}
}

// run is the drive loop. It is the only caller of queue.Next.
//
// Each iteration passes the pause gate, pulls one item, announces a start
// if this is the first item after a pause, charges the budget, dispatches
// the item to its own goroutine and waits for a free slot.
func (b *Batch[T, R]) run(ctx, pullCtx context.Context) {
	defer func() {
		b.wg.Wait()
		b.logger.Info("Batch %s: drive loop finished", b.id)
		close(b.done)
	}()

	announce := true
	alreadyPaused := false

	// Item k+1 may not announce processingStart before item k.
	lastTicket := make(chan struct{})
	close(lastTicket)

	for {
		// Pause gate.
		b.mu.Lock()
		if b.destructed {
			b.mu.Unlock()
			return
		}
		if !b.started {
			sig := b.startSignal
			b.mu.Unlock()

			if !alreadyPaused {
				alreadyPaused = true
				b.logger.Debug("Batch %s: paused", b.id)
				b.events.emit(&PausedEvent[T, R]{origin: b.origin()})
			}
			if !b.await(sig.Done()) {
				return
			}
			announce = true
			continue
		}
		b.mu.Unlock()

		// Data gate.
		item, ok, err := b.queue.Next(pullCtx)
		if err != nil {
			if pullCtx.Err() != nil {
				b.destruct()
				return
			}
			b.logger.Error("Batch %s: %v", b.id, err)
			b.stats.RecordSourceError()
			continue
		}
		if !ok {
			b.mu.Lock()
			if b.destructed {
				b.mu.Unlock()
				return
			}
			if !b.queue.Empty() {
				b.mu.Unlock()
				continue
			}
			b.waitingForData = true
			sig := b.dataSignal
			notify := b.inFlight == 0
			adds := b.adds
			b.mu.Unlock()

			if notify {
				b.notifyWaiting(adds)
			}
			if !b.await(sig.Done()) {
				return
			}
			continue
		}

		if announce {
			announce = false
			alreadyPaused = false
			b.logger.Debug("Batch %s: started", b.id)
			b.events.emit(&StartedEvent[T, R]{origin: b.origin()})
		}

		if b.budget != nil && !b.budget.admit() {
			b.queue.PushFront(item)
			b.logger.Debug("Batch %s: budget spent, waiting %v", b.id, b.budget.countdown.Remaining())
			if err := b.budget.countdown.Wait(pullCtx); err != nil {
				b.destruct()
				return
			}
			b.budget.reset()
			continue
		}

		// Dispatch.
		b.mu.Lock()
		if b.destructed {
			b.mu.Unlock()
			return
		}
		b.inFlight++
		seq := b.seq
		b.seq++
		action, filter := b.action, b.filter
		b.mu.Unlock()

		prev, ticket := lastTicket, make(chan struct{})
		lastTicket = ticket

		b.logger.Debug("Batch %s: dispatching item %d", b.id, seq)
		b.wg.Add(1)
		go b.process(ctx, seq, item, action, filter, prev, ticket)

		// Back-pressure.
		for {
			b.mu.Lock()
			if b.destructed {
				b.mu.Unlock()
				return
			}
			if b.inFlight < b.maxConcurrency {
				b.mu.Unlock()
				break
			}
			sig := b.capSignal
			b.mu.Unlock()

			if !b.await(sig.Done()) {
				return
			}
		}
	}
}

// notifyWaiting emits waitingForData and then applies auto-destruct if
// nothing was added while the listeners ran.
func (b *Batch[T, R]) notifyWaiting(adds uint64) {
	b.logger.Debug("Batch %s: waiting for data", b.id)
	b.events.emit(&WaitingForDataEvent[T, R]{origin: b.origin()})

	if !b.autoDestruct {
		return
	}

	b.mu.Lock()
	drained := !b.destructed && b.adds == adds && b.inFlight == 0 && b.queue.Empty()
	b.mu.Unlock()

	if drained {
		b.Destruct()
	}
}

// process runs one dispatched item to its end.
func (b *Batch[T, R]) process(ctx context.Context, seq uint64, item T, action Action[T, R], filter Filter[T], prev <-chan struct{}, ticket chan<- struct{}) {
	defer b.wg.Done()

	keep := b.accept(ctx, seq, item, filter)
	<-prev

	end := &ProcessingEndEvent[T, R]{origin: b.origin(), Seq: seq, Item: item}

	if !keep {
		close(ticket)
		b.logger.Debug("Batch %s: item %d skipped by filter", b.id, seq)
		b.stats.RecordItemSkipped()
		end.Outcome = Skipped
	} else {
		start := &ProcessingStartEvent[T, R]{
			origin:     b.origin(),
			Prevention: event.NewPrevention(event.ProcessingStart),
			Seq:        seq,
			Item:       item,
		}
		b.events.emit(start)
		close(ticket)

		if start.Prevented() {
			b.logger.Debug("Batch %s: item %d prevented", b.id, seq)
			b.stats.RecordItemSkipped()
			end.Outcome = Prevented
		} else {
			end.Result, end.Err = b.execute(ctx, seq, item, action)
			if end.Err != nil {
				end.Outcome = Failed
			}
		}
	}

	b.events.emit(end)

	b.mu.Lock()
	b.inFlight--
	notify := b.inFlight == 0 && b.waitingForData
	adds := b.adds
	b.capSignal.Resolve(struct{}{})
	b.capSignal = deferred.New[struct{}]()
	b.mu.Unlock()

	if notify {
		b.notifyWaiting(adds)
	}
}

// accept runs the filter. A failing or panicking filter rejects the item.
func (b *Batch[T, R]) accept(ctx context.Context, seq uint64, item T, filter Filter[T]) (keep bool) {
	if filter == nil {
		return true
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("Batch %s: filter panicked on item %d: %v", b.id, seq, r)
			keep = false
		}
	}()

	keep, err := filter(ctx, item)
	if err != nil {
		b.logger.Warn("Batch %s: filter failed on item %d: %v", b.id, seq, err)
		return false
	}
	return keep
}

// execute waits for rate limit admission, calls the action and emits the
// success or error event.
func (b *Batch[T, R]) execute(ctx context.Context, seq uint64, item T, action Action[T, R]) (R, error) {
	var zero R

	if b.limiter.Enabled() {
		waitStart := time.Now()
		if err := b.limiter.Acquire(ctx); err != nil {
			aerr := &ActionError{Seq: seq, Err: err}
			b.stats.RecordItemError()
			b.events.emit(&ProcessingErrorEvent[T, R]{origin: b.origin(), Seq: seq, Item: item, Err: aerr})
			return zero, aerr
		}
		b.stats.RecordRateLimitWait(time.Since(waitStart))
	}

	b.stats.RecordItemStart()
	callStart := time.Now()
	res, err := call(ctx, action, item)
	duration := time.Since(callStart)

	if err != nil {
		aerr := &ActionError{Seq: seq, Err: err}
		b.logger.Debug("Batch %s: item %d failed after %v: %v", b.id, seq, duration, err)
		b.stats.RecordItemError()
		b.events.emit(&ProcessingErrorEvent[T, R]{origin: b.origin(), Seq: seq, Item: item, Err: aerr})
		return res, aerr
	}

	b.logger.Debug("Batch %s: item %d succeeded in %v", b.id, seq, duration)
	b.stats.RecordItemComplete(duration)
	b.events.emit(&ProcessingSuccessEvent[T, R]{origin: b.origin(), Seq: seq, Item: item, Result: res})
	return res, nil
}

// call runs action, turning a panic into a *PanicError.
func call[T, R any](ctx context.Context, action Action[T, R], item T) (res R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return action(ctx, item)
}

// budget counts dispatches per countdown window.
type budget struct {
	countdown *ratelimit.Countdown
	max       int
	count     int
}

func newBudget(max int, window time.Duration) *budget {
	return &budget{countdown: ratelimit.NewCountdown(window), max: max}
}

// admit charges one dispatch. It returns false when the current window is
// spent.
func (bu *budget) admit() bool {
	bu.countdown.Start()
	if bu.countdown.Remaining() == 0 {
		bu.reset()
	}
	if bu.count >= bu.max {
		return false
	}
	bu.count++
	return true
}

func (bu *budget) reset() {
	bu.countdown.Reload()
	bu.count = 0
}
