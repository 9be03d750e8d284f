package event

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Middleware intercepts every event before listener delivery. Middlewares
// run in registration order; each must call next() to continue the chain.
// A middleware that never calls next() silently suppresses delivery for
// that event. Middleware is trusted infrastructure code: panics are not
// recovered and propagate out of the Emit call that triggered the drain.
type Middleware func(ev *Event, next func())

// Bus is the priority event bus.
type Bus struct {
	mu         sync.Mutex
	listeners  map[Type][]*Listener
	queue      []*Event
	history    []*Event
	middleware []Middleware
	byType     map[Type]uint64

	draining atomic.Bool
	nextID   atomic.Uint64

	totalEvents    atomic.Uint64
	droppedEvents  atomic.Uint64
	processedCount atomic.Uint64
	processingNs   atomic.Int64

	maxQueueSize   int
	maxHistorySize int
	logger         *zap.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithMaxQueueSize bounds the pending event queue. Events emitted while
// the queue is full are counted as dropped, not delivered.
func WithMaxQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxQueueSize = n
		}
	}
}

// WithMaxHistorySize bounds the delivered-event history ring.
func WithMaxHistorySize(n int) Option {
	return func(b *Bus) {
		if n >= 0 {
			b.maxHistorySize = n
		}
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		listeners:      make(map[Type][]*Listener),
		byType:         make(map[Type]uint64),
		maxQueueSize:   1000,
		maxHistorySize: 100,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for an event type and returns the
// listener id. The listener list for a type is kept sorted ascending by
// priority; listeners of equal priority keep subscription order.
func (b *Bus) Subscribe(etype Type, h Handler, opts ...SubscribeOption) string {
	l := newListener(h, opts...)

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := append(b.listeners[etype], l)
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].priority < subs[j].priority
	})
	b.listeners[etype] = subs

	return l.id
}

// SubscribeFunc is a convenience wrapper for subscribing a function.
func (b *Bus) SubscribeFunc(etype Type, fn HandlerFunc, opts ...SubscribeOption) string {
	return b.Subscribe(etype, fn, opts...)
}

// Unsubscribe removes one listener. Returns whether it was found.
func (b *Bus) Unsubscribe(etype Type, listenerID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(etype, listenerID)
}

// removeLocked removes a listener by id. Caller holds b.mu.
func (b *Bus) removeLocked(etype Type, listenerID string) bool {
	subs := b.listeners[etype]
	for i, l := range subs {
		if l.id == listenerID {
			b.listeners[etype] = append(subs[:i], subs[i+1:]...)
			if len(b.listeners[etype]) == 0 {
				delete(b.listeners, etype)
			}
			return true
		}
	}
	return false
}

// UnsubscribeAll removes every listener, across all types, whose owner
// equals the given reference. Widgets call this on teardown so no handler
// outlives them.
func (b *Bus) UnsubscribeAll(owner any) {
	if owner == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for etype, subs := range b.listeners {
		kept := subs[:0]
		for _, l := range subs {
			if l.owner != owner {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			delete(b.listeners, etype)
		} else {
			b.listeners[etype] = kept
		}
	}
}

// Use appends a middleware to the interception chain.
func (b *Bus) Use(mw Middleware) {
	if mw == nil {
		return
	}
	b.mu.Lock()
	b.middleware = append(b.middleware, mw)
	b.mu.Unlock()
}

// Emit builds an event and enqueues it for delivery. If no drain is in
// progress the queue is drained synchronously before Emit returns;
// re-entrant emits from inside a handler only enqueue. When the queue is
// full the event is counted as dropped and returned undelivered.
func (b *Bus) Emit(ctx context.Context, etype Type, data any, opts ...EmitOption) *Event {
	ev := b.newEvent(etype, data, opts...)

	if !b.enqueue(ev) {
		return ev
	}

	b.drain(ctx)
	return ev
}

// EmitSync builds an event and delivers it immediately, bypassing the
// queue. Used for latency-sensitive one-off notifications.
func (b *Bus) EmitSync(ctx context.Context, etype Type, data any, opts ...EmitOption) *Event {
	ev := b.newEvent(etype, data, opts...)

	b.totalEvents.Add(1)
	b.mu.Lock()
	b.byType[etype]++
	b.mu.Unlock()

	if err := b.deliver(ctx, ev); err != nil {
		b.logger.Warn("synchronous delivery failed",
			zap.String("type", string(ev.Type)),
			zap.Uint64("event_id", ev.ID),
			zap.Error(err))
	}
	return ev
}

// newEvent builds an event with a fresh monotonic id.
func (b *Bus) newEvent(etype Type, data any, opts ...EmitOption) *Event {
	ev := &Event{
		ID:        b.nextID.Add(1),
		Type:      etype,
		Data:      data,
		Timestamp: time.Now(),
		Priority:  PriorityNormal,
	}
	for _, opt := range opts {
		opt(ev)
	}
	return ev
}

// enqueue places the event in the queue, front for urgent tiers and back
// for the rest. Returns false if the queue was full.
func (b *Bus) enqueue(ev *Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) >= b.maxQueueSize {
		b.droppedEvents.Add(1)
		return false
	}

	// Two-tier placement: only the two urgent tiers affect ordering.
	if ev.Priority <= PriorityHigh {
		b.queue = append([]*Event{ev}, b.queue...)
	} else {
		b.queue = append(b.queue, ev)
	}

	b.totalEvents.Add(1)
	b.byType[ev.Type]++
	return true
}

// drain delivers queued events until the queue is empty. Only one drain
// is active at a time; the retry loop closes the window where an event is
// enqueued just as the active drain finishes.
func (b *Bus) drain(ctx context.Context) {
	for {
		if !b.draining.CompareAndSwap(false, true) {
			return
		}
		b.drainQueue(ctx)
		if b.queueDepth() == 0 {
			return
		}
	}
}

// drainQueue processes events until the queue is empty, then releases the
// drain flag. The flag is released on panic too (middleware panics
// propagate to the emitter) so the bus cannot wedge.
func (b *Bus) drainQueue(ctx context.Context) {
	defer b.draining.Store(false)

	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		ev := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		if err := b.deliver(ctx, ev); err != nil && ev.Type != TypeError {
			// Surface delivery failures as an event. TypeError failures
			// are not re-emitted, capping the feedback loop.
			b.enqueue(b.newEvent(TypeError, map[string]any{
				"error":      err.Error(),
				"event_type": string(ev.Type),
				"event_id":   ev.ID,
			}, WithEventPriority(PriorityHigh)))
		}
	}
}

// deliver runs an event through the middleware chain, notifies listeners
// in priority order, bubbles along the source's parent chain, then
// retires the event into history and updates metrics. The returned error
// aggregates handler failures; it never includes middleware panics, which
// propagate.
func (b *Bus) deliver(ctx context.Context, ev *Event) error {
	start := time.Now()
	err := b.processEvent(ctx, ev)
	b.retire(ev, time.Since(start))
	return err
}

// processEvent implements the delivery algorithm.
func (b *Bus) processEvent(ctx context.Context, ev *Event) error {
	if !b.runMiddleware(ev) {
		return nil
	}
	if ev.halted() {
		return nil
	}

	var errs []error
	errs = append(errs, b.dispatch(ctx, ev)...)

	// Bubbling: rewrite Source to each parent in turn and re-deliver.
	// Iterative walk with a visited set; a cyclic hierarchy is a
	// programming error but must not hang the bus.
	if ev.Bubbles && !ev.halted() {
		visited := map[any]struct{}{}
		cur := ev.Source
		if cur != nil {
			visited[cur] = struct{}{}
		}
		for !ev.halted() {
			bub, ok := cur.(Bubbler)
			if !ok {
				break
			}
			parent, ok := bub.Parent()
			if !ok || parent == nil {
				break
			}
			if _, seen := visited[parent]; seen {
				b.logger.Warn("bubble cycle detected",
					zap.String("type", string(ev.Type)),
					zap.Uint64("event_id", ev.ID))
				break
			}
			visited[parent] = struct{}{}

			ev.Source = parent
			errs = append(errs, b.dispatch(ctx, ev)...)
			cur = parent
		}
	}

	return errors.Join(errs...)
}

// runMiddleware executes the chain in registration order. Returns false
// if some middleware did not call next(), which suppresses delivery.
func (b *Bus) runMiddleware(ev *Event) bool {
	b.mu.Lock()
	chain := make([]Middleware, len(b.middleware))
	copy(chain, b.middleware)
	b.mu.Unlock()

	if len(chain) == 0 {
		return true
	}

	completed := false
	var run func(i int)
	run = func(i int) {
		if i >= len(chain) {
			completed = true
			return
		}
		chain[i](ev, func() { run(i + 1) })
	}
	run(0)
	return completed
}

// dispatch notifies the current listeners for ev.Type. The notify list is
// built first, then handlers run in order, stopping early when the event
// is halted mid-iteration. Once listeners are removed immediately after
// invocation, even if the handler failed.
func (b *Bus) dispatch(ctx context.Context, ev *Event) []error {
	b.mu.Lock()
	subs := b.listeners[ev.Type]
	notify := make([]*Listener, 0, len(subs))
	for _, l := range subs {
		if l.wants(ev) {
			notify = append(notify, l)
		}
	}
	b.mu.Unlock()

	var errs []error
	for _, l := range notify {
		if ev.halted() {
			break
		}

		err := b.invoke(ctx, l, ev)
		if l.once {
			b.Unsubscribe(ev.Type, l.id)
		}
		if err != nil {
			b.logger.Warn("listener failed",
				zap.String("type", string(ev.Type)),
				zap.Uint64("event_id", ev.ID),
				zap.String("listener_id", l.id),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("listener %s: %w", l.id, err))
		}
	}
	return errs
}

// invoke runs one handler with panic isolation.
func (b *Bus) invoke(ctx context.Context, l *Listener, ev *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v\n%s", r, debug.Stack())
		}
	}()
	return l.handler.Handle(ctx, ev)
}

// retire pushes the event into the history ring and updates metrics.
func (b *Bus) retire(ev *Event, elapsed time.Duration) {
	b.processedCount.Add(1)
	b.processingNs.Add(elapsed.Nanoseconds())

	if b.maxHistorySize == 0 {
		return
	}

	b.mu.Lock()
	b.history = append(b.history, ev)
	if len(b.history) > b.maxHistorySize {
		b.history = b.history[len(b.history)-b.maxHistorySize:]
	}
	b.mu.Unlock()
}

// HasListeners reports whether any listener is subscribed to the type.
func (b *Bus) HasListeners(etype Type) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[etype]) > 0
}

// ListenerCount returns the number of listeners for the type.
func (b *Bus) ListenerCount(etype Type) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[etype])
}

// History returns a copy of the retained delivered events, oldest first.
func (b *Bus) History() []*Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Event, len(b.history))
	copy(out, b.history)
	return out
}

// ClearHistory discards the retained history.
func (b *Bus) ClearHistory() {
	b.mu.Lock()
	b.history = nil
	b.mu.Unlock()
}

// queueDepth returns the number of pending events.
func (b *Bus) queueDepth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Clear removes all listeners, pending events and history. Middleware and
// metrics are retained.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.listeners = make(map[Type][]*Listener)
	b.queue = nil
	b.history = nil
	b.mu.Unlock()
}
