package event

import (
	"context"

	"github.com/google/uuid"

	"github.com/glintui/glint/internal/event/cond"
)

// Handler processes a delivered event. Errors are caught by the bus,
// logged, and never stop delivery to the remaining listeners.
type Handler interface {
	Handle(ctx context.Context, ev *Event) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, ev *Event) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, ev *Event) error {
	return f(ctx, ev)
}

// FilterFunc is a predicate over an event. Return true to deliver.
type FilterFunc func(ev *Event) bool

// Listener is one subscription to an event type.
type Listener struct {
	id         string
	owner      any
	handler    Handler
	priority   Priority
	once       bool
	conditions []cond.Condition
	filter     FilterFunc
}

// ID returns the unique listener identifier.
func (l *Listener) ID() string { return l.id }

// Owner returns the owning component reference, or nil.
func (l *Listener) Owner() any { return l.owner }

// Priority returns the listener's execution priority.
func (l *Listener) Priority() Priority { return l.priority }

// SubscribeOption configures a subscription.
type SubscribeOption func(*Listener)

// WithPriority sets the listener's execution priority. Listeners with
// lower priority values run first.
func WithPriority(p Priority) SubscribeOption {
	return func(l *Listener) { l.priority = p }
}

// WithOnce auto-unsubscribes the listener after its first invocation,
// whether or not the handler succeeded.
func WithOnce() SubscribeOption {
	return func(l *Listener) { l.once = true }
}

// WithOwner associates the listener with a component so that
// UnsubscribeAll(owner) can remove it on teardown. When an event carries
// a Target, only listeners whose owner equals that target are notified.
func WithOwner(owner any) SubscribeOption {
	return func(l *Listener) { l.owner = owner }
}

// WithConditions attaches declarative conditions. All must hold for the
// listener to be notified.
func WithConditions(cs ...cond.Condition) SubscribeOption {
	return func(l *Listener) { l.conditions = append(l.conditions, cs...) }
}

// WithFilter attaches a predicate evaluated after conditions.
func WithFilter(f FilterFunc) SubscribeOption {
	return func(l *Listener) { l.filter = f }
}

// newListener builds a listener with defaults applied.
func newListener(h Handler, opts ...SubscribeOption) *Listener {
	l := &Listener{
		id:       uuid.NewString(),
		handler:  h,
		priority: PriorityNormal,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// wants reports whether the listener should be notified for ev.
func (l *Listener) wants(ev *Event) bool {
	// Targeted delivery: an addressed event only reaches the target's
	// own listeners.
	if ev.Target != nil && l.owner != nil && l.owner != ev.Target {
		return false
	}

	for _, c := range l.conditions {
		if !c.Match(conditionRoot(ev, c.Field)) {
			return false
		}
	}

	if l.filter != nil && !l.filter(ev) {
		return false
	}

	return true
}

// conditionRoot resolves a condition field to the event value it inspects.
func conditionRoot(ev *Event, f cond.Field) any {
	switch f {
	case cond.FieldSource:
		return ev.Source
	case cond.FieldTarget:
		return ev.Target
	case cond.FieldData:
		return ev.Data
	case cond.FieldMetadata:
		if ev.Metadata == nil {
			return nil
		}
		return ev.Metadata
	default:
		return nil
	}
}
