package event

import (
	"time"
)

// Type is the string tag identifying a kind of event (e.g. "widget.focus").
type Type string

// TypeError is emitted by the bus itself when delivery of a queued event
// fails. Handler failures for TypeError events are never re-emitted, which
// caps the error feedback loop at one level.
const TypeError Type = "error"

// Priority determines both queue placement and listener execution order.
// Lower values are more urgent.
type Priority int

// Event priorities. Critical and High events jump to the front of the
// queue; the rest drain in FIFO order.
const (
	PriorityCritical   Priority = 0
	PriorityHigh       Priority = 1
	PriorityNormal     Priority = 2
	PriorityLow        Priority = 3
	PriorityBackground Priority = 4
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	case PriorityBackground:
		return "background"
	default:
		return "unknown"
	}
}

// Event is one published occurrence. Events are mutated only by middleware
// and listeners (cancel, stop propagation, bubble rewrite of Source), and
// only on the goroutine currently draining the bus.
type Event struct {
	// ID is unique and monotonically increasing per bus.
	ID uint64

	// Type tags the event kind.
	Type Type

	// Source is the component that published the event. Bubbling rewrites
	// Source to the parent at each hierarchy level.
	Source any

	// Target optionally addresses the event to one component. When set,
	// only listeners whose owner equals Target are notified.
	Target any

	// Data is the opaque payload. The bus never inspects its shape except
	// through the condition evaluator.
	Data any

	// Timestamp is when the event was built.
	Timestamp time.Time

	// Priority controls queue placement.
	Priority Priority

	// Cancelable allows listeners and middleware to cancel the event.
	Cancelable bool

	// Bubbles re-delivers the event up the source's parent chain.
	Bubbles bool

	// Metadata carries out-of-band key/value annotations.
	Metadata map[string]any

	canceled           bool
	propagationStopped bool
}

// Cancel marks a cancelable event as canceled. Canceled events are not
// delivered to further listeners.
func (e *Event) Cancel() {
	if e.Cancelable {
		e.canceled = true
	}
}

// Canceled reports whether the event has been canceled.
func (e *Event) Canceled() bool { return e.canceled }

// StopPropagation prevents delivery to any remaining listeners, including
// bubble targets.
func (e *Event) StopPropagation() { e.propagationStopped = true }

// PropagationStopped reports whether propagation has been stopped.
func (e *Event) PropagationStopped() bool { return e.propagationStopped }

// halted reports whether delivery should stop for this event. A canceled
// event is treated exactly like one whose propagation was stopped.
func (e *Event) halted() bool { return e.propagationStopped || e.canceled }

// Bubbler is implemented by components that participate in event bubbling.
// The bus walks the parent chain iteratively with a cycle guard; a cyclic
// hierarchy is a programming error, not a condition the bus corrects.
type Bubbler interface {
	Parent() (any, bool)
}

// EmitOption configures an event at publish time.
type EmitOption func(*Event)

// WithSource sets the publishing component.
func WithSource(source any) EmitOption {
	return func(e *Event) { e.Source = source }
}

// WithTarget addresses the event to a single component.
func WithTarget(target any) EmitOption {
	return func(e *Event) { e.Target = target }
}

// WithEventPriority sets the queue placement priority.
func WithEventPriority(p Priority) EmitOption {
	return func(e *Event) { e.Priority = p }
}

// WithBubbles enables bubbling up the source's parent chain.
func WithBubbles() EmitOption {
	return func(e *Event) { e.Bubbles = true }
}

// WithCancelable allows listeners to cancel the event.
func WithCancelable() EmitOption {
	return func(e *Event) { e.Cancelable = true }
}

// WithMetadata attaches key/value annotations.
func WithMetadata(md map[string]any) EmitOption {
	return func(e *Event) { e.Metadata = md }
}
