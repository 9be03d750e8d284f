package event

import "time"

// Metrics is a point-in-time snapshot of bus activity.
type Metrics struct {
	// TotalEvents counts every event accepted by Emit or EmitSync.
	TotalEvents uint64

	// EventsByType breaks TotalEvents down per event type.
	EventsByType map[Type]uint64

	// AverageProcessingTime is the cumulative moving average of delivery
	// time over all drained events.
	AverageProcessingTime time.Duration

	// DroppedEvents counts events refused because the queue was full.
	DroppedEvents uint64

	// QueueDepth is the current number of pending events.
	QueueDepth int

	// ListenerCounts is the current number of listeners per type. This is
	// live structural state, not history, and survives ResetMetrics.
	ListenerCounts map[Type]int
}

// Metrics returns a snapshot of the bus counters.
func (b *Bus) Metrics() Metrics {
	m := Metrics{
		TotalEvents:   b.totalEvents.Load(),
		DroppedEvents: b.droppedEvents.Load(),
	}

	if n := b.processedCount.Load(); n > 0 {
		m.AverageProcessingTime = time.Duration(b.processingNs.Load() / int64(n))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	m.QueueDepth = len(b.queue)
	m.EventsByType = make(map[Type]uint64, len(b.byType))
	for t, n := range b.byType {
		m.EventsByType[t] = n
	}
	m.ListenerCounts = make(map[Type]int, len(b.listeners))
	for t, subs := range b.listeners {
		m.ListenerCounts[t] = len(subs)
	}
	return m
}

// ResetMetrics clears the historical counters. Listener counts are a live
// structural fact and are intentionally unaffected.
func (b *Bus) ResetMetrics() {
	b.totalEvents.Store(0)
	b.droppedEvents.Store(0)
	b.processedCount.Store(0)
	b.processingNs.Store(0)

	b.mu.Lock()
	b.byType = make(map[Type]uint64)
	b.mu.Unlock()
}
