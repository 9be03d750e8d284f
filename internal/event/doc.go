// Package event implements the priority event bus that widgets, the state
// store and the render pipeline use to communicate.
//
// The bus delivers events to listeners in ascending priority order, with a
// bounded two-tier queue (critical and high priority events jump ahead of
// the FIFO tail), a middleware chain for interception, declarative
// per-listener conditions, ownership-scoped unsubscription, bubbling along
// a parent hierarchy, a capped delivery history and running metrics.
//
// Delivery is strictly serialized: only one drain is active at a time, and
// re-entrant Emit calls made from inside a handler simply enqueue. Widgets
// subscribe at construction and must call UnsubscribeAll with their owner
// reference on teardown so no handler outlives its widget.
package event
