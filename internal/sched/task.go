package sched

import (
	"context"
	"time"
)

// TaskFunc is one deferred unit of work. It runs on the frame pump
// goroutine; long-running work should watch ctx and yield.
type TaskFunc func(ctx context.Context) error

// TaskPriority determines task execution order within a frame.
// Lower values run first.
type TaskPriority int

// Task priorities.
const (
	TaskImmediate TaskPriority = 0
	TaskHigh      TaskPriority = 1
	TaskNormal    TaskPriority = 2
	TaskLow       TaskPriority = 3
	TaskIdle      TaskPriority = 4
)

// String returns a human-readable priority name.
func (p TaskPriority) String() string {
	switch p {
	case TaskImmediate:
		return "immediate"
	case TaskHigh:
		return "high"
	case TaskNormal:
		return "normal"
	case TaskLow:
		return "low"
	case TaskIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus int

// Task states. Pending -> Running -> Completed or Failed; Failed returns
// to Pending when the task has a surviving interval; any state can move
// to Cancelled, which is swept on the next cleanup pass.
const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskCancelled
	TaskFailed
)

// String returns a human-readable status name.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskCancelled:
		return "cancelled"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is one scheduled unit of work. All fields are guarded by the
// scheduler's mutex after submission.
type Task struct {
	id          string
	fn          TaskFunc
	priority    TaskPriority
	status      TaskStatus
	createdAt   time.Time
	scheduledAt time.Time

	// interval, when non-zero, requeues the task after each run.
	interval time.Duration

	// repeat counts remaining reruns when hasRepeat is set; an interval
	// without repeat reruns indefinitely.
	repeat    int
	hasRepeat bool

	owner    any
	metadata map[string]any
}

// ID returns the unique task identifier.
func (t *Task) ID() string { return t.id }

// TaskOption configures a scheduled task.
type TaskOption func(*Task)

// WithTaskOwner associates the task with a component for bookkeeping.
func WithTaskOwner(owner any) TaskOption {
	return func(t *Task) { t.owner = owner }
}

// WithTaskMetadata attaches key/value annotations.
func WithTaskMetadata(md map[string]any) TaskOption {
	return func(t *Task) { t.metadata = md }
}

// survives reports whether the task should be kept by the cleanup pass.
func (t *Task) survives() bool {
	switch t.status {
	case TaskPending, TaskRunning:
		return true
	case TaskFailed:
		return t.interval > 0
	default:
		return false
	}
}
