package sched

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/glintui/glint/internal/easing"
)

// Sentinel errors for the scheduler lifecycle.
var (
	ErrAlreadyRunning = errors.New("scheduler is already running")
	ErrNotRunning     = errors.New("scheduler is not running")
)

// Adaptive frame-rate bounds.
const (
	minTargetFPS = 30
	maxTargetFPS = 120
	fpsStep      = 5
)

// ErrorHook receives task failures. When unset, failures are logged.
type ErrorHook func(taskID string, err error)

// frameCallback is a one-shot callback fired on the next frame.
type frameCallback struct {
	id uint64
	fn func()
}

// Scheduler owns the task list, the active animation set and the frame
// pump that advances both.
type Scheduler struct {
	mu         sync.Mutex
	tasks      []*Task
	animations map[string]*Animation
	frameCBs   []frameCallback
	stats      frameStats

	beforeFrame func()
	afterFrame  func()

	targetFPS         int
	maxTasksPerFrame  int
	adaptive          bool
	adaptiveThreshold float64

	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}
	nextCB  atomic.Uint64

	errorHook ErrorHook
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTargetFPS sets the initial target frame rate.
func WithTargetFPS(fps int) Option {
	return func(s *Scheduler) {
		if fps > 0 {
			s.targetFPS = fps
		}
	}
}

// WithMaxTasksPerFrame bounds how many due tasks run in one frame; the
// backlog carries over instead of blowing the frame budget.
func WithMaxTasksPerFrame(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxTasksPerFrame = n
		}
	}
}

// WithAdaptiveFPS enables adaptive frame-rate control. The threshold is
// the overload factor: the target drops when the average frame time
// exceeds threshold times the target interval.
func WithAdaptiveFPS(threshold float64) Option {
	return func(s *Scheduler) {
		s.adaptive = true
		if threshold > 0 {
			s.adaptiveThreshold = threshold
		}
	}
}

// WithErrorHook routes task failures to h instead of the logger.
func WithErrorHook(h ErrorHook) Option {
	return func(s *Scheduler) { s.errorHook = h }
}

// WithLogger sets the logger used for task failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		animations:        make(map[string]*Animation),
		targetFPS:         60,
		maxTasksPerFrame:  10,
		adaptiveThreshold: 1.2,
		logger:            zap.NewNop(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the frame pump. The pump stops when Stop is called or
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx)
	return nil
}

// Stop halts the frame pump and waits for the current frame to finish.
func (s *Scheduler) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}
	close(s.stopCh)
	<-s.done
	return nil
}

// IsRunning reports whether the frame pump is active.
func (s *Scheduler) IsRunning() bool { return s.running.Load() }

// loop is the frame pump. Each tick advances one frame, then sleeps for
// the remainder of the target interval (clamped at zero when the frame
// overran).
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	defer s.running.Store(false)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-timer.C:
		}

		start := s.now()
		s.step(ctx, start)

		delay := s.targetInterval() - s.now().Sub(start)
		if delay < 0 {
			delay = 0
		}
		timer.Reset(delay)
	}
}

// step advances one frame at the given instant. Exposed to tests via
// direct calls so frame behavior is deterministic without a live pump.
func (s *Scheduler) step(ctx context.Context, now time.Time) {
	s.mu.Lock()
	before, after := s.beforeFrame, s.afterFrame
	s.mu.Unlock()

	if before != nil {
		before()
	}

	s.mu.Lock()
	target := s.intervalLocked()
	var delta time.Duration
	if !s.stats.lastFrame.IsZero() {
		delta = now.Sub(s.stats.lastFrame)
	}
	s.stats.record(now, delta, target)
	s.mu.Unlock()

	s.processTasks(ctx, now)
	s.updateAnimations(now)
	s.fireFrameCallbacks()

	if s.adaptive {
		s.adaptFPS()
	}

	if after != nil {
		after()
	}
}

// targetInterval returns the current target frame interval.
func (s *Scheduler) targetInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.intervalLocked()
}

func (s *Scheduler) intervalLocked() time.Duration {
	return time.Second / time.Duration(s.targetFPS)
}

// TargetFPS returns the current target frame rate.
func (s *Scheduler) TargetFPS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetFPS
}

// SetTargetFPS changes the target frame rate, taking effect on the next
// frame. Used for live configuration reloads.
func (s *Scheduler) SetTargetFPS(fps int) {
	if fps <= 0 {
		return
	}
	s.mu.Lock()
	s.targetFPS = fps
	s.mu.Unlock()
}

// ScheduleTask queues fn to run after delay. Returns the task id.
func (s *Scheduler) ScheduleTask(fn TaskFunc, priority TaskPriority, delay time.Duration, opts ...TaskOption) string {
	now := s.now()
	t := &Task{
		id:          uuid.NewString(),
		fn:          fn,
		priority:    priority,
		status:      TaskPending,
		createdAt:   now,
		scheduledAt: now.Add(delay),
	}
	for _, opt := range opts {
		opt(t)
	}
	s.addTask(t)
	return t.id
}

// ScheduleRepeatingTask queues fn to run every interval. A negative
// repeat reruns indefinitely; otherwise the task runs 1+repeat times in
// total before being swept.
func (s *Scheduler) ScheduleRepeatingTask(fn TaskFunc, interval time.Duration, repeat int, priority TaskPriority, opts ...TaskOption) string {
	now := s.now()
	t := &Task{
		id:          uuid.NewString(),
		fn:          fn,
		priority:    priority,
		status:      TaskPending,
		createdAt:   now,
		scheduledAt: now.Add(interval),
		interval:    interval,
	}
	if repeat >= 0 {
		t.repeat = repeat
		t.hasRepeat = true
	}
	for _, opt := range opts {
		opt(t)
	}
	s.addTask(t)
	return t.id
}

// addTask inserts a task keeping the list sorted.
func (s *Scheduler) addTask(t *Task) {
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.sortTasksLocked()
	s.mu.Unlock()
}

// sortTasksLocked keeps the task list ordered by (priority, scheduledAt).
func (s *Scheduler) sortTasksLocked() {
	sort.SliceStable(s.tasks, func(i, j int) bool {
		a, b := s.tasks[i], s.tasks[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.scheduledAt.Before(b.scheduledAt)
	})
}

// CancelTask prevents a task from running again. The entry is swept on
// the next cleanup pass rather than spliced out immediately. Returns
// whether a live task was found.
func (s *Scheduler) CancelTask(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.id == id {
			if t.status == TaskCancelled || t.status == TaskCompleted {
				return false
			}
			t.status = TaskCancelled
			return true
		}
	}
	return false
}

// TaskCount returns the number of tasks currently tracked.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// processTasks runs due tasks for this frame: up to maxTasksPerFrame
// pending tasks whose scheduledAt has arrived, in (priority, scheduledAt)
// order, sequentially on the pump goroutine.
func (s *Scheduler) processTasks(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*Task, 0, s.maxTasksPerFrame)
	for _, t := range s.tasks {
		if len(due) >= s.maxTasksPerFrame {
			break
		}
		if t.status == TaskPending && !t.scheduledAt.After(now) {
			t.status = TaskRunning
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		err := s.runTask(ctx, t)
		s.settleTask(t, now, err)
	}

	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.survives() {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.sortTasksLocked()
	s.mu.Unlock()
}

// runTask executes one task with panic isolation.
func (s *Scheduler) runTask(ctx context.Context, t *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v\n%s", r, debug.Stack())
		}
	}()
	return t.fn(ctx)
}

// settleTask applies the post-run state transition: completion, repeat
// requeue, or failure with retry-on-interval.
func (s *Scheduler) settleTask(t *Task, now time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.status == TaskCancelled {
		// Cancelled mid-run: leave for the sweep.
		return
	}

	if err != nil {
		t.status = TaskFailed
		hook := s.errorHook
		s.mu.Unlock()
		if hook != nil {
			hook(t.id, err)
		} else {
			s.logger.Warn("task failed",
				zap.String("task_id", t.id),
				zap.Error(err))
		}
		s.mu.Lock()

		if t.status == TaskCancelled {
			// Cancelled from the hook or another goroutine.
			return
		}
		// A repeating task retries on its next scheduled tick.
		if t.interval > 0 {
			t.status = TaskPending
			t.scheduledAt = now.Add(t.interval)
		}
		return
	}

	t.status = TaskCompleted
	if t.interval == 0 {
		return
	}
	if t.hasRepeat {
		if t.repeat <= 0 {
			// Countdown exhausted: the task is one-shot-completed.
			t.interval = 0
			return
		}
		t.repeat--
	}
	t.status = TaskPending
	t.scheduledAt = now.Add(t.interval)
}

// Animate starts a property tween and returns the animation id. The
// first value is written on the next frame.
func (s *Scheduler) Animate(target any, property string, from, to float64, duration time.Duration, name easing.Name, opts ...AnimOption) string {
	a := &Animation{
		id:        uuid.NewString(),
		target:    target,
		property:  property,
		from:      from,
		to:        to,
		duration:  duration,
		ease:      easing.For(name),
		startTime: s.now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	s.mu.Lock()
	s.animations[a.id] = a
	s.mu.Unlock()
	return a.id
}

// CancelAnimation removes an active animation, invoking its cancel
// callback. Returns whether the animation was active.
func (s *Scheduler) CancelAnimation(id string) bool {
	s.mu.Lock()
	a, ok := s.animations[id]
	if ok {
		delete(s.animations, id)
	}
	s.mu.Unlock()

	if ok && a.onCancel != nil {
		a.onCancel()
	}
	return ok
}

// ActiveAnimations returns the number of in-flight animations.
func (s *Scheduler) ActiveAnimations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.animations)
}

// updateAnimations advances every active animation to the given instant.
func (s *Scheduler) updateAnimations(now time.Time) {
	s.mu.Lock()
	active := make([]*Animation, 0, len(s.animations))
	for _, a := range s.animations {
		active = append(active, a)
	}
	s.mu.Unlock()

	for _, a := range active {
		progress := a.progressAt(now)
		value := a.from + (a.to-a.from)*a.ease(progress)

		a.apply(value)
		if a.onUpdate != nil {
			a.onUpdate(value)
		}

		if progress >= 1 {
			// Remove before the completion callback so a re-entrant
			// Animate with the same target starts clean. The presence
			// check keeps completion and cancellation mutually exclusive.
			s.mu.Lock()
			_, present := s.animations[a.id]
			delete(s.animations, a.id)
			s.mu.Unlock()

			if present && a.onComplete != nil {
				a.onComplete()
			}
		}
	}
}

// RequestFrame registers a one-shot callback fired on the next frame.
func (s *Scheduler) RequestFrame(fn func()) uint64 {
	id := s.nextCB.Add(1)
	s.mu.Lock()
	s.frameCBs = append(s.frameCBs, frameCallback{id: id, fn: fn})
	s.mu.Unlock()
	return id
}

// CancelFrameCallback removes a pending frame callback.
func (s *Scheduler) CancelFrameCallback(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cb := range s.frameCBs {
		if cb.id == id {
			s.frameCBs = append(s.frameCBs[:i], s.frameCBs[i+1:]...)
			return true
		}
	}
	return false
}

// fireFrameCallbacks runs and clears the pending one-shot callbacks.
// Callbacks registered while firing run on the following frame.
func (s *Scheduler) fireFrameCallbacks() {
	s.mu.Lock()
	cbs := s.frameCBs
	s.frameCBs = nil
	s.mu.Unlock()

	for _, cb := range cbs {
		cb.fn()
	}
}

// SetFrameCallbacks installs hooks invoked at the start and end of every
// frame. Either may be nil.
func (s *Scheduler) SetFrameCallbacks(before, after func()) {
	s.mu.Lock()
	s.beforeFrame = before
	s.afterFrame = after
	s.mu.Unlock()
}

// adaptFPS lowers the target frame rate when frames consistently overrun
// and raises it when there is ample headroom.
func (s *Scheduler) adaptFPS() {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg := s.stats.average()
	if avg == 0 {
		return
	}
	target := s.intervalLocked()

	switch {
	case float64(avg) > float64(target)*s.adaptiveThreshold:
		s.targetFPS -= fpsStep
		if s.targetFPS < minTargetFPS {
			s.targetFPS = minTargetFPS
		}
	case float64(avg) < float64(target)*0.5:
		s.targetFPS += fpsStep
		if s.targetFPS > maxTargetFPS {
			s.targetFPS = maxTargetFPS
		}
	}
}

// Throttle wraps fn so it runs at most once per target frame interval:
// immediately when the interval has elapsed since the last run, otherwise
// as a single trailing call on an upcoming frame.
func (s *Scheduler) Throttle(fn func()) func() {
	var mu sync.Mutex
	var last time.Time
	var pending bool

	return func() {
		mu.Lock()
		now := s.now()
		if now.Sub(last) >= s.targetInterval() {
			last = now
			mu.Unlock()
			fn()
			return
		}
		if pending {
			mu.Unlock()
			return
		}
		pending = true
		mu.Unlock()

		s.RequestFrame(func() {
			mu.Lock()
			pending = false
			last = s.now()
			mu.Unlock()
			fn()
		})
	}
}

// Debounce wraps fn so only the last call in a burst runs, after the
// quiet delay. The timer is independent of the frame pump.
func (s *Scheduler) Debounce(fn func(), delay time.Duration) func() {
	d := NewDebouncer(delay, fn)
	return d.Call
}

// Metrics returns a snapshot of frame pacing statistics.
func (s *Scheduler) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.snapshot()
}

// ResetMetrics clears all pacing samples and counters.
func (s *Scheduler) ResetMetrics() {
	s.mu.Lock()
	s.stats.reset()
	s.mu.Unlock()
}

// Clear discards all tasks, animations and pending frame callbacks
// without invoking completion or cancel callbacks.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	s.tasks = nil
	s.animations = make(map[string]*Animation)
	s.frameCBs = nil
	s.mu.Unlock()
}
