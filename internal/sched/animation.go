package sched

import (
	"time"

	"github.com/glintui/glint/internal/easing"
)

// Animatable receives interpolated property values each frame.
type Animatable interface {
	SetProperty(name string, value float64)
}

// Invalidator marks a target dirty for re-render after a property write.
// Targets that implement it are invalidated once per animation frame.
type Invalidator interface {
	Invalidate()
}

// Animation is one active property tween.
type Animation struct {
	id        string
	target    any
	property  string
	from, to  float64
	duration  time.Duration
	ease      easing.Func
	startTime time.Time

	onUpdate   func(value float64)
	onComplete func()
	onCancel   func()
}

// ID returns the unique animation identifier.
func (a *Animation) ID() string { return a.id }

// Property returns the animated property name.
func (a *Animation) Property() string { return a.property }

// AnimOption configures an animation.
type AnimOption func(*Animation)

// OnUpdate registers a callback invoked with each interpolated value.
// Widgets read the evolving value here, never by polling the scheduler.
func OnUpdate(fn func(value float64)) AnimOption {
	return func(a *Animation) { a.onUpdate = fn }
}

// OnComplete registers a callback invoked exactly once when the
// animation first reaches full progress.
func OnComplete(fn func()) AnimOption {
	return func(a *Animation) { a.onComplete = fn }
}

// OnCancel registers a callback invoked when the animation is cancelled
// before completing.
func OnCancel(fn func()) AnimOption {
	return func(a *Animation) { a.onCancel = fn }
}

// progressAt returns clamped linear progress at the given instant.
func (a *Animation) progressAt(now time.Time) float64 {
	if a.duration <= 0 {
		return 1
	}
	p := float64(now.Sub(a.startTime)) / float64(a.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// apply writes the interpolated value into the target's property slot and
// marks the target dirty.
func (a *Animation) apply(value float64) {
	switch tgt := a.target.(type) {
	case Animatable:
		tgt.SetProperty(a.property, value)
	case map[string]float64:
		tgt[a.property] = value
	}
	if inv, ok := a.target.(Invalidator); ok {
		inv.Invalidate()
	}
}
