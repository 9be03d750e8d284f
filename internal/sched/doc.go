// Package sched implements the frame-paced task and animation scheduler.
//
// A single frame pump goroutine advances everything once per frame:
// due tasks run in (priority, scheduledAt) order under a per-frame budget,
// active animations interpolate their target property through an easing
// curve, one-shot frame callbacks fire, and frame metrics update. The pump
// computes each sleep from the target frame interval minus elapsed time,
// so pacing adapts to how long the frame took; an optional adaptive mode
// additionally raises or lowers the target frame rate with measured load.
//
// All task and animation execution happens on the pump goroutine.
// Schedule and cancel calls are safe from any goroutine but only take
// effect between frames; nothing is preempted mid-execution.
package sched
