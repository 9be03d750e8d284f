package sched

import (
	"sync"
	"time"
)

// Debouncer groups rapid successive calls into one trailing call after a
// quiet period. It runs on its own timer, independent of the frame pump.
//
// All methods are safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	seq      uint64 // invalidates stale timer callbacks
	callback func()
}

// NewDebouncer creates a debouncer invoking callback after no new Call
// has arrived for delay.
func NewDebouncer(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{delay: delay, callback: callback}
}

// Call schedules the callback after the debounce delay, replacing any
// previously scheduled call.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := d.seq != seq
		d.mu.Unlock()
		if !stale && d.callback != nil {
			d.callback()
		}
	})
}

// Cancel discards any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}
