package service

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single callback invocation,
// fired after the configured quiet window. Each Trigger resets the window.
//
// The role watcher uses this to avoid re-resolving against a half-applied
// multi-statement remote transaction: the callback runs only once the
// change-event burst has settled.
type Debouncer struct {
	window time.Duration
	fn     func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewDebouncer returns a Debouncer that invokes fn after window has elapsed
// without a new Trigger.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{window: window, fn: fn}
}

// Trigger schedules (or reschedules) the callback.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fn)
}

// Stop cancels any pending callback. The Debouncer is unusable afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
