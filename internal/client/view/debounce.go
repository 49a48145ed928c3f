package view

import (
	"sync"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before a search runs.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the last of a burst of calls, once the burst has been
// quiet for the configured delay.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	running sync.WaitGroup
}

// NewDebouncer returns a Debouncer; a non-positive delay selects DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Call schedules fn, cancelling any call still pending.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.running.Add(1)
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.running.Done()
		fn()
	})
}

// Cancel drops a pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Flush runs a pending call right away and waits until any call already in
// flight has returned. It must not race with Call.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.pending
	stopped := d.timer != nil && d.timer.Stop()
	d.timer, d.pending = nil, nil
	d.mu.Unlock()

	if stopped {
		fn()
		d.running.Done()
	}
	d.running.Wait()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil && d.timer.Stop() {
		d.running.Done()
	}
	d.timer, d.pending = nil, nil
}
