package form

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// debouncer runs the most recently triggered function once the quiet period
// has elapsed. A generation counter makes superseded timers no-ops even when
// Stop loses the race with the timer firing.
type debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu    sync.Mutex
	gen   uint64
	timer *clock.Timer
	fn    func()
}

func newDebouncer(c clock.Clock, delay time.Duration) *debouncer {
	return &debouncer{clock: c, delay: delay}
}

// Trigger (re)arms the timer with fn.
func (d *debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.fn = fn
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if gen != d.gen {
			return
		}
		d.timer = nil
		run := d.fn
		d.fn = nil
		run()
	})
}

// Cancel drops any pending run.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Flush runs a pending function immediately.
func (d *debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	run := d.fn
	d.stopLocked()
	if run != nil {
		run()
	}
}

func (d *debouncer) stopLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.fn = nil
}
