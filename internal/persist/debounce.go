package persist

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a debounced write runs.
const DefaultDelay = 500 * time.Millisecond

// Debouncer collapses bursts of triggers into one call of fn. At most one
// timer is pending; each trigger cancels it and schedules a new one.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool

	runMu sync.Mutex
}

// NewDebouncer returns a Debouncer that runs fn after delay of quiet.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush runs a pending call immediately.
func (d *Debouncer) Flush() {
	if d.take(0, false) {
		d.run()
	}
}

// Stop cancels a pending call without running it.
func (d *Debouncer) Stop() {
	d.take(0, false)
}

func (d *Debouncer) fire(gen uint64) {
	if d.take(gen, true) {
		d.run()
	}
}

// take clears the pending call. When matchGen is set, a timer from an
// earlier generation is ignored.
func (d *Debouncer) take(gen uint64, matchGen bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending || (matchGen && gen != d.gen) {
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	return true
}

func (d *Debouncer) run() {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.fn()
}
