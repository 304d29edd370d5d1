package schedule

import (
	"sync"
	"time"
)

// Debouncer groups rapid successive calls into a single callback after a
// quiet period. A new call invalidates the previously scheduled one.
type Debouncer struct {
	mu       sync.Mutex
	sched    Scheduler
	delay    time.Duration
	handle   Handle
	pending  bool
	seq      uint64
	callback func()
}

func NewDebouncer(sched Scheduler, delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		sched:    sched,
		delay:    delay,
		callback: callback,
	}
}

func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	currentSeq := d.seq
	if d.handle != 0 {
		d.sched.Cancel(d.handle)
	}
	d.handle = d.sched.Schedule(d.delay, func() {
		d.mu.Lock()
		if d.pending && d.seq == currentSeq && d.callback != nil {
			d.pending = false
			d.handle = 0
			d.mu.Unlock()
			d.callback()
			return
		}
		d.mu.Unlock()
	})
}

// Flush runs a pending callback now instead of waiting for the delay.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.handle != 0 {
		d.sched.Cancel(d.handle)
		d.handle = 0
	}
	d.seq++
	if d.pending && d.callback != nil {
		d.pending = false
		d.mu.Unlock()
		d.callback()
		return
	}
	d.mu.Unlock()
}

func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle != 0 {
		d.sched.Cancel(d.handle)
		d.handle = 0
	}
	d.seq++
	d.pending = false
}

func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
