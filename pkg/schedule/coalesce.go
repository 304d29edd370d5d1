package schedule

import (
	"sync"
	"time"
)

const DefaultFrameSpacing = 16 * time.Millisecond

// Coalescer collapses bursts of recompute requests. A request while a run
// is in flight, or inside the spacing window after one, only marks the
// coalescer pending; the pending request is drained once the window ends.
type Coalescer struct {
	mu       sync.Mutex
	sched    Scheduler
	spacing  time.Duration
	run      func()
	inFlight bool
	waiting  bool
	pending  bool
	runs     int
}

func NewCoalescer(sched Scheduler, spacing time.Duration, run func()) *Coalescer {
	if spacing <= 0 {
		spacing = DefaultFrameSpacing
	}
	return &Coalescer{
		sched:   sched,
		spacing: spacing,
		run:     run,
	}
}

// Request runs immediately when idle and otherwise defers to the next
// window.
func (c *Coalescer) Request() {
	c.mu.Lock()
	if c.inFlight || c.waiting {
		c.pending = true
		c.mu.Unlock()
		return
	}
	c.inFlight = true
	c.mu.Unlock()
	c.execute()
}

func (c *Coalescer) execute() {
	c.run()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	c.runs++
	c.waiting = true
	c.sched.Schedule(c.spacing, c.windowClosed)
}

func (c *Coalescer) windowClosed() {
	c.mu.Lock()
	c.waiting = false
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.inFlight = true
	c.mu.Unlock()
	c.execute()
}

// Runs is the number of completed runs.
func (c *Coalescer) Runs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs
}

func (c *Coalescer) IsPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}
