package schedule

import (
	"sync"
	"time"
)

// Handle identifies a scheduled task. The zero handle is never issued.
type Handle uint64

// Scheduler runs tasks after a delay. Cancel reports whether the task was
// still waiting; a cancelled task never runs.
type Scheduler interface {
	Schedule(delay time.Duration, fn func()) Handle
	Cancel(h Handle) bool
	Now() time.Time
}

// RealClock schedules on the runtime timers.
type RealClock struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
}

func NewRealClock() *RealClock {
	return &RealClock{timers: make(map[Handle]*time.Timer)}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}

func (c *RealClock) Schedule(delay time.Duration, fn func()) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	h := c.next
	c.timers[h] = time.AfterFunc(delay, func() {
		c.mu.Lock()
		_, ok := c.timers[h]
		delete(c.timers, h)
		c.mu.Unlock()
		if ok {
			fn()
		}
	})
	return h
}

func (c *RealClock) Cancel(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.timers[h]
	if !ok {
		return false
	}
	delete(c.timers, h)
	t.Stop()
	return true
}
