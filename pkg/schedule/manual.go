package schedule

import (
	"slices"
	"sync"
	"time"
)

type manualTask struct {
	handle Handle
	due    time.Time
	fn     func()
}

// ManualClock only moves when Advance is called. Tasks run on the caller's
// goroutine in due order.
type ManualClock struct {
	mu    sync.Mutex
	now   time.Time
	next  Handle
	tasks []manualTask
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Schedule(delay time.Duration, fn func()) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.tasks = append(c.tasks, manualTask{handle: c.next, due: c.now.Add(delay), fn: fn})
	return c.next
}

func (c *ManualClock) Cancel(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := slices.IndexFunc(c.tasks, func(t manualTask) bool { return t.handle == h })
	if idx < 0 {
		return false
	}
	c.tasks = slices.Delete(c.tasks, idx, idx+1)
	return true
}

// Pending is the number of tasks waiting to run.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

// Advance moves the clock forward, running every task that falls due,
// including tasks scheduled by tasks run during the advance.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		idx := -1
		for i, t := range c.tasks {
			if t.due.After(target) {
				continue
			}
			if idx < 0 || t.due.Before(c.tasks[idx].due) {
				idx = i
			}
		}
		if idx < 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		task := c.tasks[idx]
		c.tasks = slices.Delete(c.tasks, idx, idx+1)
		if task.due.After(c.now) {
			c.now = task.due
		}
		c.mu.Unlock()
		task.fn()
	}
}
