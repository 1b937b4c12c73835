// Package schedule tracks per-task run timestamps and decides readiness.
package schedule

import (
	"sync"
	"time"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// RunState is the mutable scheduling record kept for one task.
// ChildPID is only meaningful for background tasks; zero means no child.
type RunState struct {
	LastRunAt time.Time
	ChildPID  int
}

// Ready reports whether at least interval has elapsed since the last run.
// Missed intervals are never queued: a late check yields a single run.
func (s *RunState) Ready(now time.Time, interval time.Duration) bool {
	return now.Sub(s.LastRunAt) >= interval
}

// Reset anchors the state at the daemon's init time so the first run happens
// one interval after start.
func (s *RunState) Reset(at time.Time) {
	s.LastRunAt = at
	s.ChildPID = 0
}

// MarkRun records that the task was launched (background) or completed
// (foreground) at the given time.
func (s *RunState) MarkRun(at time.Time) {
	s.LastRunAt = at
}

// ManualClock is a settable Clock for tests and simulations.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the frozen time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
