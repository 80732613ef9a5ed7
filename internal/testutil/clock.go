package testutil

import (
	"sync"
	"time"
)

// ManualClock provides a thread-safe, manually advanced wall clock for
// tests.
//
// Unlike state.SystemClock, ManualClock only moves when told to. This
// lets TTL expiry and backup retention tests assert exact before/after
// behavior without sleeping.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock frozen at the given instant.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current instant without advancing it.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SetNow jumps the clock to a specific instant.
//
// Used when a test needs an absolute timestamp (e.g. golden histories).
func (c *ManualClock) SetNow(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
