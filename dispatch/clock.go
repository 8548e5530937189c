package dispatch

import (
	"sync"
	"time"
)

// LockClock measures how long the local shape has been resting. It only
// feeds the render-time lock fraction and never affects game state.
type LockClock struct {
	mu       sync.Mutex
	elapsed  time.Duration
	lockTime time.Duration
}

func NewLockClock(lockTime time.Duration) *LockClock {
	return &LockClock{lockTime: lockTime}
}

func (c *LockClock) Reset() {
	c.mu.Lock()
	c.elapsed = 0
	c.mu.Unlock()
}

func (c *LockClock) Advance(dt time.Duration) {
	c.mu.Lock()
	c.elapsed += dt
	c.mu.Unlock()
}

// Fraction returns elapsed / lock time clamped to [0, 1].
func (c *LockClock) Fraction() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lockTime <= 0 {
		return 1
	}
	return min(max(float64(c.elapsed)/float64(c.lockTime), 0), 1)
}
