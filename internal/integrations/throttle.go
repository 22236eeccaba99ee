package integrations

import (
	"sync"
	"time"
)

// Throttle enforces a per-camera minimum interval between actions. The first
// action for a camera is always allowed; subsequent ones are allowed only
// once the interval has elapsed since the last allowed action.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

// NewThrottle creates a throttle with the given minimum interval. A zero or
// negative interval allows every action.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether an action for cameraID may proceed, and records the
// attempt time if it may.
func (t *Throttle) Allow(cameraID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if t.interval > 0 {
		if last, ok := t.last[cameraID]; ok && now.Sub(last) < t.interval {
			return false
		}
	}
	t.last[cameraID] = now
	return true
}

// Reset clears the recorded action times.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = make(map[string]time.Time)
}
