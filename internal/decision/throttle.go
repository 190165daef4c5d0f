package decision

import (
	"sync"
	"time"
)

// DefaultNotifyInterval is the minimum gap between user-visible prompts.
const DefaultNotifyInterval = 15 * time.Second

// ShouldNotifyNow reports whether at least interval has elapsed since last.
// A zero last always allows.
func ShouldNotifyNow(last, now time.Time, interval time.Duration) bool {
	if last.IsZero() {
		return true
	}
	return now.Sub(last) >= interval
}

// Throttle is a single-slot rate limiter. Events inside the window are
// dropped, not queued.
type Throttle struct {
	mu       sync.Mutex
	clock    Clock
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a throttle. A nil clock means SystemClock and a
// non-positive interval means DefaultNotifyInterval.
func NewThrottle(clock Clock, interval time.Duration) *Throttle {
	if clock == nil {
		clock = SystemClock{}
	}
	if interval <= 0 {
		interval = DefaultNotifyInterval
	}
	return &Throttle{clock: clock, interval: interval}
}

// Allow reports whether a prompt may be shown now and, if so, records it.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if !ShouldNotifyNow(t.last, now, t.interval) {
		return false
	}
	t.last = now
	return true
}

// Last returns the time of the most recent allowed prompt.
func (t *Throttle) Last() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
