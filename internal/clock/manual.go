package clock

import (
	"context"
	"sync"
	"time"
)

// Manual is a virtual clock. Sleep returns immediately after moving Now
// forward; intervals only fire when Tick or Advance is called.
type Manual struct {
	mu        sync.Mutex
	now       time.Time
	slept     time.Duration
	nextID    int
	intervals []*interval
}

type interval struct {
	id      int
	fn      func()
	stopped bool
}

// NewManual returns a Manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.slept += d
	m.mu.Unlock()
	return nil
}

// Every registers fn. The period is ignored: every registered interval
// fires once per Tick.
func (m *Manual) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	m.nextID++
	iv := &interval{id: m.nextID, fn: fn}
	m.intervals = append(m.intervals, iv)
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		iv.stopped = true
		for i, other := range m.intervals {
			if other == iv {
				m.intervals = append(m.intervals[:i], m.intervals[i+1:]...)
				break
			}
		}
	}
}

// Tick advances one second and fires each interval registered before the
// call, in registration order. Intervals stopped by an earlier callback in
// the same tick are skipped; intervals registered during the tick wait for
// the next one.
func (m *Manual) Tick() {
	m.mu.Lock()
	m.now = m.now.Add(time.Second)
	pending := make([]*interval, len(m.intervals))
	copy(pending, m.intervals)
	m.mu.Unlock()

	for _, iv := range pending {
		m.mu.Lock()
		stopped := iv.stopped
		m.mu.Unlock()
		if !stopped {
			iv.fn()
		}
	}
}

// Advance calls Tick n times.
func (m *Manual) Advance(n int) {
	for range n {
		m.Tick()
	}
}

// Active returns the number of registered, unstopped intervals.
func (m *Manual) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.intervals)
}

// Slept returns the total duration passed to Sleep.
func (m *Manual) Slept() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slept
}
