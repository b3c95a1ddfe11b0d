// Package clock provides the time source pools read once per operation.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time as unix seconds.
type Clock interface {
	Now() int64
}

// System reads the wall clock.
type System struct{}

func (System) Now() int64 { return time.Now().Unix() }

// Manual is a settable clock for tests and simulations.
type Manual struct {
	mu  sync.Mutex
	now int64
}

func NewManual(start int64) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set moves the clock to an absolute time. Moving backwards is ignored.
func (m *Manual) Set(ts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts > m.now {
		m.now = ts
	}
}

// Advance moves the clock forward by d seconds.
func (m *Manual) Advance(d int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.now += d
	}
}
