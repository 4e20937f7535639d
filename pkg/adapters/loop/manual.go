package loop

import (
	"sync"
	"time"

	"github.com/aretw0/mediabridge/pkg/ports"
)

// Manual is a scheduler driven by explicit Tick calls. Editors that own their
// own timer loop call Tick from it; tests use it to step runs deterministically.
type Manual struct {
	mu     sync.Mutex
	timers []*manualTimer
}

type manualTimer struct {
	interval time.Duration
	fn       func()
	stopped  bool
}

// NewManual creates a manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Every implements ports.Scheduler.
func (m *Manual) Every(interval time.Duration, fn func()) ports.StopFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{interval: interval, fn: fn}
	m.timers = append(m.timers, t)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		t.stopped = true
		for i, other := range m.timers {
			if other == t {
				m.timers = append(m.timers[:i], m.timers[i+1:]...)
				break
			}
		}
	}
}

// Tick fires every armed timer once.
func (m *Manual) Tick() {
	m.mu.Lock()
	timers := append([]*manualTimer(nil), m.timers...)
	m.mu.Unlock()

	for _, t := range timers {
		m.mu.Lock()
		stopped := t.stopped
		m.mu.Unlock()
		if !stopped {
			t.fn()
		}
	}
}

// TickN fires every armed timer n times.
func (m *Manual) TickN(n int) {
	for i := 0; i < n; i++ {
		m.Tick()
	}
}

// Armed returns the number of timers that have not been stopped.
func (m *Manual) Armed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
