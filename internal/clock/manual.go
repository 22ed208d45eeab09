package clock

import "sync"

// Manual is a countdown stepped explicitly by Advance. Handlers run on the
// caller's goroutine, which makes state machine tests deterministic.
type Manual struct {
	mu        sync.Mutex
	state     state
	remaining int
	h         Handler
}

func NewManual() *Manual { return &Manual{} }

func (m *Manual) Start(durationSeconds int, h Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkStart(m.state, durationSeconds); err != nil {
		return err
	}
	m.state = running
	m.remaining = durationSeconds
	m.h = h
	return nil
}

func (m *Manual) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = stopped
}

// Advance elapses n seconds. It stops early once the clock is no longer running.
func (m *Manual) Advance(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		if m.state != running {
			m.mu.Unlock()
			return
		}
		m.remaining--
		rem, h := m.remaining, m.h
		m.mu.Unlock()

		h(Event{Kind: Tick, Remaining: rem})
		if rem > 0 {
			continue
		}
		m.mu.Lock()
		fire := m.state == running
		m.state = stopped
		m.mu.Unlock()
		if fire {
			h(Event{Kind: Expired})
		}
		return
	}
}

func (m *Manual) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

func (m *Manual) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == stopped
}
