package clock

import (
	"sync"
	"time"
)

// Ticker is a wall-clock countdown. Remaining time is derived from a fixed
// deadline, so a late wakeup emits every missed value in order instead of
// skipping, and the count never goes below zero.
type Ticker struct {
	second time.Duration
	now    func() time.Time

	mu    sync.Mutex
	state state
	done  chan struct{}
}

type Option func(*Ticker)

// WithSecond shortens or stretches the length of one countdown step.
func WithSecond(d time.Duration) Option { return func(t *Ticker) { t.second = d } }
func WithNow(fn func() time.Time) Option  { return func(t *Ticker) { t.now = fn } }

func NewTicker(opts ...Option) *Ticker {
	t := &Ticker{second: time.Second, now: time.Now}
	for _, o := range opts {
		o(t)
	}
	if t.second <= 0 {
		t.second = time.Second
	}
	return t
}

func (t *Ticker) Start(durationSeconds int, h Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := checkStart(t.state, durationSeconds); err != nil {
		return err
	}
	t.state = running
	t.done = make(chan struct{})
	deadline := t.now().Add(time.Duration(durationSeconds) * t.second)
	go t.run(durationSeconds, deadline, h, t.done)
	return nil
}

func (t *Ticker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == running {
		close(t.done)
	}
	t.state = stopped
}

func (t *Ticker) run(remaining int, deadline time.Time, h Handler, done <-chan struct{}) {
	tk := time.NewTicker(t.second)
	defer tk.Stop()
	for {
		select {
		case <-done:
			return
		case <-tk.C:
		}
		target := t.remainingAt(deadline)
		if target > remaining-1 {
			target = remaining - 1
		}
		for remaining > target {
			remaining--
			if !t.emit(done, h, Event{Kind: Tick, Remaining: remaining}) {
				return
			}
		}
		if remaining == 0 {
			t.expire(h)
			return
		}
	}
}

// remainingAt rounds up so a wakeup a hair early still reports the current second.
func (t *Ticker) remainingAt(deadline time.Time) int {
	left := deadline.Sub(t.now())
	if left <= 0 {
		return 0
	}
	return int((left + t.second - 1) / t.second)
}

func (t *Ticker) emit(done <-chan struct{}, h Handler, ev Event) bool {
	select {
	case <-done:
		return false
	default:
	}
	h(ev)
	return true
}

func (t *Ticker) expire(h Handler) {
	t.mu.Lock()
	if t.state != running {
		t.mu.Unlock()
		return
	}
	t.state = stopped
	close(t.done)
	t.mu.Unlock()
	h(Event{Kind: Expired})
}
