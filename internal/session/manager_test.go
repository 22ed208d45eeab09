package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-assess/internal/clock"
	"github.com/mind-engage/mindengage-assess/internal/eventlog"
	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/results"
)

type recordedEvent struct {
	typ, key string
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) Record(_ context.Context, typ, key string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{typ, key})
	return nil
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.typ)
	}
	return out
}

type managerFixture struct {
	m      *Manager
	agg    *results.Aggregator
	store  *exam.MemoryStore
	events *fakeEvents
	clocks []*clock.Manual
	now    time.Time
}

func newManagerFixture(t *testing.T) *managerFixture {
	t.Helper()
	f := &managerFixture{
		agg:    results.NewAggregator(),
		store:  seedStore(t, mathTest()),
		events: &fakeEvents{},
		now:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	log := zerolog.Nop()
	f.m = NewManager(ManagerConfig{
		Store:   f.store,
		Results: f.agg,
		Persist: f.store,
		Events:  f.events,
		NewClock: func() clock.Clock {
			c := clock.NewManual()
			f.clocks = append(f.clocks, c)
			return c
		},
		Now:    func() time.Time { return f.now },
		Logger: &log,
	})
	return f
}

func TestManagerIndependentSessions(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	a, err := f.m.Start(ctx, "math", Taker{ID: "u1", Name: "Jane", Email: "jane@x.org"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.m.Start(ctx, "math", Taker{ID: "u2", Name: "John", Email: "john@x.org"})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() == b.ID() || f.m.Len() != 2 {
		t.Fatalf("ids %s %s len %d", a.ID(), b.ID(), f.m.Len())
	}
	if got, _ := f.m.Get(a.ID()); got != a {
		t.Fatal("Get returned another controller")
	}
	if _, err := f.m.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err = %v", err)
	}

	_ = a.Answer("B")
	if _, err := a.Submit(); err != nil {
		t.Fatal(err)
	}
	f.clocks[1].Advance(3)

	if a.Status() != StatusSubmitted || b.Status() != StatusExpired {
		t.Fatalf("statuses %s %s", a.Status(), b.Status())
	}
	if f.agg.Len() != 2 {
		t.Fatalf("aggregator has %d results", f.agg.Len())
	}
	stored, err := f.store.ListResults(ctx)
	if err != nil || len(stored) != 2 {
		t.Fatalf("persisted %d, %v", len(stored), err)
	}
	want := []string{
		eventlog.TypeSessionStarted, eventlog.TypeSessionStarted,
		eventlog.TypeSessionSubmitted, eventlog.TypeSessionExpired,
	}
	got := f.events.types()
	if len(got) != len(want) {
		t.Fatalf("events %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events %v want %v", got, want)
		}
	}
}

func TestManagerStartUnknownTest(t *testing.T) {
	f := newManagerFixture(t)
	if _, err := f.m.Start(context.Background(), "nope", Taker{ID: "u1"}); !errors.Is(err, exam.ErrTestNotFound) {
		t.Fatalf("err = %v", err)
	}
	if f.m.Len() != 0 {
		t.Fatal("failed start should not register a session")
	}
}

func TestManagerReap(t *testing.T) {
	f := newManagerFixture(t)
	ctx := context.Background()
	done, _ := f.m.Start(ctx, "math", Taker{ID: "u1"})
	live, _ := f.m.Start(ctx, "math", Taker{ID: "u2"})
	if _, err := done.Submit(); err != nil {
		t.Fatal(err)
	}

	if n := f.m.Reap(time.Hour); n != 0 {
		t.Fatalf("reaped %d before retention elapsed", n)
	}
	f.now = f.now.Add(2 * time.Hour)
	if n := f.m.Reap(time.Hour); n != 1 {
		t.Fatalf("reaped %d, want 1", n)
	}
	if _, err := f.m.Get(done.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("finished session should be gone")
	}
	if _, err := f.m.Get(live.ID()); err != nil {
		t.Fatal("live session must survive reaping")
	}
	if f.agg.Len() != 1 {
		t.Fatal("reaping must not drop results")
	}
}

func TestNewReaperRejectsBadSchedule(t *testing.T) {
	f := newManagerFixture(t)
	if _, err := NewReaper(f.m, "not a schedule", time.Hour, zerolog.Nop()); err == nil {
		t.Fatal("expected schedule parse error")
	}
	r, err := NewReaper(f.m, "@every 1m", time.Hour, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	r.Start()
	<-r.Stop().Done()
}

// expiringClock expires on its own goroutine as soon as it starts, after
// signalling fired.
type expiringClock struct {
	fired chan struct{}
}

func (c *expiringClock) Start(_ int, h clock.Handler) error {
	go func() {
		close(c.fired)
		h(clock.Event{Kind: clock.Expired})
	}()
	return nil
}

func (c *expiringClock) Cancel() {}

// slowStartEvents holds the SessionStarted write until the clock has fired.
type slowStartEvents struct {
	fakeEvents
	fired chan struct{}
	done  chan struct{}
}

func (f *slowStartEvents) Record(ctx context.Context, typ, key string, payload any) error {
	if typ == eventlog.TypeSessionStarted {
		<-f.fired
	}
	err := f.fakeEvents.Record(ctx, typ, key, payload)
	if typ == eventlog.TypeSessionExpired {
		close(f.done)
	}
	return err
}

func TestStartEventPrecedesImmediateExpiry(t *testing.T) {
	fired := make(chan struct{})
	events := &slowStartEvents{fired: fired, done: make(chan struct{})}
	m := NewManager(ManagerConfig{
		Store:    seedStore(t, mathTest()),
		Results:  results.NewAggregator(),
		Events:   events,
		NewClock: func() clock.Clock { return &expiringClock{fired: fired} },
	})
	c, err := m.Start(context.Background(), "math", Taker{ID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-events.done:
	case <-time.After(5 * time.Second):
		t.Fatal("session never expired")
	}
	if c.Status() != StatusExpired {
		t.Fatalf("status %s", c.Status())
	}
	got := events.types()
	if len(got) != 2 || got[0] != eventlog.TypeSessionStarted || got[1] != eventlog.TypeSessionExpired {
		t.Fatalf("events out of order: %v", got)
	}
}
