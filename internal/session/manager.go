package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-assess/internal/clock"
	"github.com/mind-engage/mindengage-assess/internal/eventlog"
	"github.com/mind-engage/mindengage-assess/internal/exam"
)

var ErrSessionNotFound = errors.New("session not found")

// ResultSink receives each produced Result exactly once.
type ResultSink interface {
	Add(r exam.Result) error
}

// EventRecorder appends lifecycle events; *eventlog.EventRepo satisfies it.
type EventRecorder interface {
	Record(ctx context.Context, typ, key string, payload any) error
}

type ManagerConfig struct {
	Store   exam.Store
	Scorer  Scorer
	Results ResultSink
	Persist exam.ResultStore // optional
	Events  EventRecorder    // optional

	NewClock   func() clock.Clock
	Now        func() time.Time
	Logger     *zerolog.Logger
	OnSnapshot func(Snapshot)
}

// Manager owns the live controllers. Each controller is independent; the only
// state shared across sessions is the result sink.
type Manager struct {
	cfg ManagerConfig
	log zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.NewClock == nil {
		cfg.NewClock = func() clock.Clock { return clock.NewTicker() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	l := zerolog.Nop()
	if cfg.Logger != nil {
		l = *cfg.Logger
	}
	return &Manager{cfg: cfg, log: l, sessions: map[string]*Controller{}}
}

// Start creates a controller with a fresh clock and starts it against testID.
// The SessionStarted event is written before any terminal event for the same
// session, even when the clock expires while Start is still recording.
func (m *Manager) Start(ctx context.Context, testID string, taker Taker) (*Controller, error) {
	id := uuid.NewString()
	started := make(chan struct{})
	c := NewController(id, Deps{
		Store:      m.cfg.Store,
		Clock:      m.cfg.NewClock(),
		Scorer:     m.cfg.Scorer,
		Now:        m.cfg.Now,
		Logger:     &m.log,
		OnSnapshot: m.cfg.OnSnapshot,
		OnFinish: func(res exam.Result, st Status) {
			<-started
			m.onFinish(res, st)
		},
	})
	if err := c.Start(ctx, testID, taker); err != nil {
		close(started)
		return nil, err
	}
	m.mu.Lock()
	m.sessions[id] = c
	m.mu.Unlock()

	m.record(eventlog.TypeSessionStarted, id, map[string]any{
		"test_id":    testID,
		"student_id": taker.ID,
	})
	close(started)
	return c, nil
}

func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap drops terminal sessions that finished more than retention ago. Their
// results already live in the sink, so nothing is lost.
func (m *Manager) Reap(retention time.Duration) int {
	cutoff := m.cfg.Now().Add(-retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, c := range m.sessions {
		if !c.Status().Terminal() {
			continue
		}
		if fin := c.FinishedAt(); !fin.After(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *Manager) onFinish(res exam.Result, st Status) {
	if m.cfg.Results != nil {
		if err := m.cfg.Results.Add(res); err != nil {
			m.log.Error().Err(err).Str("result_id", res.ID).Msg("add result to aggregator")
		}
	}
	if m.cfg.Persist != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.cfg.Persist.SaveResult(ctx, res); err != nil {
			m.log.Error().Err(err).Str("result_id", res.ID).Msg("persist result")
		}
		cancel()
	}
	typ := eventlog.TypeSessionSubmitted
	if st == StatusExpired {
		typ = eventlog.TypeSessionExpired
	}
	m.record(typ, res.SessionID, map[string]any{
		"result_id":  res.ID,
		"raw_score":  res.RawScore,
		"max_score":  res.MaxScore,
		"percentage": res.Percentage,
	})
}

func (m *Manager) record(typ, key string, payload any) {
	if m.cfg.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.cfg.Events.Record(ctx, typ, key, payload); err != nil {
		m.log.Warn().Err(err).Str("type", typ).Str("key", key).Msg("event log append failed")
	}
}
