package session

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Reaper periodically archives finished sessions out of the Manager.
type Reaper struct {
	c *cron.Cron
}

func NewReaper(m *Manager, schedule string, retention time.Duration, log zerolog.Logger) (*Reaper, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		if n := m.Reap(retention); n > 0 {
			log.Info().Int("reaped", n).Int("live", m.Len()).Msg("archived finished sessions")
		}
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("schedule", schedule).Dur("retention", retention).Msg("session reaper configured")
	return &Reaper{c: c}, nil
}

func (r *Reaper) Start() { r.c.Start() }

// Stop halts scheduling and returns a context done when a running job ends.
func (r *Reaper) Stop() context.Context { return r.c.Stop() }
