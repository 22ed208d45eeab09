// Package session drives a single timed attempt from start to a scored Result.
//
// Every mutation (caller actions and clock events alike) runs under one mutex
// per session, so the session has a single logical thread of control. The first
// terminal transition wins: Submit and clock expiry both check-and-set the
// status under that mutex before scoring, so scoring runs exactly once.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-assess/internal/clock"
	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/grading"
	"github.com/mind-engage/mindengage-assess/internal/ledger"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
	StatusExpired    Status = "expired"
)

func (s Status) Terminal() bool { return s == StatusSubmitted || s == StatusExpired }

var (
	ErrInvalidState = errors.New("invalid session state")
	ErrOutOfRange   = errors.New("question index out of range")
)

type Taker struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Scorer interface {
	Score(t exam.Test, answers grading.Answers, meta grading.Meta) exam.Result
}

// Snapshot is the read-only view handed to the presentation layer per tick
// and per transition.
type Snapshot struct {
	SessionID          string   `json:"session_id"`
	TestID             string   `json:"test_id"`
	CurrentIndex       int      `json:"current_index"`
	QuestionCount      int      `json:"question_count"`
	RemainingSeconds   int      `json:"remaining_seconds"`
	AnsweredCount      int      `json:"answered_count"`
	FlaggedQuestionIDs []string `json:"flagged_question_ids"`
	Status             Status   `json:"status"`
}

// QuestionView is a presented question without its answer key.
type QuestionView struct {
	Index   int               `json:"index"`
	ID      string            `json:"id"`
	Type    exam.QuestionType `json:"type"`
	Prompt  string            `json:"prompt"`
	Points  int               `json:"points"`
	Options []string          `json:"options,omitempty"`
	Answer  string            `json:"answer"`
	Flagged bool              `json:"flagged"`
}

// NavItem is one cell of the question navigator.
type NavItem struct {
	Index      int    `json:"index"`
	QuestionID string `json:"question_id"`
	Answered   bool   `json:"answered"`
	Flagged    bool   `json:"flagged"`
	Current    bool   `json:"current"`
}

type Deps struct {
	Store  exam.Store
	Clock  clock.Clock
	Scorer Scorer

	Now     func() time.Time
	NewID   func() string
	Shuffle func(n int, swap func(i, j int))
	Logger  *zerolog.Logger

	// OnSnapshot runs after every tick and transition, outside the session lock.
	OnSnapshot func(Snapshot)
	// OnFinish runs once, after the terminal transition, outside the session lock.
	OnFinish func(exam.Result, Status)
}

type Controller struct {
	id   string
	deps Deps
	log  zerolog.Logger

	mu         sync.Mutex
	status     Status
	test       exam.Test
	presented  []exam.Question
	current    int
	remaining  int
	ledger     *ledger.Ledger
	taker      Taker
	startedAt  time.Time
	finishedAt time.Time
	result     *exam.Result
}

func NewController(id string, d Deps) *Controller {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Shuffle == nil {
		d.Shuffle = rand.Shuffle
	}
	if d.Scorer == nil {
		d.Scorer = grading.NewEngine()
	}
	if d.Clock == nil {
		d.Clock = clock.NewTicker()
	}
	base := zerolog.Nop()
	if d.Logger != nil {
		base = *d.Logger
	}
	return &Controller{
		id:     id,
		deps:   d,
		log:    base.With().Str("session_id", id).Logger(),
		status: StatusNotStarted,
		ledger: ledger.New(),
	}
}

func (c *Controller) ID() string { return c.id }

// Start loads the test, validates it, fixes the presented order and starts the clock.
func (c *Controller) Start(ctx context.Context, testID string, taker Taker) error {
	if c.deps.Store == nil {
		return errors.New("session: no test store configured")
	}
	t, err := c.deps.Store.GetTest(ctx, testID)
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Clone()

	c.mu.Lock()
	if c.status != StatusNotStarted {
		c.mu.Unlock()
		return ErrInvalidState
	}
	presented := append([]exam.Question(nil), t.Questions...)
	if t.ShuffleQuestions {
		c.deps.Shuffle(len(presented), func(i, j int) { presented[i], presented[j] = presented[j], presented[i] })
	}
	if err := c.deps.Clock.Start(t.TimeLimitSeconds, c.onClock); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("start clock: %w", err)
	}
	c.test = t
	c.presented = presented
	c.current = 0
	c.remaining = t.TimeLimitSeconds
	c.taker = taker
	c.startedAt = c.deps.Now()
	c.status = StatusInProgress
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info().Str("test_id", t.ID).Str("student_id", taker.ID).
		Int("questions", len(presented)).Int("time_limit", t.TimeLimitSeconds).
		Bool("shuffled", t.ShuffleQuestions).Msg("session started")
	c.notify(snap)
	return nil
}

// mutate runs fn under the lock when the session is in progress and publishes
// a snapshot afterwards. Terminal or unstarted sessions reject with ErrInvalidState.
func (c *Controller) mutate(fn func() error) error {
	c.mu.Lock()
	if c.status != StatusInProgress {
		c.mu.Unlock()
		return ErrInvalidState
	}
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

// Answer records value for the question in focus, replacing any earlier answer.
func (c *Controller) Answer(value string) error {
	return c.mutate(func() error {
		c.ledger.SetAnswer(c.presented[c.current].ID, value)
		return nil
	})
}

func (c *Controller) ToggleFlag() (bool, error) {
	var flagged bool
	err := c.mutate(func() error {
		flagged = c.ledger.ToggleFlag(c.presented[c.current].ID)
		return nil
	})
	return flagged, err
}

// Next moves focus forward; at the last question it is a no-op.
func (c *Controller) Next() error {
	return c.mutate(func() error {
		if c.current < len(c.presented)-1 {
			c.current++
		}
		return nil
	})
}

// Previous moves focus back; at the first question it is a no-op.
func (c *Controller) Previous() error {
	return c.mutate(func() error {
		if c.current > 0 {
			c.current--
		}
		return nil
	})
}

func (c *Controller) JumpTo(index int) error {
	return c.mutate(func() error {
		if index < 0 || index >= len(c.presented) {
			return fmt.Errorf("%w: %d not in [0,%d]", ErrOutOfRange, index, len(c.presented)-1)
		}
		c.current = index
		return nil
	})
}

// Submit ends the attempt and scores it synchronously.
func (c *Controller) Submit() (exam.Result, error) {
	c.mu.Lock()
	if c.status != StatusInProgress {
		c.mu.Unlock()
		return exam.Result{}, ErrInvalidState
	}
	res := c.finishLocked(StatusSubmitted)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info().Int("raw_score", res.RawScore).Int("max_score", res.MaxScore).Msg("session submitted")
	c.notify(snap)
	c.finish(res, StatusSubmitted)
	return res, nil
}

func (c *Controller) onClock(ev clock.Event) {
	c.mu.Lock()
	if c.status != StatusInProgress {
		// stale event racing a terminal transition
		c.mu.Unlock()
		return
	}
	switch ev.Kind {
	case clock.Tick:
		if ev.Remaining >= 0 && ev.Remaining < c.remaining {
			c.remaining = ev.Remaining
		}
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.notify(snap)
	case clock.Expired:
		c.remaining = 0
		res := c.finishLocked(StatusExpired)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.log.Info().Int("raw_score", res.RawScore).Int("answered", snap.AnsweredCount).Msg("session expired")
		c.notify(snap)
		c.finish(res, StatusExpired)
	default:
		c.mu.Unlock()
	}
}

// finishLocked performs the terminal transition. Callers hold c.mu and have
// checked the session is in progress.
func (c *Controller) finishLocked(to Status) exam.Result {
	c.status = to
	c.deps.Clock.Cancel()
	c.finishedAt = c.deps.Now()
	res := c.deps.Scorer.Score(c.test, c.ledger, grading.Meta{
		ResultID:     c.deps.NewID(),
		SessionID:    c.id,
		StudentID:    c.taker.ID,
		StudentName:  c.taker.Name,
		StudentEmail: c.taker.Email,
		StartedAt:    c.startedAt,
		CompletedAt:  c.finishedAt,
	})
	c.result = &res
	return res
}

func (c *Controller) notify(s Snapshot) {
	if c.deps.OnSnapshot != nil {
		c.deps.OnSnapshot(s)
	}
}

func (c *Controller) finish(res exam.Result, st Status) {
	if c.deps.OnFinish != nil {
		c.deps.OnFinish(res, st)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:          c.id,
		TestID:             c.test.ID,
		CurrentIndex:       c.current,
		QuestionCount:      len(c.presented),
		RemainingSeconds:   c.remaining,
		AnsweredCount:      c.ledger.AnsweredCount(),
		FlaggedQuestionIDs: c.ledger.FlaggedIDs(),
		Status:             c.status,
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Result returns the scored result once the session is terminal.
func (c *Controller) Result() (exam.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return exam.Result{}, false
	}
	return *c.result, true
}

func (c *Controller) Taker() Taker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taker
}

// ShowResultsImmediately reports whether the taker may see the score right away.
func (c *Controller) ShowResultsImmediately() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.test.ShowResultsImmediately
}

// FinishedAt is zero until the session reaches a terminal status.
func (c *Controller) FinishedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finishedAt
}

func (c *Controller) CurrentQuestion() (QuestionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusNotStarted {
		return QuestionView{}, ErrInvalidState
	}
	q := c.presented[c.current]
	rec, _ := c.ledger.Get(q.ID)
	return QuestionView{
		Index:   c.current,
		ID:      q.ID,
		Type:    q.Type,
		Prompt:  q.Prompt,
		Points:  q.Points,
		Options: append([]string(nil), q.Options...),
		Answer:  rec.Value,
		Flagged: rec.Flagged,
	}, nil
}

func (c *Controller) Navigator() []NavItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]NavItem, len(c.presented))
	for i, q := range c.presented {
		out[i] = NavItem{
			Index:      i,
			QuestionID: q.ID,
			Answered:   c.ledger.IsAnswered(q.ID),
			Flagged:    c.ledger.IsFlagged(q.ID),
			Current:    i == c.current,
		}
	}
	return out
}
