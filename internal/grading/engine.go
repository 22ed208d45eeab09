package grading

import (
	"time"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/shopspring/decimal"
)

// Answers is the read view of a ledger the engine grades against.
type Answers interface {
	Answer(questionID string) string
}

// Outcome is the grading of a single question response.
type Outcome struct {
	Awarded     int
	NeedsManual bool
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q exam.Question, answer string) Outcome
}

// Meta carries the identity and timing the engine copies onto a Result.
type Meta struct {
	ResultID     string
	SessionID    string
	StudentID    string
	StudentName  string
	StudentEmail string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// Engine routes by question type to the matching Strategy. Score is pure: the
// same test, answers and meta always give the same Result.
type Engine struct {
	strategies map[exam.QuestionType]Strategy
}

type Option func(*Engine)

// WithStrategy replaces the strategy for one question type.
func WithStrategy(t exam.QuestionType, s Strategy) Option {
	return func(e *Engine) { e.strategies[t] = s }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		strategies: map[exam.QuestionType]Strategy{
			exam.TypeMultipleChoice: exactMatchStrategy{},
			exam.TypeTrueFalse:      exactMatchStrategy{},
			exam.TypeShortAnswer:    manualStrategy{},
			exam.TypeEssay:          manualStrategy{},
		},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Score(t exam.Test, answers Answers, meta Meta) exam.Result {
	res := exam.Result{
		ID:           meta.ResultID,
		SessionID:    meta.SessionID,
		TestID:       t.ID,
		TestTitle:    t.Title,
		StudentID:    meta.StudentID,
		StudentName:  meta.StudentName,
		StudentEmail: meta.StudentEmail,
		Status:       exam.StatusCompleted,
		Items:        make([]exam.ItemScore, 0, len(t.Questions)),
	}
	for _, q := range t.Questions {
		ans := answers.Answer(q.ID)
		out := e.grade(q, ans)
		res.Items = append(res.Items, exam.ItemScore{
			QuestionID:  q.ID,
			Type:        q.Type,
			Answer:      ans,
			Answered:    ans != "",
			Awarded:     out.Awarded,
			MaxPoints:   q.Points,
			NeedsManual: out.NeedsManual,
		})
		res.RawScore += out.Awarded
		res.MaxScore += q.Points
		if out.NeedsManual {
			res.NeedsManualGrading = true
		}
	}
	res.Percentage = Percentage(res.RawScore, res.MaxScore)

	completed := meta.CompletedAt.UTC()
	res.CompletedAt = &completed
	if !meta.StartedAt.IsZero() && completed.After(meta.StartedAt) {
		res.DurationSeconds = int(completed.Sub(meta.StartedAt) / time.Second)
	}
	return res
}

func (e *Engine) grade(q exam.Question, answer string) Outcome {
	s, ok := e.strategies[q.Type]
	if !ok {
		return Outcome{NeedsManual: true}
	}
	out := s.Grade(q, answer)
	if out.Awarded < 0 {
		out.Awarded = 0
	}
	if out.Awarded > q.Points {
		out.Awarded = q.Points
	}
	return out
}

// Percentage is raw/max*100 rounded half away from zero to one decimal.
// A zero max yields 0.
func Percentage(raw, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	p, _ := decimal.NewFromInt(int64(raw)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(maxScore))).
		Round(1).
		Float64()
	return p
}

// --- Strategies ---

// exactMatchStrategy awards full points on a case-sensitive exact match.
type exactMatchStrategy struct{}

func (exactMatchStrategy) Grade(q exam.Question, answer string) Outcome {
	if answer != "" && answer == q.CorrectAnswer {
		return Outcome{Awarded: q.Points}
	}
	return Outcome{}
}

// manualStrategy never awards points; a reviewer supplies them later.
type manualStrategy struct{}

func (manualStrategy) Grade(exam.Question, string) Outcome {
	return Outcome{NeedsManual: true}
}
