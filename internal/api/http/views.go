package http

import (
	"time"

	"github.com/jinzhu/copier"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/results"
	"github.com/mind-engage/mindengage-assess/internal/session"
)

type snapshotView struct {
	SessionID          string         `json:"session_id"`
	TestID             string         `json:"test_id"`
	CurrentIndex       int            `json:"current_index"`
	QuestionCount      int            `json:"question_count"`
	RemainingSeconds   int            `json:"remaining_seconds"`
	AnsweredCount      int            `json:"answered_count"`
	FlaggedQuestionIDs []string       `json:"flagged_question_ids"`
	Status             session.Status `json:"status"`

	Clock    string  `json:"clock"`
	LowTime  bool    `json:"low_time"`
	Progress float64 `json:"progress"`
}

func toSnapshotView(s session.Snapshot) snapshotView {
	var v snapshotView
	_ = copier.Copy(&v, &s)
	v.Clock = s.Clock()
	v.LowTime = s.LowTime()
	v.Progress = s.Progress()
	return v
}

type resultView struct {
	ID                 string            `json:"id"`
	SessionID          string            `json:"session_id"`
	TestID             string            `json:"test_id"`
	TestTitle          string            `json:"test_title"`
	StudentID          string            `json:"student_id"`
	StudentName        string            `json:"student_name"`
	StudentEmail       string            `json:"student_email"`
	RawScore           int               `json:"raw_score"`
	MaxScore           int               `json:"max_score"`
	Percentage         float64           `json:"percentage"`
	Status             exam.ResultStatus `json:"status"`
	NeedsManualGrading bool              `json:"needs_manual_grading"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	DurationSeconds    int               `json:"duration_seconds"`
	Items              []exam.ItemScore  `json:"items,omitempty"`

	Score    string       `json:"score"`
	Band     results.Band `json:"band,omitempty"`
	Duration string       `json:"duration"`
}

func toResultView(r exam.Result) resultView {
	var v resultView
	_ = copier.Copy(&v, &r)
	v.Score = results.FormatScore(r)
	if r.Status == exam.StatusCompleted {
		v.Band = results.ScoreBand(r.Percentage)
	}
	v.Duration = results.FormatDuration(r.DurationSeconds)
	return v
}

func toResultViews(rs []exam.Result) []resultView {
	out := make([]resultView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toResultView(r))
	}
	return out
}

// withheldResult is what a student sees when the test hides scores until review.
type withheldResult struct {
	ID          string            `json:"id"`
	SessionID   string            `json:"session_id"`
	TestTitle   string            `json:"test_title"`
	Status      exam.ResultStatus `json:"status"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Withheld    bool              `json:"withheld"`
}

func toWithheld(r exam.Result) withheldResult {
	var v withheldResult
	_ = copier.Copy(&v, &r)
	v.Withheld = true
	return v
}

type testSummary struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	TimeLimitSeconds int    `json:"time_limit_seconds"`
	QuestionCount    int    `json:"question_count"`
	MaxScore         int    `json:"max_score"`
}

func toTestSummary(t exam.Test) testSummary {
	var v testSummary
	_ = copier.Copy(&v, &t)
	v.QuestionCount = len(t.Questions)
	v.MaxScore = t.MaxScore()
	return v
}

// summaryView adds display text to a Summary; the average itself stays unrounded.
type summaryView struct {
	results.Summary
	AverageText string `json:"average_text"`
}

func toSummaryView(s results.Summary) summaryView {
	v := summaryView{Summary: s, AverageText: "-"}
	if avg, ok := s.Average(); ok {
		v.AverageText = results.FormatPercentage(avg)
	}
	return v
}
