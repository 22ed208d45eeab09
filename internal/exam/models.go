package exam

import "time"

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeTrueFalse      QuestionType = "true-false"
	TypeShortAnswer    QuestionType = "short-answer"
	TypeEssay          QuestionType = "essay"
)

// MachineGradable reports whether answers of this type can be checked against a key.
func (t QuestionType) MachineGradable() bool {
	return t == TypeMultipleChoice || t == TypeTrueFalse
}

type Question struct {
	ID            string       `json:"id" validate:"required"`
	Type          QuestionType `json:"type" validate:"required,oneof=multiple-choice true-false short-answer essay"`
	Prompt        string       `json:"prompt" validate:"required"`
	Points        int          `json:"points" validate:"gt=0"`
	Options       []string     `json:"options,omitempty"`        // multiple-choice only
	CorrectAnswer string       `json:"correct_answer,omitempty"` // multiple-choice option or "true"/"false"
}

type Test struct {
	ID                     string     `json:"id" validate:"required"`
	Title                  string     `json:"title" validate:"required"`
	Description            string     `json:"description,omitempty"`
	Questions              []Question `json:"questions" validate:"required,min=1,dive"`
	TimeLimitSeconds       int        `json:"time_limit_seconds" validate:"gt=0"`
	ShuffleQuestions       bool       `json:"shuffle_questions"`
	ShowResultsImmediately bool       `json:"show_results_immediately"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// MaxScore is the sum of all question points regardless of grading method.
func (t Test) MaxScore() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}

// Clone returns a deep copy; sessions hold clones so later edits to the
// definition are never observed mid-attempt.
func (t Test) Clone() Test {
	c := t
	c.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		c.Questions[i] = q
		if q.Options != nil {
			c.Questions[i].Options = append([]string(nil), q.Options...)
		}
	}
	return c
}

type ResultStatus string

const (
	StatusCompleted  ResultStatus = "completed"
	StatusInProgress ResultStatus = "in_progress"
	StatusNotStarted ResultStatus = "not_started"
)

// ItemScore is the per-question grading outcome inside a Result.
type ItemScore struct {
	QuestionID  string       `json:"question_id"`
	Type        QuestionType `json:"type"`
	Answer      string       `json:"answer,omitempty"`
	Answered    bool         `json:"answered"`
	Awarded     int          `json:"awarded"`
	MaxPoints   int          `json:"max_points"`
	NeedsManual bool         `json:"needs_manual"`
}

type Result struct {
	ID                 string       `json:"id"`
	SessionID          string       `json:"session_id"`
	TestID             string       `json:"test_id"`
	TestTitle          string       `json:"test_title"`
	StudentID          string       `json:"student_id"`
	StudentName        string       `json:"student_name"`
	StudentEmail       string       `json:"student_email"`
	RawScore           int          `json:"raw_score"`
	MaxScore           int          `json:"max_score"`
	Percentage         float64      `json:"percentage"`
	Status             ResultStatus `json:"status"`
	NeedsManualGrading bool         `json:"needs_manual_grading"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	DurationSeconds    int          `json:"duration_seconds"`
	Items              []ItemScore  `json:"items,omitempty"`
}
