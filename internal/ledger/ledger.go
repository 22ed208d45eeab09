// Package ledger holds the mutable answer and review-flag state of one attempt.
package ledger

type AnswerRecord struct {
	QuestionID string `json:"question_id"`
	Value      string `json:"value"`
	Flagged    bool   `json:"flagged"`
}

// Ledger keeps at most one AnswerRecord per question id. Writes for an id that
// already has a record replace it in place.
//
// A Ledger is not safe for concurrent use; the owning session serialises access.
type Ledger struct {
	records map[string]*AnswerRecord
	order   []string // first-touch order, used for stable listings
}

func New() *Ledger {
	return &Ledger{records: map[string]*AnswerRecord{}}
}

func (l *Ledger) touch(questionID string) *AnswerRecord {
	rec, ok := l.records[questionID]
	if !ok {
		rec = &AnswerRecord{QuestionID: questionID}
		l.records[questionID] = rec
		l.order = append(l.order, questionID)
	}
	return rec
}

func (l *Ledger) SetAnswer(questionID, value string) {
	l.touch(questionID).Value = value
}

// ToggleFlag flips the review flag and returns the new state.
func (l *Ledger) ToggleFlag(questionID string) bool {
	rec := l.touch(questionID)
	rec.Flagged = !rec.Flagged
	return rec.Flagged
}

func (l *Ledger) Get(questionID string) (AnswerRecord, bool) {
	rec, ok := l.records[questionID]
	if !ok {
		return AnswerRecord{}, false
	}
	return *rec, true
}

// Answer returns the stored value, or "" when the question was never answered.
func (l *Ledger) Answer(questionID string) string {
	if rec, ok := l.records[questionID]; ok {
		return rec.Value
	}
	return ""
}

func (l *Ledger) IsAnswered(questionID string) bool {
	rec, ok := l.records[questionID]
	return ok && rec.Value != ""
}

func (l *Ledger) IsFlagged(questionID string) bool {
	rec, ok := l.records[questionID]
	return ok && rec.Flagged
}

// AnsweredCount counts distinct questions with a non-empty value.
func (l *Ledger) AnsweredCount() int {
	n := 0
	for _, rec := range l.records {
		if rec.Value != "" {
			n++
		}
	}
	return n
}

func (l *Ledger) FlaggedIDs() []string {
	out := []string{}
	for _, id := range l.order {
		if l.records[id].Flagged {
			out = append(out, id)
		}
	}
	return out
}

// Records returns a copy of every record in first-touch order.
func (l *Ledger) Records() []AnswerRecord {
	out := make([]AnswerRecord, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, *l.records[id])
	}
	return out
}

func (l *Ledger) Len() int { return len(l.records) }
