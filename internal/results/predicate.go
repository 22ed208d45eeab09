package results

import (
	"strings"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

type Predicate func(exam.Result) bool

// And matches when every non-nil predicate matches.
func And(ps ...Predicate) Predicate {
	return func(r exam.Result) bool {
		for _, p := range ps {
			if p != nil && !p(r) {
				return false
			}
		}
		return true
	}
}

// MatchSearch is a case-insensitive substring match on student name, student
// email or test title. The text is used as given, spaces included; empty text
// matches everything.
func MatchSearch(text string) Predicate {
	needle := strings.ToLower(text)
	if needle == "" {
		return nil
	}
	return func(r exam.Result) bool {
		return strings.Contains(strings.ToLower(r.StudentName), needle) ||
			strings.Contains(strings.ToLower(r.StudentEmail), needle) ||
			strings.Contains(strings.ToLower(r.TestTitle), needle)
	}
}

func MatchStatus(status string) Predicate {
	if status == "" || status == FilterAll {
		return nil
	}
	return func(r exam.Result) bool { return string(r.Status) == status }
}

func MatchTest(title string) Predicate {
	if title == "" || title == FilterAll {
		return nil
	}
	return func(r exam.Result) bool { return r.TestTitle == title }
}

func MatchStudent(studentID string) Predicate {
	if studentID == "" {
		return nil
	}
	return func(r exam.Result) bool { return r.StudentID == studentID }
}
