package exam

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidTestDefinition = errors.New("invalid test definition")

var validate = validator.New()

// Validate checks struct-level constraints first, then the per-type rules the
// tags cannot express. A session must never start against a Test that fails here.
func (t Test) Validate() error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTestDefinition, err)
	}
	seen := make(map[string]struct{}, len(t.Questions))
	for i, q := range t.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidTestDefinition, q.ID)
		}
		seen[q.ID] = struct{}{}
		if err := q.validateKey(); err != nil {
			return fmt.Errorf("%w: question %d (%s): %v", ErrInvalidTestDefinition, i, q.ID, err)
		}
	}
	return nil
}

func (q Question) validateKey() error {
	switch q.Type {
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return errors.New("multiple-choice needs at least 2 options")
		}
		found := false
		opts := make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if _, dup := opts[o]; dup {
				return fmt.Errorf("duplicate option %q", o)
			}
			opts[o] = struct{}{}
			if o == q.CorrectAnswer {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("correct answer %q is not an option", q.CorrectAnswer)
		}
	case TypeTrueFalse:
		if q.CorrectAnswer != "true" && q.CorrectAnswer != "false" {
			return fmt.Errorf("true-false answer must be \"true\" or \"false\", got %q", q.CorrectAnswer)
		}
	case TypeShortAnswer, TypeEssay:
		// free text, nothing to check
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}
