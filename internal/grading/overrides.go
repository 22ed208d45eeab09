package grading

import (
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

var (
	ErrUnknownItem = errors.New("question is not part of this result")
	ErrNotManual   = errors.New("question was graded automatically")
)

// ApplyOverrides returns a copy of r with reviewer-awarded points for manually
// graded items. Points are clamped to [0, item max]; r itself is not modified.
func ApplyOverrides(r exam.Result, awarded map[string]int) (exam.Result, error) {
	out := r
	out.Items = append([]exam.ItemScore(nil), r.Items...)
	index := make(map[string]int, len(out.Items))
	for i, it := range out.Items {
		index[it.QuestionID] = i
	}
	for qid, pts := range awarded {
		i, ok := index[qid]
		if !ok {
			return r, fmt.Errorf("%w: %s", ErrUnknownItem, qid)
		}
		if out.Items[i].Type.MachineGradable() {
			return r, fmt.Errorf("%w: %s", ErrNotManual, qid)
		}
		if pts < 0 {
			pts = 0
		}
		if pts > out.Items[i].MaxPoints {
			pts = out.Items[i].MaxPoints
		}
		out.Items[i].Awarded = pts
		out.Items[i].NeedsManual = false
	}

	out.RawScore, out.NeedsManualGrading = 0, false
	for _, it := range out.Items {
		out.RawScore += it.Awarded
		if it.NeedsManual {
			out.NeedsManualGrading = true
		}
	}
	out.Percentage = Percentage(out.RawScore, out.MaxScore)
	return out, nil
}
