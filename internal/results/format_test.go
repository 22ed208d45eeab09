package results

import (
	"testing"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

func TestScoreBand(t *testing.T) {
	cases := map[float64]Band{100: BandExcellent, 90: BandExcellent, 89.9: BandGood, 80: BandGood, 70: BandFair, 69.9: BandPoor, 0: BandPoor}
	for p, want := range cases {
		if got := ScoreBand(p); got != want {
			t.Errorf("ScoreBand(%v) = %s want %s", p, got, want)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatPercentage(66.666); got != "66.7%" {
		t.Errorf("percentage %q", got)
	}
	for secs, want := range map[int]string{0: "-", 30: "<1 min", 2700: "45 min", 2759: "45 min"} {
		if got := FormatDuration(secs); got != want {
			t.Errorf("FormatDuration(%d) = %q want %q", secs, got, want)
		}
	}
	done := exam.Result{Status: exam.StatusCompleted, RawScore: 2, MaxScore: 3}
	if got := FormatScore(done); got != "2/3" {
		t.Errorf("score %q", got)
	}
	done.Status = exam.StatusInProgress
	if got := FormatScore(done); got != "-" {
		t.Errorf("score %q", got)
	}
}
