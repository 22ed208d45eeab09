package results

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandPoor      Band = "poor"
)

func ScoreBand(percentage float64) Band {
	switch {
	case percentage >= 90:
		return BandExcellent
	case percentage >= 80:
		return BandGood
	case percentage >= 70:
		return BandFair
	}
	return BandPoor
}

// RoundPercentage rounds half away from zero to one decimal.
func RoundPercentage(p float64) float64 {
	r, _ := decimal.NewFromFloat(p).Round(1).Float64()
	return r
}

// FormatPercentage renders one decimal, e.g. "66.7%".
func FormatPercentage(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(1) + "%"
}

// FormatDuration renders whole minutes, e.g. "45 min"; zero renders as "-".
func FormatDuration(seconds int) string {
	switch {
	case seconds <= 0:
		return "-"
	case seconds < 60:
		return "<1 min"
	}
	return fmt.Sprintf("%d min", seconds/60)
}

// FormatScore renders "raw/max" for completed results and "-" otherwise.
func FormatScore(r exam.Result) string {
	if r.Status != exam.StatusCompleted {
		return "-"
	}
	return fmt.Sprintf("%d/%d", r.RawScore, r.MaxScore)
}
