package session

import "fmt"

// LowTimeThreshold is the remaining time below which a session is shown as
// running out.
const LowTimeThreshold = 300

// FormatClock renders seconds as H:MM:SS from an hour up and M:SS below it.
// Negative input clamps to 0:00.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, seconds%3600/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func LowTime(seconds int) bool { return seconds < LowTimeThreshold }

// Progress is the 1-based position of index within count, as a percentage.
func Progress(index, count int) float64 {
	if count <= 0 {
		return 0
	}
	return float64(index+1) / float64(count) * 100
}

// Clock renders the remaining time of s with FormatClock.
func (s Snapshot) Clock() string { return FormatClock(s.RemainingSeconds) }

func (s Snapshot) LowTime() bool { return LowTime(s.RemainingSeconds) }

func (s Snapshot) Progress() float64 { return Progress(s.CurrentIndex, s.QuestionCount) }
