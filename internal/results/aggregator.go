// Package results collects scored Results and answers reporting queries.
package results

import (
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

var (
	ErrDuplicateResult = errors.New("result already recorded")
	ErrResultNotFound  = errors.New("result not found")
)

// FilterAll disables a categorical filter.
const FilterAll = "all"

// Aggregator is an append-only, id-keyed collection of Results.
//
// Readers work on a snapshot taken under the read lock; writers never modify
// an element a snapshot can see (Update copies the slice first), so every
// query observes either the state before or after a write, never a mix.
type Aggregator struct {
	mu    sync.RWMutex
	items []exam.Result
	index map[string]int
}

func NewAggregator() *Aggregator {
	return &Aggregator{index: map[string]int{}}
}

// Add appends r. Each result id may be added once.
func (a *Aggregator) Add(r exam.Result) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.index[r.ID]; ok {
		return ErrDuplicateResult
	}
	a.index[r.ID] = len(a.items)
	a.items = append(a.items, r)
	return nil
}

// Load appends results read back from persistence, skipping ids already present.
func (a *Aggregator) Load(rs []exam.Result) int {
	n := 0
	for _, r := range rs {
		if a.Add(r) == nil {
			n++
		}
	}
	return n
}

// Update applies fn to the result with id under the write lock and swaps in
// what it returns. Updates to one result are serialized, so each fn sees the
// previous update's outcome. When fn fails nothing changes.
func (a *Aggregator) Update(id string, fn func(exam.Result) (exam.Result, error)) (exam.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.index[id]
	if !ok {
		return exam.Result{}, ErrResultNotFound
	}
	next, err := fn(a.items[i])
	if err != nil {
		return exam.Result{}, err
	}
	next.ID = id
	items := make([]exam.Result, len(a.items), cap(a.items))
	copy(items, a.items)
	items[i] = next
	a.items = items
	return next, nil
}

func (a *Aggregator) Get(id string) (exam.Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	i, ok := a.index[id]
	if !ok {
		return exam.Result{}, false
	}
	return a.items[i], true
}

func (a *Aggregator) snapshot() []exam.Result {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items[:len(a.items):len(a.items)]
}

func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.items)
}

// All returns every result in insertion order.
func (a *Aggregator) All() []exam.Result {
	return a.Select(nil)
}

// Select returns, in insertion order, a new slice of results matching p. A nil
// predicate matches everything.
func (a *Aggregator) Select(p Predicate) []exam.Result {
	snap := a.snapshot()
	out := make([]exam.Result, 0, len(snap))
	for _, r := range snap {
		if p == nil || p(r) {
			out = append(out, r)
		}
	}
	return out
}

// Filter matches searchText against student name, email or test title and
// applies the status and test-title filters; "all" disables a filter.
func (a *Aggregator) Filter(searchText, statusFilter, testFilter string) []exam.Result {
	return a.Select(And(MatchSearch(searchText), MatchStatus(statusFilter), MatchTest(testFilter)))
}

type Summary struct {
	TotalResults     int `json:"total_results"`
	CompletedCount   int `json:"completed_count"`
	InProgressCount  int `json:"in_progress_count"`
	NotStartedCount  int `json:"not_started_count"`
	NeedsManualCount int `json:"needs_manual_count"`
	// AveragePercentage is the unrounded mean over completed results, or nil
	// when there are none. Round with RoundPercentage for display.
	AveragePercentage *float64 `json:"average_percentage"`
}

// Average unwraps AveragePercentage; ok is false when there is no data.
func (s Summary) Average() (avg float64, ok bool) {
	if s.AveragePercentage == nil {
		return 0, false
	}
	return *s.AveragePercentage, true
}

func (a *Aggregator) Summary() Summary {
	return Summarize(a.snapshot())
}

// Summarize computes summary statistics over any result slice, e.g. a filtered view.
func Summarize(rs []exam.Result) Summary {
	s := Summary{TotalResults: len(rs)}
	sum := decimal.Zero
	for _, r := range rs {
		switch r.Status {
		case exam.StatusCompleted:
			s.CompletedCount++
			sum = sum.Add(decimal.NewFromFloat(r.Percentage))
			if r.NeedsManualGrading {
				s.NeedsManualCount++
			}
		case exam.StatusInProgress:
			s.InProgressCount++
		case exam.StatusNotStarted:
			s.NotStartedCount++
		}
	}
	if s.CompletedCount > 0 {
		avg, _ := sum.Div(decimal.NewFromInt(int64(s.CompletedCount))).Float64()
		s.AveragePercentage = &avg
	}
	return s
}

// DistinctTestTitles lists each test title once, sorted for stable output.
func (a *Aggregator) DistinctTestTitles() []string {
	snap := a.snapshot()
	seen := make(map[string]struct{}, len(snap))
	out := make([]string, 0)
	for _, r := range snap {
		if _, ok := seen[r.TestTitle]; ok {
			continue
		}
		seen[r.TestTitle] = struct{}{}
		out = append(out, r.TestTitle)
	}
	sort.Strings(out)
	return out
}
