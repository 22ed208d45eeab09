package results

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

func res(id, name, email, title string, status exam.ResultStatus, pct float64) exam.Result {
	return exam.Result{ID: id, StudentName: name, StudentEmail: email, TestTitle: title, Status: status, Percentage: pct}
}

func sample() *Aggregator {
	a := NewAggregator()
	for _, r := range []exam.Result{
		res("r1", "Jane Doe", "jane@x.org", "Algebra", exam.StatusCompleted, 80),
		res("r2", "John Roe", "john@x.org", "Algebra", exam.StatusCompleted, 60),
		res("r3", "Jane Doe", "jane@x.org", "Biology", exam.StatusInProgress, 0),
	} {
		if err := a.Add(r); err != nil {
			panic(err)
		}
	}
	return a
}

func ids(rs []exam.Result) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestSummary(t *testing.T) {
	s := sample().Summary()
	if s.TotalResults != 3 || s.CompletedCount != 2 || s.InProgressCount != 1 || s.NotStartedCount != 0 {
		t.Fatalf("counts: %+v", s)
	}
	avg, ok := s.Average()
	if !ok || avg != 70 {
		t.Fatalf("average = %v, %v; want 70", avg, ok)
	}
}

func TestSummaryEmptyHasNoAverage(t *testing.T) {
	s := NewAggregator().Summary()
	if s.TotalResults != 0 || s.AveragePercentage != nil {
		t.Fatalf("got %+v", s)
	}
	if _, ok := s.Average(); ok {
		t.Fatal("empty summary should report no average")
	}
}

func TestSummaryAverageIsUnroundedMean(t *testing.T) {
	a := NewAggregator()
	for i, p := range []float64{66.7, 100, 50} {
		_ = a.Add(res(fmt.Sprint(i), "s", "s@x", "T", exam.StatusCompleted, p))
	}
	avg, _ := a.Summary().Average()
	if math.Abs(avg-216.7/3) > 1e-9 {
		t.Fatalf("average = %v, want %v", avg, 216.7/3)
	}
	if RoundPercentage(avg) != 72.2 || FormatPercentage(avg) != "72.2%" {
		t.Fatalf("display %v %q", RoundPercentage(avg), FormatPercentage(avg))
	}
}

func TestFilter(t *testing.T) {
	a := sample()
	cases := []struct {
		name                 string
		search, status, test string
		want                 []string
	}{
		{"all", "", "all", "all", []string{"r1", "r2", "r3"}},
		{"jane completed", "jane", "completed", "all", []string{"r1"}},
		{"case insensitive email", "JOHN@", "all", "all", []string{"r2"}},
		{"matches title", "bio", "all", "all", []string{"r3"}},
		{"test filter", "", "all", "Algebra", []string{"r1", "r2"}},
		{"status in progress", "", "in_progress", "all", []string{"r3"}},
		{"no match", "zed", "all", "all", []string{}},
		{"spaces are literal", "doe ", "all", "all", []string{}},
		{"inner space", "jane d", "all", "all", []string{"r1", "r3"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(a.Filter(tc.search, tc.status, tc.test))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestSelectComposes(t *testing.T) {
	a := sample()
	got := ids(a.Select(And(MatchStudent(""), MatchTest("Algebra"), func(r exam.Result) bool { return r.Percentage > 70 })))
	if !reflect.DeepEqual(got, []string{"r1"}) {
		t.Fatalf("got %v", got)
	}
}

func TestDistinctTestTitles(t *testing.T) {
	got := sample().DistinctTestTitles()
	if !reflect.DeepEqual(got, []string{"Algebra", "Biology"}) {
		t.Fatalf("got %v", got)
	}
	if got := NewAggregator().DistinctTestTitles(); got == nil || len(got) != 0 {
		t.Fatalf("empty titles = %#v", got)
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	a := sample()
	if err := a.Add(res("r1", "x", "x", "x", exam.StatusCompleted, 1)); !errors.Is(err, ErrDuplicateResult) {
		t.Fatalf("err = %v", err)
	}
	if a.Len() != 3 {
		t.Fatalf("len = %d", a.Len())
	}
}

func TestLoadSkipsKnownIDs(t *testing.T) {
	a := sample()
	n := a.Load([]exam.Result{
		res("r1", "x", "x", "x", exam.StatusCompleted, 1),
		res("r4", "Ann", "ann@x", "Chem", exam.StatusCompleted, 90),
	})
	if n != 1 || a.Len() != 4 {
		t.Fatalf("loaded %d, len %d", n, a.Len())
	}
}

func TestUpdateDoesNotMutateEarlierSnapshots(t *testing.T) {
	a := sample()
	before := a.All()
	got, err := a.Update("r2", func(r exam.Result) (exam.Result, error) {
		r.Percentage = 95
		return r, nil
	})
	if err != nil || got.Percentage != 95 {
		t.Fatalf("update %+v, %v", got, err)
	}
	if before[1].Percentage != 60 {
		t.Fatalf("earlier snapshot changed: %v", before[1].Percentage)
	}
	if r, _ := a.Get("r2"); r.Percentage != 95 {
		t.Fatalf("updated = %v", r.Percentage)
	}
	_, err = a.Update("nope", func(r exam.Result) (exam.Result, error) { return r, nil })
	if !errors.Is(err, ErrResultNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateFailureLeavesResult(t *testing.T) {
	a := sample()
	boom := errors.New("disk full")
	_, err := a.Update("r1", func(r exam.Result) (exam.Result, error) {
		r.Percentage = 1
		return r, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if r, _ := a.Get("r1"); r.Percentage != 80 {
		t.Fatalf("failed update leaked: %v", r.Percentage)
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	a := sample()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = a.Update("r1", func(r exam.Result) (exam.Result, error) {
				r.RawScore++
				return r, nil
			})
		}()
	}
	wg.Wait()
	if r, _ := a.Get("r1"); r.RawScore != 100 {
		t.Fatalf("lost updates: raw score %d", r.RawScore)
	}
}

func TestConcurrentAddAndQuery(t *testing.T) {
	a := NewAggregator()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = a.Add(res(fmt.Sprintf("%d-%d", w, i), "s", "s@x", "T", exam.StatusCompleted, 50))
				s := a.Summary()
				if s.CompletedCount != s.TotalResults {
					t.Errorf("inconsistent summary %+v", s)
				}
			}
		}(w)
	}
	wg.Wait()
	if a.Len() != 200 {
		t.Fatalf("len = %d", a.Len())
	}
}
