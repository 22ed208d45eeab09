package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	authmw "github.com/mind-engage/mindengage-assess/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/grading"
	"github.com/mind-engage/mindengage-assess/internal/rbac"
	"github.com/mind-engage/mindengage-assess/internal/results"
)

// takerView renders results for their owner: full scores only when the test
// shows results immediately. Test lookups are cached per request; a test that
// cannot be loaded withholds the score.
type takerView struct {
	ctx   context.Context
	tests exam.Store
	shown map[string]bool
}

func newTakerView(ctx context.Context, tests exam.Store) *takerView {
	return &takerView{ctx: ctx, tests: tests, shown: map[string]bool{}}
}

func (v *takerView) render(res exam.Result) any {
	show, ok := v.shown[res.TestID]
	if !ok {
		t, err := v.tests.GetTest(v.ctx, res.TestID)
		show = err == nil && t.ShowResultsImmediately
		v.shown[res.TestID] = show
	}
	if !show {
		return toWithheld(res)
	}
	return toResultView(res)
}

// GET /results?q=...&status=completed|in_progress|not_started|all&test=<title>|all
// Students only ever see their own results, withheld where the test hides scores.
func ListResultsHandler(agg *results.Aggregator, tests exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		p := results.And(
			results.MatchSearch(q.Get("q")),
			results.MatchStatus(strings.TrimSpace(q.Get("status"))),
			results.MatchTest(strings.TrimSpace(q.Get("test"))),
		)
		if rbac.IsStaff(rbac.RoleFromContext(r.Context())) {
			writeJSON(w, http.StatusOK, toResultViews(agg.Select(p)))
			return
		}
		own := agg.Select(results.And(p, results.MatchStudent(authmw.SubjectFromContext(r.Context()))))
		view := newTakerView(r.Context(), tests)
		out := make([]any, 0, len(own))
		for _, res := range own {
			out = append(out, view.render(res))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /results/summary
// Accepts the same filters as the list so dashboards can summarize a view.
func ResultsSummaryHandler(agg *results.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") == "" && q.Get("status") == "" && q.Get("test") == "" {
			writeJSON(w, http.StatusOK, toSummaryView(agg.Summary()))
			return
		}
		writeJSON(w, http.StatusOK, toSummaryView(results.Summarize(agg.Filter(q.Get("q"), q.Get("status"), q.Get("test")))))
	}
}

// GET /results/titles
func ResultTitlesHandler(agg *results.Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, agg.DistinctTestTitles())
	}
}

// GET /results/{resultID}
func GetResultHandler(agg *results.Aggregator, tests exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := agg.Get(chi.URLParam(r, "resultID"))
		if !ok {
			writeError(w, results.ErrResultNotFound)
			return
		}
		access := rbac.AccessFor(r.Context(), authmw.SubjectFromContext(r.Context()), res.StudentID)
		switch {
		case access.CanWrite():
			writeJSON(w, http.StatusOK, newTakerView(r.Context(), tests).render(res))
		case access.CanRead():
			writeJSON(w, http.StatusOK, toResultView(res))
		default:
			writeError(w, results.ErrResultNotFound)
		}
	}
}

type gradeReq struct {
	Points map[string]int `json:"points" validate:"required,min=1"`
}

// POST /results/{resultID}/grades  { "points": { "<question_id>": 4 } }
// Awards points to manually graded items and re-totals the result. The regrade
// is persisted before it becomes visible; concurrent grades apply in turn.
func GradeResultHandler(agg *results.Aggregator, persist exam.ResultStore, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "resultID")
		if _, ok := agg.Get(id); !ok {
			writeError(w, results.ErrResultNotFound)
			return
		}
		var req gradeReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithoutCancel(r.Context())
		graded, err := agg.Update(id, func(res exam.Result) (exam.Result, error) {
			next, err := grading.ApplyOverrides(res, req.Points)
			if err != nil {
				return res, err
			}
			if persist != nil {
				if err := persist.SaveResult(ctx, next); err != nil {
					return res, fmt.Errorf("persist graded result: %w", err)
				}
			}
			return next, nil
		})
		if err != nil {
			if statusFor(err) == http.StatusInternalServerError {
				log.Error().Err(err).Str("result_id", id).Msg("apply manual grades")
			}
			writeError(w, err)
			return
		}
		log.Info().
			Str("result_id", graded.ID).
			Str("grader", authmw.SubjectFromContext(r.Context())).
			Int("raw_score", graded.RawScore).
			Bool("needs_manual", graded.NeedsManualGrading).
			Msg("manual grades applied")
		writeJSON(w, http.StatusOK, toResultView(graded))
	}
}
