package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/rbac"
	"github.com/mind-engage/mindengage-assess/internal/results"
	"github.com/mind-engage/mindengage-assess/internal/session"
)

type Deps struct {
	Tests    exam.Store
	Persist  exam.ResultStore // optional
	Sessions *session.Manager
	Results  *results.Aggregator
	Log      zerolog.Logger
}

// Mount registers the assessment API on pr. The caller installs JWT
// authentication in front of it; every route here expects a role in context.
func Mount(pr chi.Router, d Deps) {
	pr.With(rbac.Require(rbac.PermTestView)).Get("/tests", ListTestsHandler(d.Tests))
	pr.With(rbac.Require(rbac.PermTestCreate)).Put("/tests", PutTestHandler(d.Tests))
	pr.With(rbac.Require(rbac.PermTestCreate)).Get("/tests/{testID}", GetTestHandler(d.Tests))

	pr.With(rbac.Require(rbac.PermSessionTake)).Post("/sessions", StartSessionHandler(d.Sessions))
	pr.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Use(rbac.RequireAny(rbac.PermSessionTake, rbac.PermResultViewAll))
		sr.Get("/", GetSnapshotHandler(d.Sessions))
		sr.Get("/question", CurrentQuestionHandler(d.Sessions))
		sr.Get("/navigator", NavigatorHandler(d.Sessions))
		sr.Put("/answer", AnswerHandler(d.Sessions))
		sr.Post("/flag", ToggleFlagHandler(d.Sessions))
		sr.Post("/next", NextHandler(d.Sessions))
		sr.Post("/previous", PreviousHandler(d.Sessions))
		sr.Post("/jump", JumpHandler(d.Sessions))
		sr.Post("/submit", SubmitHandler(d.Sessions))
		sr.Get("/result", SessionResultHandler(d.Sessions))
	})

	pr.Route("/results", func(rr chi.Router) {
		rr.With(rbac.RequireAny(rbac.PermResultViewOwn, rbac.PermResultViewAll)).Get("/", ListResultsHandler(d.Results, d.Tests))
		rr.With(rbac.Require(rbac.PermResultViewAll)).Get("/summary", ResultsSummaryHandler(d.Results))
		rr.With(rbac.Require(rbac.PermResultViewAll)).Get("/titles", ResultTitlesHandler(d.Results))
		rr.With(rbac.RequireAny(rbac.PermResultViewOwn, rbac.PermResultViewAll)).Get("/{resultID}", GetResultHandler(d.Results, d.Tests))
		rr.With(rbac.Require(rbac.PermResultGrade)).Post("/{resultID}/grades", GradeResultHandler(d.Results, d.Persist, d.Log))
	})
}
