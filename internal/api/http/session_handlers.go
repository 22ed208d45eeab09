package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-assess/internal/auth/middleware"
	"github.com/mind-engage/mindengage-assess/internal/rbac"
	"github.com/mind-engage/mindengage-assess/internal/session"
)

type startSessionReq struct {
	TestID string `json:"test_id" validate:"required"`
}

// POST /sessions  { "test_id": "..." }
// The taker is the authenticated caller.
func StartSessionHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startSessionReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		id, _ := authmw.IdentityFromContext(r.Context())
		c, err := m.Start(r.Context(), strings.TrimSpace(req.TestID), session.Taker{
			ID:    id.Subject,
			Name:  id.Name,
			Email: id.Email,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSnapshotView(c.Snapshot()))
	}
}

// sessionFor resolves {sessionID}. Takers reach only their own sessions; staff
// may read any session but only the taker may change it.
func sessionFor(w http.ResponseWriter, r *http.Request, m *session.Manager, write bool) (*session.Controller, bool) {
	c, err := m.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	access := rbac.AccessFor(r.Context(), authmw.SubjectFromContext(r.Context()), c.Taker().ID)
	if access.CanWrite() || (!write && access.CanRead()) {
		return c, true
	}
	// do not reveal other takers' session ids
	writeError(w, session.ErrSessionNotFound)
	return nil, false
}

// GET /sessions/{sessionID}
func GetSnapshotHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, false)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toSnapshotView(c.Snapshot()))
	}
}

// GET /sessions/{sessionID}/question
func CurrentQuestionHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, false)
		if !ok {
			return
		}
		q, err := c.CurrentQuestion()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /sessions/{sessionID}/navigator
func NavigatorHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, false)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, c.Navigator())
	}
}

type answerReq struct {
	Value string `json:"value"`
}

// PUT /sessions/{sessionID}/answer  { "value": "..." }
// Records an answer for the current question.
func AnswerHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, true)
		if !ok {
			return
		}
		var req answerReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := c.Answer(req.Value); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSnapshotView(c.Snapshot()))
	}
}

// POST /sessions/{sessionID}/flag
func ToggleFlagHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, true)
		if !ok {
			return
		}
		flagged, err := c.ToggleFlag()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"flagged":  flagged,
			"snapshot": toSnapshotView(c.Snapshot()),
		})
	}
}

// navHandler wraps Next and Previous.
func navHandler(m *session.Manager, move func(*session.Controller) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, true)
		if !ok {
			return
		}
		if err := move(c); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSnapshotView(c.Snapshot()))
	}
}

// POST /sessions/{sessionID}/next
func NextHandler(m *session.Manager) http.HandlerFunc {
	return navHandler(m, (*session.Controller).Next)
}

// POST /sessions/{sessionID}/previous
func PreviousHandler(m *session.Manager) http.HandlerFunc {
	return navHandler(m, (*session.Controller).Previous)
}

type jumpReq struct {
	Index *int `json:"index" validate:"required"`
}

// POST /sessions/{sessionID}/jump  { "index": 2 }
func JumpHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, true)
		if !ok {
			return
		}
		var req jumpReq
		if err := decode(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if err := c.JumpTo(*req.Index); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSnapshotView(c.Snapshot()))
	}
}

// POST /sessions/{sessionID}/submit
func SubmitHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, true)
		if !ok {
			return
		}
		res, err := c.Submit()
		if err != nil {
			writeError(w, err)
			return
		}
		if !c.ShowResultsImmediately() && !rbac.IsStaff(rbac.RoleFromContext(r.Context())) {
			writeJSON(w, http.StatusOK, toWithheld(res))
			return
		}
		writeJSON(w, http.StatusOK, toResultView(res))
	}
}

// GET /sessions/{sessionID}/result
// 409 until the session has ended by submission or expiry.
func SessionResultHandler(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := sessionFor(w, r, m, false)
		if !ok {
			return
		}
		res, done := c.Result()
		if !done {
			writeError(w, session.ErrInvalidState)
			return
		}
		if !c.ShowResultsImmediately() && !rbac.IsStaff(rbac.RoleFromContext(r.Context())) {
			writeJSON(w, http.StatusOK, toWithheld(res))
			return
		}
		writeJSON(w, http.StatusOK, toResultView(res))
	}
}
