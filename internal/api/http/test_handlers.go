package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assess/internal/exam"
)

// PUT /tests  (full definition, answer keys included)
// Creates or replaces a test. Running sessions keep the version they started with.
func PutTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t exam.Test
		// PutTest validates; tag failures surface as invalid definitions.
		if err := decodeJSON(r, &t); err != nil {
			writeError(w, err)
			return
		}
		if err := store.PutTest(r.Context(), t); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTestSummary(t))
	}
}

// GET /tests
func ListTestsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListTests(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]testSummary, 0, len(list))
		for _, t := range list {
			out = append(out, toTestSummary(t))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// GET /tests/{testID}  (staff; includes answer keys)
func GetTestHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := store.GetTest(r.Context(), chi.URLParam(r, "testID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}
