package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-assess/internal/exam"
	"github.com/mind-engage/mindengage-assess/internal/grading"
	"github.com/mind-engage/mindengage-assess/internal/results"
	"github.com/mind-engage/mindengage-assess/internal/session"
)

var validate = validator.New()

var errBadJSON = errors.New("bad json")

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadJSON
	}
	return nil
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst any) error {
	if err := decodeJSON(r, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, errBadJSON), errors.As(err, &verr),
		errors.Is(err, session.ErrOutOfRange),
		errors.Is(err, grading.ErrUnknownItem), errors.Is(err, grading.ErrNotManual):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, exam.ErrTestNotFound),
		errors.Is(err, exam.ErrResultNotFound), errors.Is(err, results.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidState), errors.Is(err, results.ErrDuplicateResult):
		return http.StatusConflict
	case errors.Is(err, exam.ErrInvalidTestDefinition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	http.Error(w, msg, code)
}
