package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/seee/internal/accounts"
	"github.com/aretw0/seee/internal/validation"
	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/notebook"
	"github.com/aretw0/seee/pkg/referral"
	"github.com/aretw0/seee/pkg/sanitize"
)

var errUnauthorized = errors.New("missing or invalid bearer token")

// requestError is a client error with a message safe to return verbatim.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr),
		errors.Is(err, validation.ErrInvalid),
		errors.Is(err, sanitize.ErrInputTooLarge),
		errors.Is(err, sanitize.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthorized),
		errors.Is(err, accounts.ErrInvalidToken),
		errors.Is(err, referral.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, referral.ErrAccountNotFound),
		errors.Is(err, notebook.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, referral.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, referral.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = http.StatusText(status)
	} else {
		s.Logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
