package httptransport

import (
	"errors"
	"net/http"

	"ludo-arena/internal/app/session"
	"ludo-arena/internal/game"
)

// statusFor maps a service error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, session.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, game.ErrSessionNotFound), errors.Is(err, game.ErrProfileNotFound):
		return http.StatusNotFound, game.Code(err)
	case errors.Is(err, game.ErrPlayerNotFound):
		return http.StatusForbidden, game.Code(err)
	}
	switch game.KindOf(err) {
	case game.KindValidation:
		return http.StatusBadRequest, game.Code(err)
	case game.KindState:
		return http.StatusConflict, game.Code(err)
	case game.KindConcurrency:
		return http.StatusServiceUnavailable, game.Code(err)
	case game.KindPersistence:
		return http.StatusServiceUnavailable, game.Code(err)
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	WriteHTTPError(w, status, code)
}
