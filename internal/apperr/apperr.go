package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrCourtUnavailable     = errors.New("court is not available for the requested time")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrOverpayment          = errors.New("amount paid exceeds amount owed")
	ErrDuplicateParticipant = errors.New("participant already registered")
	ErrInsufficientBalance  = errors.New("insufficient bonus balance")
	ErrConflict             = errors.New("conflict")
)

// HTTPStatus maps an error produced by the core to the response code the
// handlers send back.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrCourtUnavailable),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrDuplicateParticipant),
		errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrOverpayment),
		errors.Is(err, ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// IsBusinessOutcome reports whether err is an expected domain refusal rather
// than a caller bug or an infrastructure failure.
func IsBusinessOutcome(err error) bool {
	return errors.Is(err, ErrCourtUnavailable) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrConflict)
}
