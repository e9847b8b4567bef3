package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	InvalidInput     Kind = "INVALID_INPUT"
	NotFound         Kind = "NOT_FOUND"
	Forbidden        Kind = "FORBIDDEN"
	StoreUnavailable Kind = "STORE_UNAVAILABLE"
)

// Error is the only error type the services hand back to transport code.
// Cause is kept for logs; callers must not inspect its text.
type Error struct {
	Kind    Kind   `json:"error_code"`
	Message string `json:"error"`
	Cause   error  `json:"-"`
}

func (e Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so errors.Is(err, apperr.Error{Kind: apperr.NotFound}) works.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, format string, args ...any) Error {
	return Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, message string) Error {
	return Error{Kind: kind, Message: message, Cause: cause}
}

func Invalid(format string, args ...any) Error {
	return New(InvalidInput, format, args...)
}

func Missing(format string, args ...any) Error {
	return New(NotFound, format, args...)
}

func Denied(format string, args ...any) Error {
	return New(Forbidden, format, args...)
}

func Unavailable(cause error, message string) Error {
	return Wrap(StoreUnavailable, cause, message)
}

// KindOf reports the kind of err, treating anything unclassified as a store failure.
func KindOf(err error) Kind {
	var appErr Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return StoreUnavailable
}

func StatusCode(kind Kind) int {
	switch kind {
	case InvalidInput:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
