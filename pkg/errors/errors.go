package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error surfaced by the scheduling core.
// Status mirrors the HTTP status an external caller would map the error
// kind to; the core itself never serves HTTP.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined error kinds, per the core's error taxonomy (spec §7).
var (
	ErrNoSessions           = New("NO_SESSIONS", http.StatusBadRequest, "no sessions supplied")
	ErrNoExams              = New("NO_EXAMS", http.StatusBadRequest, "no exams supplied")
	ErrNoRoomsAvailable     = New("NO_ROOMS_AVAILABLE", http.StatusConflict, "no candidate rooms available")
	ErrSubjectDuplicate     = New("SUBJECT_DUPLICATE", http.StatusConflict, "subject already scheduled in another exam")
	ErrFiliereConflict      = New("FILIERE_CONFLICT", http.StatusConflict, "filiere already scheduled in an overlapping exam")
	ErrInvalidInput         = New("INVALID_INPUT", http.StatusBadRequest, "invalid input")
	ErrUnrelocatableSession = New("UNRELOCATABLE_SESSION", http.StatusConflict, "session could not be relocated without conflict")
	ErrCoupledTPViolation   = New("COUPLED_TP_VIOLATION_PERSISTENT", http.StatusConflict, "coupled TP pair remained separated after repair")
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict             = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed   = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// Is reports whether err is, or wraps, an *Error with the same Code as
// target.
func Is(err error, target *Error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return target != nil && e.Code == target.Code
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
