// Package apperrors defines the user-facing error taxonomy shared by every
// component: validation failures detected before any network call, and
// transport failures mapped from HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindConflict           Kind = "CONFLICT"
	KindNotFound           Kind = "NOT_FOUND"
	KindRateLimited        Kind = "RATE_LIMITED"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindBadRequest         Kind = "BAD_REQUEST"
	KindUnavailable        Kind = "UNAVAILABLE"
	KindBusy               Kind = "BUSY"
)

// Common user-facing messages.
const (
	MsgTryAgainLater = "Something went wrong. Please try again later."
	MsgSessionLost   = "Your session has expired. Please log in again."
	MsgInFlight      = "Please wait, your previous request is still being processed."
)

// AppError is an error that can be shown to the user as-is.
type AppError struct {
	Kind    Kind
	Field   string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation reports a rule violated by user input on field.
func Validation(field, message string) *AppError {
	return &AppError{Kind: KindValidation, Field: field, Message: message}
}

// New creates an AppError of the given kind.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// Wrap attaches kind and message to a raw cause.
func Wrap(err error, kind Kind, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: kind, Message: message, Err: err}
}

// Unavailable is the generic "try again later" mapping for unexpected failures.
func Unavailable(err error) *AppError {
	return Wrap(err, KindUnavailable, MsgTryAgainLater)
}

// Busy is returned when the triggering action is already in flight.
func Busy() *AppError {
	return New(KindBusy, MsgInFlight)
}

// IsKind reports whether err is an AppError of kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// Message extracts the user-facing message from err, falling back to the
// generic message for errors that were never mapped.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return MsgTryAgainLater
}

// FromResponse maps a failed backend call with the given HTTP status (0 for
// transport failures). A 401 means the session was lost; anything else is
// reported with message.
func FromResponse(err error, status int, message string) *AppError {
	if err == nil {
		return nil
	}
	if status == 401 {
		return &AppError{Kind: KindUnauthorized, Message: MsgSessionLost, Status: status, Err: err}
	}
	return &AppError{Kind: KindUnavailable, Message: message, Status: status, Err: err}
}
