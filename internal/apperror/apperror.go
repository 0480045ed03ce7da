// Package apperror defines the application's error taxonomy.
//
// Services return these errors; the HTTP layer maps them to status codes
// with errors.Is/errors.As. Nothing below the handler layer knows about
// HTTP status codes.
package apperror

import "errors"

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// AppError pairs a sentinel (for errors.Is dispatch) with the exact
// message sent to the client. The message is client-safe by construction;
// internal detail stays in the wrapped Err chain and the server log.
type AppError struct {
	Err     error  // sentinel category
	Message string // client-facing message
	Field   string // optional: the input field at fault
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed reports client-fixable input problems (400).
func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

// Unauthorized reports a request with no usable credentials (401).
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

// Forbidden reports credentials that are present but not acceptable (403).
func Forbidden(message string) *AppError {
	return &AppError{Err: ErrForbidden, Message: message}
}

// NotFound reports a missing entity (404). The message names the entity
// the way the client knows it ("Channel not found"), never internal ids
// the caller didn't supply.
func NotFound(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

// Conflict reports a uniqueness violation (409), e.g. a duplicate email.
func Conflict(message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message}
}
