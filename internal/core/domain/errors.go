package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when the backend answers 401 or when a
	// guarded operation runs without a session.
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("access forbidden")
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	ErrValidation       = errors.New("validation failed")
	ErrNoSession        = errors.New("no session bound to request")
	ErrInvalidInput     = errors.New("invalid input")
)

// APIError is a failed backend call that produced a response. Message is
// safe to show to the user.
type APIError struct {
	Status  int
	Message string
	Errors  any
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return e.Message
}

// Unwrap lets errors.Is(err, ErrUnauthenticated) match 401 responses.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthenticated
	}
	return nil
}

// SessionError is a failed session operation. Message is what the form that
// triggered the operation displays; Err keeps the cause for errors.Is.
type SessionError struct {
	Op      string
	Message string
	Err     error
}

func (e *SessionError) Error() string { return e.Message }

func (e *SessionError) Unwrap() error { return e.Err }

// AsAPIError extracts the *APIError from err's chain, or nil.
func AsAPIError(err error) *APIError {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// MessageOr returns the user-facing message carried by err, or fallback
// when err is not an *APIError or carries no message.
func MessageOr(err error, fallback string) string {
	if ae := AsAPIError(err); ae != nil && ae.Message != "" {
		return ae.Message
	}
	return fallback
}
