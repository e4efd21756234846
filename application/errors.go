package application

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected   = fmt.Errorf("not connected")
	ErrPublishBusy    = fmt.Errorf("publish already in progress")
	ErrPeriodicActive = fmt.Errorf("periodic send already running")
	ErrInputsLocked   = fmt.Errorf("inputs locked while periodic send is running")
)

// ValidationError is a missing or malformed input detected before any
// network call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ServerError is a response with a non-2xx status or an ok:false payload.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}
	return e.Message
}

// NetworkError is a request that could not complete or a response that
// could not be parsed.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusText turns any controller error into the short text shown by the
// status indicator. fallback is used for server errors without a message.
func StatusText(err error, fallback string) string {
	var (
		validationErr *ValidationError
		serverErr     *ServerError
		networkErr    *NetworkError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, ErrNotConnected):
		return "Not connected"
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return fallback
	case errors.As(err, &networkErr):
		return "Network error"
	default:
		return err.Error()
	}
}
