package session

import (
	"errors"
	"fmt"
	"net/http"
)

// SessionExpiredMessage is shown to users whose session could not be renewed.
const SessionExpiredMessage = "Session expired"

var (
	// ErrUnauthorized is matched by every *APIError carrying status 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrSessionExpired signals that the refresh token could not be exchanged and the scope was torn down.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotAuthenticated is returned by operations that need a session when none exists.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrInvalidConfig reports an unusable client configuration.
	ErrInvalidConfig = errors.New("invalid session client config")
)

// APIError describes a failed call to the remote API. Status 0 means the request never
// produced a response.
type APIError struct {
	Status  int
	Message string
	// Err is the transport failure behind a Status 0 error.
	Err error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 responses and exposes transport causes.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return e.Err
}

// RefreshError is delivered to every request waiting on a failed refresh.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	if e == nil || e.Cause == nil {
		return ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSessionExpired.Error(), e.Cause)
}

// Unwrap exposes both ErrSessionExpired and the underlying cause.
func (e *RefreshError) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return []error{ErrSessionExpired}
	}
	return []error{ErrSessionExpired, e.Cause}
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrSessionExpired) {
		return SessionExpiredMessage
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
