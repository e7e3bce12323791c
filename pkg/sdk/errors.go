package sdk

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionExpired is returned when a 401 could not be recovered by refreshing the access token.
	ErrSessionExpired = errors.New("session expired")

	// ErrLoginFailed is returned when the login envelope lacks a token or a user.
	ErrLoginFailed = errors.New("login failed")

	// ErrNotAuthenticated is returned by token accessors while the session is anonymous.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError describes a non-2xx response that was not recovered by a token refresh.
type APIError struct {
	Status int
	// Body is the decoded JSON error body, or nil when the body was not JSON.
	Body any
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.Status, msg)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Message extracts the human readable part of the error body ("error", then "message").
func (e *APIError) Message() string {
	body, ok := e.Body.(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"error", "message"} {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// IsStatus reports whether err is an *APIError carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
