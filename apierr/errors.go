/*
Package apierr defines the errors returned by the session manager and the
resource client.

  - AuthError / RegisterError: the backend rejected login or registration.
  - SessionExpiredError: a 401 could not be recovered by a token refresh.
  - HTTPError: any other non-2xx response.
  - NetworkError: the request never produced a response.
  - MalformedResponseError: a 2xx response whose body does not match its schema.

All of them unwrap to their cause so errors.Is and errors.As see through them.
*/
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	DefaultLoginMessage    = "Login failed"
	DefaultRegisterMessage = "Registration failed"
)

// HTTPError is a non-2xx response from the backend.
type HTTPError struct {
	StatusCode int
	// Detail is the backend's "detail" field, or the status text when absent.
	Detail string
	Method string
	URL    string
	// Request is the request that produced the response. The session manager
	// reads the bearer token it carried to detect stale 401s.
	Request *http.Request
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("[%s %s] %d: %s", e.Method, e.URL, e.StatusCode, e.Detail)
}

// Unauthorized reports whether the backend answered 401.
func (e *HTTPError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// NewHTTPError builds an HTTPError from a response and its already-read body.
func NewHTTPError(resp *http.Response, body []byte) *HTTPError {
	e := &HTTPError{
		StatusCode: resp.StatusCode,
		Detail:     ParseDetail(body),
		Request:    resp.Request,
	}
	if e.Detail == "" {
		e.Detail = http.StatusText(resp.StatusCode)
	}
	if resp.Request != nil {
		e.Method = resp.Request.Method
		e.URL = resp.Request.URL.Path
	}
	return e
}

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("[%s %s] network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError is a 2xx response that could not be parsed or validated.
type MalformedResponseError struct {
	Method string
	URL    string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("[%s %s] malformed response: %v", e.Method, e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// SessionExpiredError means the access token was rejected and could not be
// refreshed. The session has been cleared when Logout is true.
type SessionExpiredError struct {
	Logout     bool
	RedirectTo string
	Err        error
}

func (e *SessionExpiredError) Error() string {
	if e.Err == nil {
		return "session expired"
	}
	return fmt.Sprintf("session expired: %v", e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// AuthError is a rejected login. Message is safe to show to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// RegisterError is a rejected account registration.
type RegisterError struct {
	Message string
	Err     error
}

func (e *RegisterError) Error() string { return e.Message }

func (e *RegisterError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err carries a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsSessionExpired reports whether err is a forced logout.
func IsSessionExpired(err error) bool {
	var expired *SessionExpiredError
	return errors.As(err, &expired)
}

// UserMessage returns the text to show for err, preferring the backend detail.
func UserMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail != "" && httpErr.Detail != http.StatusText(httpErr.StatusCode) {
		return httpErr.Detail
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Err.Error()
	}
	return fallback
}
