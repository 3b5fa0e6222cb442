package minthcm

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every AuthenticationError matches ErrAuthentication and every
// RequestError matches ErrRequest under errors.Is.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrRequest        = errors.New("request failed")
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrBaseURLRequired      = errors.New("base URL is required")
	ErrBaseURLTooShort      = errors.New("base URL too short to derive token endpoint")
	ErrClientIDRequired     = errors.New("client ID is required")
	ErrClientSecretRequired = errors.New("client secret is required")
	ErrModuleNameRequired   = errors.New("module name is required")
	ErrTokenExpired         = errors.New("token expired")
	ErrSessionClosed        = errors.New("session is logged out")
	ErrInvalidMethod        = errors.New("invalid HTTP method")
	ErrUnknownOperator      = errors.New("unknown filter operator")
	ErrInvalidBetween       = errors.New("BETWEEN requires two comma-separated values")
	ErrInvalidJSON          = errors.New("invalid JSON response")
)

// APIError carries the message, optional HTTP status code and optional detail
// string shared by both error kinds.
type APIError struct {
	Message string
	Code    int
	Details string
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder

	b.WriteString("MintHCM API Error")

	if e.Code != 0 {
		fmt.Fprintf(&b, " (%d)", e.Code)
	}

	b.WriteString(": ")
	b.WriteString(e.Message)

	if e.Details != "" {
		b.WriteString(" - ")
		b.WriteString(e.Details)
	}

	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// AuthenticationError is returned when the client credentials are rejected,
// when a token is rejected after one refresh-and-retry cycle, or when the
// refresh itself does not yield a usable token.
type AuthenticationError struct {
	APIError
}

// Is reports whether target is ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// RequestError is returned for every non-authentication failure: HTTP errors,
// invalid methods, malformed responses, unknown filter operators and token
// endpoint failures that are not credential rejections.
type RequestError struct {
	APIError
}

// Is reports whether target is ErrRequest.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequest
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(message string, code int, details string, cause error) *AuthenticationError {
	return &AuthenticationError{APIError{Message: message, Code: code, Details: details, Err: cause}}
}

// NewRequestError creates a RequestError.
func NewRequestError(message string, code int, details string, cause error) *RequestError {
	return &RequestError{APIError{Message: message, Code: code, Details: details, Err: cause}}
}

// IsAuthenticationError checks if the error is an authentication error.
func IsAuthenticationError(err error) bool {
	authErr := &AuthenticationError{}

	return errors.As(err, &authErr)
}

// IsRequestError checks if the error is a request error.
func IsRequestError(err error) bool {
	reqErr := &RequestError{}

	return errors.As(err, &reqErr)
}

// StatusCode returns the HTTP status code carried by err, or 0.
func StatusCode(err error) int {
	authErr := &AuthenticationError{}
	if errors.As(err, &authErr) {
		return authErr.Code
	}

	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr.Code
	}

	return 0
}
