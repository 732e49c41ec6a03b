package oauth2

import (
	"errors"
	"fmt"
)

// Error codes reported in AuthError.Code.
// Provider codes not listed here are passed through verbatim.
const (
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeInvalidScope   = "invalid_scope"
	ErrorCodeServerError    = "server_error"
	ErrorCodeClientError    = "client_error"
	ErrorCodeSessionExpired = "session_expired"
	ErrorCodeUnknown        = "unknown_error"
)

// AuthError is the error returned by every authentication operation.
// AppState carries the caller supplied state so failures can be correlated with the request that caused them.
type AuthError struct {
	Code        string
	Description string
	AppState    string
}

// NewAuthError builds an AuthError, falling back to ErrorCodeUnknown for an empty code.
func NewAuthError(code, description string) *AuthError {
	if code == "" {
		code = ErrorCodeUnknown
	}
	return &AuthError{Code: code, Description: description}
}

func (e *AuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WithAppState returns a copy of the error carrying appState.
func (e *AuthError) WithAppState(appState string) *AuthError {
	c := *e
	c.AppState = appState
	return &c
}

// AsAuthError extracts an AuthError from err's chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsAuthErrorCode reports whether err carries an AuthError with the given code.
func IsAuthErrorCode(err error, code string) bool {
	authErr, ok := AsAuthError(err)
	return ok && authErr.Code == code
}
