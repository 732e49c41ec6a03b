package errors

import (
	"errors"
)

// Common infrastructure errors. Provider and flow errors are *oauth2.AuthError values instead.
var (
	// Token errors
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// Storage errors
	ErrStoreCorrupt      = errors.New("token store is corrupt")
	ErrInvalidPassphrase = errors.New("invalid passphrase")

	// Session state errors
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidState    = errors.New("invalid session state")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)
