package auth

import "errors"

var (
	ErrOperationPending = errors.New("an authentication operation is already pending")
	ErrNoConsentUI      = errors.New("no consent ui configured")
	ErrMissingClientID  = errors.New("client id is required")
	ErrMissingExchanger = errors.New("token exchanger is required")
	ErrInvalidRedirect  = errors.New("invalid redirect url")
)
