// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Credential errors. ErrInvalidPassword means the password did not match,
	// ErrPasswordCheck means the check itself could not be performed.
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordCheck   = errors.New("password verification failed")
	ErrHashingFailure  = errors.New("password hashing failed")

	// Auth errors (invalid, expired, revoked or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// ErrRevocationDisabled is returned when a token is revoked but no
	// deny-list is configured.
	ErrRevocationDisabled = errors.New("token revocation is disabled")

	// Validation errors.
	ErrUnknownRole = errors.New("unknown role")
)
