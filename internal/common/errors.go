// Package common defines shared constants and sentinel errors used across
// the client, server and reminder components of moodiary. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorage marks a failure of the local durable store. An offline save
	// that hits this must be surfaced to the user, never swallowed.
	ErrStorage = errors.New("local storage unavailable")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("server unavailable")
	ErrConflict     = errors.New("already exists")

	// ErrIdentityNotReady means a sync was attempted before the account
	// identity resolved. Handled by a bounded backoff, not shown to the user.
	ErrIdentityNotReady = errors.New("identity not ready")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Validation errors.
	ErrInvalidLoginPassword = errors.New("invalid login/password")
	ErrEmptyContent         = errors.New("empty diary content")
)
