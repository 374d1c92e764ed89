// Package common defines shared constants and sentinel errors used across
// the readsync client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Auth errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTokenExpired       = errors.New("token expired")
	ErrRefreshFailed      = errors.New("token refresh failed")
	ErrInvalidToken       = errors.New("invalid token")

	// Network errors. Always retryable; must never cause queue record
	// deletion or token invalidation.
	ErrUnavailable = errors.New("server unavailable")

	// Remote write conflicts (unique constraint on owner_id+raw_url).
	ErrConflict = errors.New("unique constraint conflict")

	// Local storage errors.
	ErrSecureStoreUnavailable = errors.New("secure store unavailable")
	ErrQueuePersistFailed     = errors.New("queue persist failed")
)
