// Package apperr defines the sentinel errors shared across service, HTTP,
// and CLI layers. Callers dispatch with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation marks a malformed attribute mapping; rejected before any
	// write, never partially applied.
	ErrValidation = errors.New("invalid character data")

	// ErrNoActiveCharacter is returned by update when the session has no
	// active character. User-actionable, not a system fault.
	ErrNoActiveCharacter = errors.New("no active character in session")

	// ErrNotFound marks an unknown character id.
	ErrNotFound = errors.New("character not found")

	// ErrVersionNotFound marks a version that does not belong to the
	// referenced character.
	ErrVersionNotFound = errors.New("version not found")

	// ErrConflict marks a write that lost an optimistic-concurrency race
	// after the bounded retries were exhausted.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrPersistence marks an underlying store failure; retryable from the
	// caller's perspective.
	ErrPersistence = errors.New("persistence failure")
)
