// Package common defines shared constants and sentinel errors used across
// the media offloader. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Credential key file could not be created or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Key material is missing or corrupt.
	ErrCredentialsUnavailable = errors.New("credentials unavailable")

	// Input is not a ciphertext produced by the credential store.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// Object store call failed.
	ErrProvider = errors.New("provider error")

	// Local path is not under the configured media directory.
	ErrPathOutOfScope = errors.New("path out of scope")

	// Object store credentials or bucket are not set (local-only mode).
	ErrNotConfigured = errors.New("object store not configured")
)
