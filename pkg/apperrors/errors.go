// Package apperrors defines sentinel errors shared across layers.
// Handlers map them to HTTP status codes with errors.Is.
package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrValidation          = errors.New("invalid request")
	ErrNoMenuSource        = errors.New("no menu source provided")
	ErrQuotaExceeded       = errors.New("monthly analysis limit reached")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrChatHistoryMismatch = errors.New("chat history does not end with the submitted message")

	// ErrUpstream marks failures of an external dependency (model provider,
	// places API, menu URL fetch). Surfaced as 502.
	ErrUpstream = errors.New("upstream service failure")
)
