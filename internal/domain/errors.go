package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed or missing request payload.
	ErrValidation = errors.New("validation failed")
	// ErrEncoding signals a tokenizer or embedding oracle failure.
	ErrEncoding = errors.New("encoding failed")
	// ErrScoring signals a scoring oracle failure.
	ErrScoring = errors.New("prediction error")
	// ErrEmbeddingProvider signals a remote embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
)

// NewValidationError wraps ErrValidation with a human-readable reason.
func NewValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// EncodingError wraps ErrEncoding with the underlying cause.
type EncodingError struct {
	Cause error
}

func (e *EncodingError) Error() string {
	return ErrEncoding.Error() + ": " + e.Cause.Error()
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *EncodingError) Unwrap() []error { return []error{ErrEncoding, e.Cause} }

// NewEncodingError creates an encoding error. A nil cause yields nil.
func NewEncodingError(cause error) error {
	if cause == nil {
		return nil
	}
	return &EncodingError{Cause: cause}
}

// ScoringError wraps ErrScoring with the oracle failure rendered as text.
// Its message has the form "prediction error: <cause>".
type ScoringError struct {
	Cause error
}

func (e *ScoringError) Error() string {
	return ErrScoring.Error() + ": " + e.Cause.Error()
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *ScoringError) Unwrap() []error { return []error{ErrScoring, e.Cause} }

// NewScoringError creates a scoring error. A nil cause yields nil.
func NewScoringError(cause error) error {
	if cause == nil {
		return nil
	}
	return &ScoringError{Cause: cause}
}
