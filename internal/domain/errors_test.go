package domain

import (
	"errors"
	"testing"
)

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("record %d: bad field", 3)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err.Error() != "validation failed: record 3: bad field" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestEncodingError_UnwrapsSentinelAndCause(t *testing.T) {
	cause := errors.New("oracle unavailable")
	err := NewEncodingError(cause)

	if !errors.Is(err, ErrEncoding) {
		t.Error("expected errors.Is(err, ErrEncoding)")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is(err, cause)")
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatal("expected *EncodingError")
	}
	if encErr.Cause != cause {
		t.Errorf("unexpected cause: %v", encErr.Cause)
	}
}

func TestScoringError_Message(t *testing.T) {
	err := NewScoringError(errors.New("dimension mismatch"))
	if err.Error() != "prediction error: dimension mismatch" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if !errors.Is(err, ErrScoring) {
		t.Error("expected errors.Is(err, ErrScoring)")
	}
	if errors.Is(err, ErrEncoding) {
		t.Error("scoring error must not match ErrEncoding")
	}
}

func TestNewErrors_NilCause(t *testing.T) {
	if NewEncodingError(nil) != nil {
		t.Error("expected nil encoding error for nil cause")
	}
	if NewScoringError(nil) != nil {
		t.Error("expected nil scoring error for nil cause")
	}
}
