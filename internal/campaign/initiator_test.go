package campaign

import (
	"errors"
	"testing"
)

func TestRetryableTrueForRetryableInitiateError(t *testing.T) {
	err := &InitiateError{Retryable: true, Err: errors.New("timeout")}
	if !Retryable(err) {
		t.Fatal("expected retryable error to report Retryable true")
	}
}

func TestRetryableFalseForNonRetryableInitiateError(t *testing.T) {
	err := &InitiateError{Retryable: false, Err: errors.New("bad request")}
	if Retryable(err) {
		t.Fatal("expected non-retryable error to report Retryable false")
	}
}

func TestRetryableFalseForPlainError(t *testing.T) {
	if Retryable(errors.New("plain")) {
		t.Fatal("expected a plain error to be treated as non-retryable")
	}
}

func TestInitiateErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &InitiateError{Retryable: true, Err: inner}
	if !errors.Is(err, inner) {
		t.Fatal("expected InitiateError to unwrap to the inner error")
	}
	if err.Error() != inner.Error() {
		t.Fatalf("expected Error() to delegate to inner error, got %q", err.Error())
	}
}
