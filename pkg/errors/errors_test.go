package errors

import (
	"fmt"
	"testing"
)

func TestIsCodeThroughWrapping(t *testing.T) {
	base := New(CodeInvalidTransition, "cannot submit from approved")
	wrapped := fmt.Errorf("service call: %w", base)

	if !IsCode(wrapped, CodeInvalidTransition) {
		t.Fatalf("expected IsCode to see %s through wrapping", CodeInvalidTransition)
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Fatalf("did not expect code %s", CodeNotFound)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeLocked, "project is under review")); got != CodeLocked {
		t.Fatalf("expected %s, got %s", CodeLocked, got)
	}
	if got := CodeOf(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("expected %s for foreign error, got %s", CodeUnknown, got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CodeInternal, "storage failure")
	if err.Unwrap() != cause {
		t.Fatalf("expected Unwrap to return the cause")
	}
	if err.Error() == "" {
		t.Fatalf("expected non-empty message")
	}
}
