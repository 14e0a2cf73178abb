package syncerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("user link", "no uid mapped for username alice")

	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false, want true")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("errors.Is(err, ErrValidation) = true, want false")
	}
	if err.Error() != "no uid mapped for username alice" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNotFoundError_Wrapped(t *testing.T) {
	err := fmt.Errorf("resolve uid: %w", NewNotFoundError("user link", ""))

	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is on wrapped error = false, want true")
	}
}

func TestNotFoundError_MessageFallbacks(t *testing.T) {
	if got := NewNotFoundError("user link", "").Error(); got != "user link not found" {
		t.Errorf("Error() = %q, want %q", got, "user link not found")
	}
	if got := (&NotFoundError{}).Error(); got != "resource not found" {
		t.Errorf("Error() = %q, want %q", got, "resource not found")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("username", "")

	if !errors.Is(err, ErrValidation) {
		t.Error("errors.Is(err, ErrValidation) = false, want true")
	}
	if err.Error() != "validation failed for field: username" {
		t.Errorf("Error() = %q", err.Error())
	}
}
