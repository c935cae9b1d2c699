package service

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	err := AlreadyExists("Policy number %d already exists", 7)
	if err.Error() != "Policy number 7 already exists" {
		t.Errorf("Unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrAlreadyExists) {
		t.Error("Expected errors.Is to match AlreadyExists")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Expected errors.Is not to match NotFound")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"not found", NotFound("Policy not found: 1"), KindNotFound},
		{"wrapped", fmt.Errorf("update: %w", ValidationFailed("bad")), KindValidationFailed},
		{"joined keeps first", errors.Join(UnsupportedMediaType("type"), PayloadTooLarge("size")), KindUnsupportedMediaType},
		{"plain error", errors.New("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
