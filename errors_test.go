package guidestore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWithContext(t *testing.T) {
	err := WithContext(ErrInvalidConfig, map[string]interface{}{
		"field": "Bucket",
	})

	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("wrapped error should match sentinel")
	}
	if !strings.Contains(err.Error(), "Bucket") {
		t.Errorf("expected context in message, got %q", err.Error())
	}

	if WithContext(nil, map[string]interface{}{"a": 1}) != nil {
		t.Error("WithContext(nil) should return nil")
	}

	bare := &ErrorWithContext{Err: ErrNotFound}
	if bare.Error() != ErrNotFound.Error() {
		t.Errorf("empty context should not decorate message, got %q", bare.Error())
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		notFound  bool
		exists    bool
		permanent bool
	}{
		{"not found", ErrNotFound, true, false, true},
		{"wrapped not found", fmt.Errorf("get: %w", ErrNotFound), true, false, true},
		{"already exists", WithContext(ErrAlreadyExists, map[string]interface{}{"id": "t1"}), false, true, true},
		{"unavailable", ErrBackendUnavailable, false, false, false},
		{"invalid data", ErrInvalidData, false, false, true},
		{"other", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.notFound {
				t.Errorf("IsNotFound = %v, want %v", got, tt.notFound)
			}
			if got := IsAlreadyExists(tt.err); got != tt.exists {
				t.Errorf("IsAlreadyExists = %v, want %v", got, tt.exists)
			}
			if got := IsPermanent(tt.err); got != tt.permanent {
				t.Errorf("IsPermanent = %v, want %v", got, tt.permanent)
			}
		})
	}
}
