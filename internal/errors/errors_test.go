package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		wantParts []string
	}{
		{
			name:      "with cause",
			err:       Wrap(BackendUnavailable, "POST http://localhost:8000/users", errors.New("connection refused")),
			wantParts: []string{"BACKEND_UNAVAILABLE", "POST http://localhost:8000/users", "connection refused"},
		},
		{
			name:      "without cause",
			err:       New(AssetNotFound, "/missing.css"),
			wantParts: []string{"ASSET_NOT_FOUND", "/missing.css"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}

	if New(EncodeFailed, "bad payload").Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestError_WithDetails(t *testing.T) {
	err := New(BackendRejected, "HTTP 500")
	details := map[string]int{"status": 500}

	if result := err.WithDetails(details); result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), InternalError},
		{"direct", New(AssetNotFound, "x"), AssetNotFound},
		{"wrapped", fmt.Errorf("serve: %w", New(AssetUnreadable, "x")), AssetUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetHint(t *testing.T) {
	if GetHint(BackendUnavailable) == "" {
		t.Error("BackendUnavailable should have a hint")
	}
	if GetHint(EncodeFailed) != "" {
		t.Error("EncodeFailed should not have a hint")
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		AssetNotFound,
		AssetForbidden,
		AssetUnreadable,
		InvalidConfig,
		BackendUnavailable,
		BackendRejected,
		EncodeFailed,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true
		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}
