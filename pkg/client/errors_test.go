package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{name: "not found is client", status: 404, expected: ErrorClassClient},
		{name: "bad request is client", status: 400, expected: ErrorClassClient},
		{name: "unprocessable is validation", status: 422, expected: ErrorClassValidation},
		{name: "internal error is server", status: 500, expected: ErrorClassServer},
		{name: "bad gateway is server", status: 502, expected: ErrorClassServer},
		{name: "success status is application", status: 200, expected: ErrorClassApplication},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "error with wrapped error",
			apiError: &APIError{
				Class:   ErrorClassNetwork,
				Message: "request failed",
				Err:     errors.New("connection refused"),
			},
			expected: "api network error (status 0, code 0): request failed: connection refused",
		},
		{
			name: "application error",
			apiError: &APIError{
				StatusCode: 200,
				Code:       40401,
				Class:      ErrorClassApplication,
				Message:    "Job not found: 7",
			},
			expected: "api application error (status 200, code 40401): Job not found: 7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.apiError.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	apiErr := &APIError{
		Class: ErrorClassNetwork,
		Err:   fmt.Errorf("%w: dial tcp", ErrTimeout),
	}

	if !errors.Is(apiErr, ErrTimeout) {
		t.Error("errors.Is should find ErrTimeout")
	}
	if !apiErr.Timeout() {
		t.Error("Timeout() should be true")
	}

	wrapped := fmt.Errorf("load jobs: %w", apiErr)
	got, ok := AsAPIError(wrapped)
	if !ok || got != apiErr {
		t.Errorf("AsAPIError() = %v, %v", got, ok)
	}

	if _, ok := AsAPIError(errors.New("plain")); ok {
		t.Error("AsAPIError() should not match a plain error")
	}
}
