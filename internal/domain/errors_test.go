package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{
			name:     "not found",
			err:      &NotFoundError{Message: "document not found"},
			sentinel: ErrNotFound,
			status:   http.StatusNotFound,
		},
		{
			name:     "validation",
			err:      &ValidationError{Message: "title is required"},
			sentinel: ErrValidation,
			status:   http.StatusBadRequest,
		},
		{
			name:     "conflict",
			err:      &ConflictError{Message: "duplicate", ResourceType: "document", ResourceID: "doc-1"},
			sentinel: ErrConflict,
			status:   http.StatusConflict,
		},
		{
			name:     "concurrency",
			err:      &ConcurrencyError{DocumentID: "doc-1", ExpectedVersion: 3},
			sentinel: ErrConflict,
			status:   http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}

			var httpErr HTTPError
			if !errors.As(tt.err, &httpErr) {
				t.Fatal("does not implement HTTPError")
			}
			if httpErr.StatusCode() != tt.status {
				t.Errorf("status = %d, want %d", httpErr.StatusCode(), tt.status)
			}
		})
	}
}

func TestConcurrencyError_MatchesThroughWrapping(t *testing.T) {
	inner := &ConcurrencyError{DocumentID: "doc-1", ExpectedVersion: 2}
	wrapped := fmt.Errorf("save content: %w", inner)

	var concurrencyErr *ConcurrencyError
	if !errors.As(wrapped, &concurrencyErr) {
		t.Fatal("errors.As failed through wrapping")
	}
	if concurrencyErr.ExpectedVersion != 2 {
		t.Errorf("expected version = %d", concurrencyErr.ExpectedVersion)
	}
	if !errors.Is(wrapped, ErrConflict) {
		t.Error("wrapped ConcurrencyError should match ErrConflict")
	}
}
