package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidCoordinate, "bad coordinate: %s", "io.quarkus")

	if err.Code != ErrCodeInvalidCoordinate {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidCoordinate)
	}
	if err.Message != "bad coordinate: io.quarkus" {
		t.Errorf("Message = %v", err.Message)
	}

	expected := "INVALID_COORDINATE: bad coordinate: io.quarkus"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeNetwork, cause, "graphql request failed")

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeNotFound, "x"), ErrCodeNotFound, true},
		{"non-matching code", New(ErrCodeNotFound, "x"), ErrCodeNetwork, false},
		{"outer code", Wrap(ErrCodeNetwork, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNetwork, true},
		{"inner code", Wrap(ErrCodeNetwork, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeInvalidInput, true},
		{"fmt wrapped", fmt.Errorf("ctx: %w", New(ErrCodeUnavailable, "down")), ErrCodeUnavailable, true},
		{"rate limited type", fmt.Errorf("ctx: %w", &RateLimitedError{}), ErrCodeRateLimited, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeGraphQL, "x"), ErrCodeGraphQL},
		{"rate limited", &RateLimitedError{}, ErrCodeRateLimited},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "friendly message")); got != "friendly message" {
		t.Errorf("UserMessage() = %v", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage() = %v", got)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", New(ErrCodeUnavailable, "breaker open"), true},
		{"unauthorized", Wrap(ErrCodeNetwork, New(ErrCodeUnauthorized, "bad token"), "query"), true},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), true},
		{"rate limited", &RateLimitedError{}, false},
		{"network", New(ErrCodeNetwork, "timeout"), false},
		{"not found", New(ErrCodeNotFound, "repo"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	t.Run("with retry after", func(t *testing.T) {
		err := &RateLimitedError{RetryAfter: 60}
		expected := "rate limited (retry after 60 seconds)"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("with reset time", func(t *testing.T) {
		err := &RateLimitedError{Message: "graphql", ResetAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
		expected := "rate limited: graphql (resets at 2024-01-02T03:04:05Z)"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("bare", func(t *testing.T) {
		err := &RateLimitedError{}
		if err.Error() != "rate limited" {
			t.Errorf("Error() = %v", err.Error())
		}
		if err.Code() != ErrCodeRateLimited {
			t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeRateLimited)
		}
	})
}
