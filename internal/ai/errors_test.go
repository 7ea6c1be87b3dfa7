package ai

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestProviderErrorRetryability(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		retryable bool
	}{
		{ErrTypeRateLimit, true},
		{ErrTypeTimeout, true},
		{ErrTypeNetwork, true},
		{ErrTypeProvider, true},
		{ErrTypeAuthentication, false},
		{ErrTypeValidation, false},
		{ErrTypeConfiguration, false},
		{ErrTypeQuota, false},
		{ErrTypeModelUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := NewProviderError(tt.errType, "test", "openai")
			if err.IsRetryable() != tt.retryable {
				t.Errorf("retryable = %v, want %v", err.IsRetryable(), tt.retryable)
			}
			if IsRetryableError(err) != tt.retryable {
				t.Errorf("IsRetryableError = %v, want %v", IsRetryableError(err), tt.retryable)
			}
		})
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewProviderErrorWithCause(ErrTypeNetwork, "request failed", "openai", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not reachable via errors.Is")
	}

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As failed to extract ProviderError")
	}
	if pe.Type != ErrTypeNetwork {
		t.Errorf("type = %s, want network", pe.Type)
	}
}

func TestProviderErrorIsMatchesOnType(t *testing.T) {
	rateLimited := NewProviderError(ErrTypeRateLimit, "slow down", "openai")
	otherRateLimit := NewProviderError(ErrTypeRateLimit, "different message", "openai")
	authErr := NewProviderError(ErrTypeAuthentication, "bad key", "openai")

	if !errors.Is(rateLimited, otherRateLimit) {
		t.Error("same-type provider errors should match")
	}
	if errors.Is(rateLimited, authErr) {
		t.Error("different-type provider errors should not match")
	}
	if !IsRateLimitError(rateLimited) {
		t.Error("IsRateLimitError failed")
	}
	if !IsAuthenticationError(authErr) {
		t.Error("IsAuthenticationError failed")
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := NewProviderErrorWithCause(ErrTypeAuthentication, "invalid key", "openai", fmt.Errorf("401"))
	err.StatusCode = 401

	msg := err.Error()
	for _, want := range []string{"provider=openai", "type=authentication", "status=401", "invalid key", "cause=401"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}
