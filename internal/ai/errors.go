package ai

import (
	"fmt"
	"strings"
)

// ErrorType categorizes failures from embedding and chat providers.
type ErrorType string

const (
	// ErrTypeProvider indicates a generic provider-side failure
	ErrTypeProvider ErrorType = "provider"

	// ErrTypeConfiguration indicates invalid client configuration
	ErrTypeConfiguration ErrorType = "configuration"

	// ErrTypeAuthentication indicates a rejected API key
	ErrTypeAuthentication ErrorType = "authentication"

	// ErrTypeRateLimit indicates the provider throttled the request
	ErrTypeRateLimit ErrorType = "rate_limit"

	// ErrTypeQuota indicates quota or billing exhaustion
	ErrTypeQuota ErrorType = "quota"

	// ErrTypeNetwork indicates a transport-level failure
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeTimeout indicates the request timed out
	ErrTypeTimeout ErrorType = "timeout"

	// ErrTypeValidation indicates rejected input
	ErrTypeValidation ErrorType = "validation"

	// ErrTypeModelUnavailable indicates the requested model does not exist
	ErrTypeModelUnavailable ErrorType = "model_unavailable"

	// ErrTypeInternal indicates an internal error
	ErrTypeInternal ErrorType = "internal"
)

// ProviderError represents errors from AI providers
type ProviderError struct {
	// Type categorizes the error
	Type ErrorType `json:"type"`

	// Message provides human-readable error description
	Message string `json:"message"`

	// Provider indicates which provider caused the error
	Provider string `json:"provider,omitempty"`

	// StatusCode for HTTP-related errors
	StatusCode int `json:"status_code,omitempty"`

	// Underlying error that caused this error
	Cause error `json:"-"`

	// Retryable indicates if the operation can be retried
	Retryable bool `json:"retryable"`

	// RetryAfter suggests when to retry, in seconds (for rate limiting)
	RetryAfter int `json:"retry_after,omitempty"`
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	var parts []string

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}

	parts = append(parts, fmt.Sprintf("type=%s", e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches on error type, so errors.Is can check categories
func (e *ProviderError) Is(target error) bool {
	if pe, ok := target.(*ProviderError); ok {
		return e.Type == pe.Type
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}

// NewProviderError creates a new provider error
func NewProviderError(errType ErrorType, message, provider string) *ProviderError {
	return &ProviderError{
		Type:      errType,
		Message:   message,
		Provider:  provider,
		Retryable: isRetryableType(errType),
	}
}

// NewProviderErrorWithCause creates a provider error with an underlying cause
func NewProviderErrorWithCause(errType ErrorType, message, provider string, cause error) *ProviderError {
	return &ProviderError{
		Type:      errType,
		Message:   message,
		Provider:  provider,
		Cause:     cause,
		Retryable: isRetryableType(errType),
	}
}

// isRetryableType determines if an error type is worth retrying
func isRetryableType(errType ErrorType) bool {
	switch errType {
	case ErrTypeRateLimit, ErrTypeTimeout, ErrTypeNetwork, ErrTypeProvider:
		return true
	default:
		return false
	}
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.IsRetryable()
	}
	return false
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Type == ErrTypeRateLimit
	}
	return false
}

// IsAuthenticationError checks if an error is an authentication error
func IsAuthenticationError(err error) bool {
	if pe, ok := err.(*ProviderError); ok {
		return pe.Type == ErrTypeAuthentication
	}
	return false
}
