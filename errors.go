package llmgateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrInvalidModel indicates the requested model is not supported by the provider.
	ErrInvalidModel = errors.New("llmgateway: invalid or unsupported model")

	// ErrInvalidAPIKey indicates the API key is missing, malformed, or unauthorized.
	ErrInvalidAPIKey = errors.New("llmgateway: invalid API key")

	// ErrMissingCredential indicates no credential was configured for a backend.
	ErrMissingCredential = errors.New("llmgateway: missing credential")

	// ErrUnknownProvider indicates no backend is registered under the requested id.
	ErrUnknownProvider = errors.New("llmgateway: unknown provider")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("llmgateway: rate limit exceeded")

	// ErrUnsupportedFeature indicates the requested feature is not available.
	// Examples: web search on a backend without a search tool.
	ErrUnsupportedFeature = errors.New("llmgateway: unsupported feature")

	// ErrInvalidRequest indicates the request parameters are invalid.
	ErrInvalidRequest = errors.New("llmgateway: invalid request")

	// ErrProviderUnavailable indicates the provider service is down or unreachable.
	ErrProviderUnavailable = errors.New("llmgateway: provider unavailable")

	// ErrTimeout indicates the provider did not answer in time.
	ErrTimeout = errors.New("llmgateway: provider timeout")

	// ErrContentBlocked indicates the backend stopped generation on a safety policy.
	ErrContentBlocked = errors.New("llmgateway: content blocked by provider policy")

	// ErrMalformedChunk indicates a streaming fragment had unexpected or absent fields.
	ErrMalformedChunk = errors.New("llmgateway: malformed chunk")

	// ErrStreamTruncated indicates a stream ended without a terminal marker.
	ErrStreamTruncated = errors.New("llmgateway: stream ended without terminal marker")
)

// ErrorKind is the closed taxonomy every failure is classified into.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration_error"
	KindTransport     ErrorKind = "transport_error"
	KindContentPolicy ErrorKind = "content_policy_block"
	KindMalformed     ErrorKind = "malformed_chunk"
)

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model    string // The model that was requested
	Provider string // The provider name
	Reason   string // Human-readable explanation
	Err      error  // Wrapped error (usually ErrInvalidModel or ErrUnsupportedFeature)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for provider '%s': %s (%v)", e.Model, e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for provider '%s': %s", e.Model, e.Provider, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ValidationError represents an error in request parameter validation.
type ValidationError struct {
	Field  string // The parameter field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidRequest)
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for '%s' (value: %v): %s (%v)", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed for '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// CredentialError reports a backend that cannot be used because its credential is absent.
type CredentialError struct {
	Provider string // The provider name
	EnvVar   string // The variable the credential is read from
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("provider '%s' is not configured: set %s", e.Provider, e.EnvVar)
}

func (e *CredentialError) Unwrap() error {
	return ErrMissingCredential
}

// ProviderError represents an error from the underlying provider API.
type ProviderError struct {
	Provider   string // The provider name
	StatusCode int    // HTTP status code (if applicable)
	Message    string // Error message from provider
	Retryable  bool   // Whether this error is potentially retryable
	Err        error  // Wrapped sentinel error (ErrRateLimited, ErrProviderUnavailable, etc.)
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider '%s' error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderErrorFromStatus maps an HTTP status returned by a backend to a ProviderError.
// 401/403 wrap ErrInvalidAPIKey, 404 wraps ErrInvalidModel, 408 and 504 wrap ErrTimeout,
// 429 wraps ErrRateLimited, everything else wraps ErrProviderUnavailable.
func NewProviderErrorFromStatus(provider ProviderID, status int, message string) *ProviderError {
	pe := &ProviderError{
		Provider:   provider.String(),
		StatusCode: status,
		Message:    message,
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		pe.Err = ErrInvalidAPIKey
	case status == http.StatusNotFound:
		pe.Err = ErrInvalidModel
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		pe.Err = ErrTimeout
		pe.Retryable = true
	case status == http.StatusTooManyRequests:
		pe.Err = ErrRateLimited
		pe.Retryable = true
	default:
		pe.Err = ErrProviderUnavailable
		pe.Retryable = status >= 500
	}
	return pe
}

// WrapTransport wraps an arbitrary backend failure (SDK error, network error)
// so that it classifies as KindTransport. Context errors are passed through.
func WrapTransport(provider ProviderID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{
		Provider:  provider.String(),
		Message:   err.Error(),
		Retryable: true,
		Err:       fmt.Errorf("%w: %w", ErrProviderUnavailable, err),
	}
}

// KindOf classifies err into the closed ErrorKind taxonomy.
// Anything not recognized as configuration, policy or malformed input is transport.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrContentBlocked):
		return KindContentPolicy
	case errors.Is(err, ErrMalformedChunk):
		return KindMalformed
	case IsInvalidRequest(err),
		errors.Is(err, ErrMissingCredential),
		errors.Is(err, ErrUnknownProvider):
		return KindConfiguration
	default:
		return KindTransport
	}
}

// HTTPStatus returns the status code a non-streaming failure is reported with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUnknownProvider):
		return http.StatusNotFound
	case IsInvalidRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// IsRetryable checks if an error is potentially retryable.
// Returns true for rate limits, temporary unavailability, network errors, etc.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Check for ProviderError with Retryable flag
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	// Rate limits are always retryable
	if errors.Is(err, ErrRateLimited) {
		return true
	}

	// Provider unavailable is retryable
	if errors.Is(err, ErrProviderUnavailable) {
		return true
	}

	return false
}

// IsInvalidRequest checks if an error indicates invalid request parameters.
// These errors are not retryable and require request changes.
func IsInvalidRequest(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		// Backend-reported 404s wrap ErrInvalidModel but are transport failures.
		return false
	}

	if errors.Is(err, ErrInvalidRequest) {
		return true
	}

	if errors.Is(err, ErrInvalidModel) {
		return true
	}

	if errors.Is(err, ErrUnsupportedFeature) {
		return true
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return true
	}

	return false
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrMissingCredential) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		// HTTP 401/403 indicate auth issues
		return providerErr.StatusCode == 401 || providerErr.StatusCode == 403
	}

	return false
}
