// Package errors provides the standardized error taxonomy of the menu client.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeCatalogMalformed  ErrorCode = "CATALOG_MALFORMED"

	ErrCodeRecommendationFailed    ErrorCode = "RECOMMENDATION_FAILED"
	ErrCodeRecommendationMalformed ErrorCode = "RECOMMENDATION_MALFORMED"
	ErrCodeRequestInFlight         ErrorCode = "REQUEST_IN_FLIGHT"

	ErrCodeInvalidPreferences ErrorCode = "INVALID_PREFERENCES"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewCatalogLoadFailedError is fatal to the initial render; the user must reload.
func NewCatalogLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Catalog could not be loaded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCatalogMalformedError reports a catalog body with an unexpected shape.
func NewCatalogMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogMalformed,
		Message:   "Catalog response has an unexpected shape",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecommendationFailedError is recoverable: the user may resubmit.
func NewRecommendationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecommendationFailed,
		Message:   "Recommendation request failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRecommendationMalformedError reports a recommendation body with an unexpected shape.
func NewRecommendationMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecommendationMalformed,
		Message:   "Recommendation response has an unexpected shape",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestInFlightError rejects a submission while another one is loading.
func NewRequestInFlightError(generation uint64) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestInFlight,
		Message:   "A recommendation request is already in flight",
		Details:   fmt.Sprintf("generation: %d", generation),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPreferencesError reports a structurally invalid preference request.
func NewInvalidPreferencesError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPreferences,
		Message:   "Preference request is not well formed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError is logged and otherwise ignored; the cache is optional.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Recommendation cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// IsRetryableErrorCode reports whether the user can usefully try again.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeRecommendationFailed,
		ErrCodeRecommendationMalformed,
		ErrCodeCacheUnavailable:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CATALOG"):
		return "LOAD"
	case strings.HasPrefix(codeStr, "RECOMMENDATION") || code == ErrCodeRequestInFlight:
		return "RECOMMENDATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "CACHE"):
		return "CACHE"
	default:
		return "OTHER"
	}
}
