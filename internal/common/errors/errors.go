// Package errors provides the structured error taxonomy for the
// intent-routing engine. Every classifier/validation failure is recoverable
// and rendered back to the caller; the only fatal condition is an absent or
// corrupted dataset at startup.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnrecognizedIntent   ErrorCode = "UNRECOGNIZED_INTENT"
	ErrCodeOutOfRangeParameter  ErrorCode = "OUT_OF_RANGE_PARAMETER"
	ErrCodeUnknownFilterValue   ErrorCode = "UNKNOWN_FILTER_VALUE"
	ErrCodeNarrationUnavailable ErrorCode = "NARRATION_UNAVAILABLE"
	ErrCodeNarrationTimeout     ErrorCode = "NARRATION_TIMEOUT"
	ErrCodeDatasetNotLoaded     ErrorCode = "DATASET_NOT_LOADED"
	ErrCodeDatasetCorrupted     ErrorCode = "DATASET_CORRUPTED"
	ErrCodeInvalidRequest       ErrorCode = "INVALID_REQUEST"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	Hint        string    `json:"hint,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewUnrecognizedIntentError is returned when no intent scores above the
// classification threshold. Suggestions carry example queries the engine
// does understand.
func NewUnrecognizedIntentError(suggestions []string) *StandardError {
	return &StandardError{
		Code:        ErrCodeUnrecognizedIntent,
		Message:     "Could not match the question to a supported analysis",
		Hint:        "Try one of the example questions",
		Suggestions: suggestions,
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewOutOfRangeParameterError names the valid year bounds of the dataset.
func NewOutOfRangeParameterError(year, minYear, maxYear int) *StandardError {
	return &StandardError{
		Code:        ErrCodeOutOfRangeParameter,
		Message:     fmt.Sprintf("Year %d is outside the dataset range %d-%d", year, minYear, maxYear),
		Details:     fmt.Sprintf("year: %d, bounds: [%d, %d]", year, minYear, maxYear),
		Hint:        fmt.Sprintf("Ask about a year between %d and %d", minYear, maxYear),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewUnknownFilterValueError carries nearest-match suggestions from the
// dataset vocabulary; the suggestion list may be empty.
func NewUnknownFilterValueError(value string, suggestions []string) *StandardError {
	return &StandardError{
		Code:        ErrCodeUnknownFilterValue,
		Message:     fmt.Sprintf("No product, category or country named %q in the dataset", value),
		Details:     fmt.Sprintf("filterValue: %s", value),
		Hint:        "Filter values must match the dataset vocabulary",
		Suggestions: suggestions,
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewNarrationUnavailableError is logged and counted, never surfaced to the
// caller: the dispatcher falls back to the deterministic formatter.
func NewNarrationUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:        ErrCodeNarrationUnavailable,
		Message:     "Narration service unavailable, using fallback rendering",
		Details:     err.Error(),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewDatasetNotLoadedError is the fatal pre-query condition.
func NewDatasetNotLoadedError(details string) *StandardError {
	return &StandardError{
		Code:        ErrCodeDatasetNotLoaded,
		Message:     "Dataset is not loaded",
		Details:     details,
		Recoverable: false,
		Timestamp:   time.Now().UTC(),
	}
}

// NewDatasetCorruptedError reports a dataset that failed preparation checks.
func NewDatasetCorruptedError(details string) *StandardError {
	return &StandardError{
		Code:        ErrCodeDatasetCorrupted,
		Message:     "Dataset failed integrity checks",
		Details:     details,
		Recoverable: false,
		Timestamp:   time.Now().UTC(),
	}
}

// NewInvalidRequestError rejects a malformed API payload.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:        ErrCodeInvalidRequest,
		Message:     "Request payload failed validation",
		Details:     details,
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// IsFatal reports whether the error should abort startup rather than be
// rendered as a per-query ErrorResult.
func IsFatal(err *StandardError) bool {
	return !err.Recoverable
}
