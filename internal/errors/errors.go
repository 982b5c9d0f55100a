// Package errors provides a lightweight structured error type (NirinitError)
// for category-based classification across the IPC client, snapshot store,
// and restore engine.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a nirinit error for classification
type ErrorCategory string

const (
	// Compositor IPC failures: socket unreachable, malformed response,
	// action rejected.
	CategoryProtocol ErrorCategory = "protocol"

	// Session snapshot failures on disk.
	CategorySnapshot ErrorCategory = "snapshot"

	// Launch command failures during a restore pass.
	CategorySpawn ErrorCategory = "spawn"

	// A restored entry never produced a matching window in time.
	CategoryMatch ErrorCategory = "match"

	// User-facing configuration errors
	CategoryConfig ErrorCategory = "config"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// NirinitError is a structured error with category, severity, and context
type NirinitError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Benign   bool          `json:"benign"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for NirinitError
type ContextFields map[string]any

// Error implements the error interface
func (e *NirinitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *NirinitError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *NirinitError) WithContext(key string, value any) *NirinitError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new NirinitError
func New(category ErrorCategory, severity ErrorSeverity, message string) *NirinitError {
	return &NirinitError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new NirinitError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *NirinitError {
	return &NirinitError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ne, ok := err.(*NirinitError); ok {
		return ne.Category == category
	}
	return false
}

// IsBenign reports whether an error is expected in normal operation and
// should not be escalated (a missing snapshot on first run, for example).
func IsBenign(err error) bool {
	if ne, ok := err.(*NirinitError); ok {
		return ne.Benign
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a NirinitError
func GetCategory(err error) ErrorCategory {
	if ne, ok := err.(*NirinitError); ok {
		return ne.Category
	}
	return CategoryInternal
}
