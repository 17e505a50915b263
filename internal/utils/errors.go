// Package utils provides the logging and structured error facilities
// shared across the brickwatch pipeline.
package utils

import (
	"fmt"
	"time"
)

// ErrorSeverity represents the severity level of an error.
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of the severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ErrorCode categorizes failures across the pipeline.
type ErrorCode string

const (
	// Extraction and parsing
	ErrCodeExtraction   ErrorCode = "EXTRACTION_ERROR"
	ErrCodeParseWarning ErrorCode = "PARSE_WARNING"
	ErrCodeSchema       ErrorCode = "SCHEMA_ERROR"
	ErrCodeDiffInput    ErrorCode = "DIFF_INPUT_ERROR"

	// Configuration
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrCodeMissingConfig ErrorCode = "MISSING_CONFIG"

	// Page fetching
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"
	ErrCodeHTTPStatus  ErrorCode = "HTTP_STATUS"

	// History store and report output
	ErrCodeStoreFailed  ErrorCode = "STORE_FAILED"
	ErrCodeOutputFailed ErrorCode = "OUTPUT_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StructuredError carries a code, severity and optional context so
// callers can branch on failure category instead of string matching.
type StructuredError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Severity  ErrorSeverity          `json:"severity"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is matches structured errors by code.
func (e *StructuredError) Is(target error) bool {
	if se, ok := target.(*StructuredError); ok {
		return e.Code == se.Code
	}
	return false
}

// WithContext attaches contextual information to the error.
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity overrides the default severity.
func (e *StructuredError) WithSeverity(severity ErrorSeverity) *StructuredError {
	e.Severity = severity
	return e
}

// NewError creates a structured error with the given code and message.
func NewError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Timestamp: time.Now(),
	}
}

// WrapError wraps an existing error in a structured error.
func WrapError(err error, code ErrorCode, message string) *StructuredError {
	se := NewError(code, message)
	se.Cause = err
	return se
}

// CodeOf returns the error code of a structured error, or
// ErrCodeInternal for anything else.
func CodeOf(err error) ErrorCode {
	if se, ok := err.(*StructuredError); ok {
		return se.Code
	}
	return ErrCodeInternal
}
