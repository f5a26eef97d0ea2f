// internal/common/errors/errors.go

// Package errors provides standardized error handling for the notifier.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeApplicationNotFound      ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeDatabaseNotConnected     ErrorCode = "DATABASE_NOT_CONNECTED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeEmailSendFailed          ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeEmailNotConfigured       ErrorCode = "EMAIL_NOT_CONFIGURED"
	ErrCodeSettingsValidationFailed ErrorCode = "SETTINGS_VALIDATION_FAILED"
	ErrCodeSweepInProgress          ErrorCode = "SWEEP_IN_PROGRESS"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewApplicationNotFoundError creates a non-retryable lookup error.
func NewApplicationNotFoundError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseNotConnectedError creates a retryable store availability error.
// The whole sweep is skipped on this condition since candidate selection
// depends on global queries.
func NewDatabaseNotConnectedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseNotConnected,
		Message:   "Record store is not connected",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable store query error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Record store query failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailSendFailedError creates a retryable delivery error. Retry happens
// on the next sweep, never within one.
func NewEmailSendFailedError(to string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Email delivery failed",
		Details:   fmt.Sprintf("to: %s, error: %s", to, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailNotConfiguredError reports the success-shaped skip condition for
// environments that never intended to send email.
func NewEmailNotConfiguredError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailNotConfigured,
		Message:   "Email service is not configured",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSettingsValidationFailedError creates a non-retryable input error.
func NewSettingsValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSettingsValidationFailed,
		Message:   "Notification settings validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSweepInProgressError reports that a concurrent sweep holds the guard.
func NewSweepInProgressError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSweepInProgress,
		Message:   "A reminder sweep is already running",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
