// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "assessment", "progress", "notification"
	Op      string // Operation that failed, e.g., "Classify", "Track"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NotFoundError builds a not-found error that carries the offending student id.
// Timeline and visualization reads require the id to be present in the message
// so callers can surface it verbatim.
func NotFoundError(domain, op, studentID string) *DomainError {
	return NewDomainError(domain, op, ErrNotFound,
		fmt.Sprintf("no record found for student %s", studentID))
}

// ValidationError builds a validation error that names the offending field.
func ValidationError(domain, op, field, reason string) *DomainError {
	return NewDomainError(domain, op, ErrValidation,
		fmt.Sprintf("field %q: %s", field, reason))
}

// Student domain errors
var (
	ErrStudentNotFound     = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrEmptyStudentID      = NewDomainError("student", "Validate", ErrInvalidID, "student id cannot be empty")
	ErrInvalidGradeLevel   = NewDomainError("student", "Validate", ErrValueOutOfRange, "grade level out of range")
	ErrDataSourceNotFound  = NewDomainError("student", "Load", ErrNotFound, "attribute data source not found")
	ErrDataSourceCorrupted = NewDomainError("student", "Load", ErrInvalidFormat, "attribute data source is malformed")
)

// Progress domain errors
var (
	ErrLedgerNotFound   = NewDomainError("progress", "Find", ErrNotFound, "no progress ledger for student")
	ErrEmptyLedger      = NewDomainError("progress", "Read", ErrInvalidState, "ledger has no entries")
	ErrNilTrackerEntry  = NewDomainError("progress", "Track", ErrInvalidInput, "tracking entry cannot be nil")
	ErrSnapshotConflict = NewDomainError("progress", "Snapshot", ErrAlreadyExists, "snapshot already persisted")
)

// Notification domain errors
var (
	ErrAlertNotFound    = NewDomainError("notification", "Find", ErrNotFound, "alert not found")
	ErrAlertSendFailed  = NewDomainError("notification", "Send", ErrExternalService, "failed to deliver alert")
	ErrInvalidRecipient = NewDomainError("notification", "Validate", ErrInvalidInput, "invalid alert recipient")
	ErrTooManyAlerts    = NewDomainError("notification", "Send", ErrRateLimited, "too many alerts for recipient")
)

// Cache errors
var (
	ErrCacheMiss = errors.New("cache miss")
)

// External service errors
var (
	ErrSISUnavailable     = NewDomainError("sis", "Request", ErrServiceUnavailable, "student information system is unavailable")
	ErrSISRateLimited     = NewDomainError("sis", "Request", ErrRateLimited, "student information system rate limit exceeded")
	ErrSISTimeout         = NewDomainError("sis", "Request", ErrTimeout, "student information system request timeout")
	ErrSISInvalidResponse = NewDomainError("sis", "Parse", ErrInvalidFormat, "invalid response from student information system")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
