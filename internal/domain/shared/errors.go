package shared

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the purchasing core
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeIsolationViolation     = "ISOLATION_VIOLATION"
	CodeNotFound               = "NOT_FOUND"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so errors.Is works
// against the package sentinels.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{Code: e.Code, Message: e.Message, Details: e.Details, cause: cause}
}

// WithDetail returns a copy of the error with an extra detail entry
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// DetailDuplicate marks a validation error caused by a unique key collision
const DetailDuplicate = "duplicate"

// NewDuplicateError creates a VALIDATION_ERROR for a key that is already taken
func NewDuplicateError(what string) *DomainError {
	return NewValidationError("%s already exists", what).WithDetail(DetailDuplicate, true)
}

// NewInvalidTransitionError creates an INVALID_TRANSITION error for from -> to
func NewInvalidTransitionError(from, to string) *DomainError {
	return NewDomainError(CodeInvalidTransition, fmt.Sprintf("cannot transition from %s to %s", from, to)).
		WithDetail("from_status", from).
		WithDetail("to_status", to)
}

// Common domain errors
var (
	ErrValidation             = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidTransition      = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrIsolationViolation     = NewDomainError(CodeIsolationViolation, "Resource is not accessible from this tenant")
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
)

// ErrorCode extracts the domain error code from err, or "" for non-domain errors
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a VALIDATION_ERROR
func IsValidation(err error) bool { return ErrorCode(err) == CodeValidation }

// IsInvalidTransition reports whether err is an INVALID_TRANSITION
func IsInvalidTransition(err error) bool { return ErrorCode(err) == CodeInvalidTransition }

// IsIsolationViolation reports whether err is an ISOLATION_VIOLATION
func IsIsolationViolation(err error) bool { return ErrorCode(err) == CodeIsolationViolation }

// IsNotFound reports whether err is a NOT_FOUND
func IsNotFound(err error) bool { return ErrorCode(err) == CodeNotFound }

// IsDuplicate reports whether err is a unique key collision
func IsDuplicate(err error) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == CodeValidation && de.Details[DetailDuplicate] == true
}

// IsConcurrentModification reports whether err is a CONCURRENT_MODIFICATION
func IsConcurrentModification(err error) bool {
	return ErrorCode(err) == CodeConcurrentModification
}
