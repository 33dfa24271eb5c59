// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Client-correctable errors. These are surfaced verbatim to the caller.
	ErrNotFound          = errors.New("entity not found")
	ErrConflict          = errors.New("entity already exists")
	ErrReferenceNotFound = errors.New("reference not found")
	ErrValidation        = errors.New("validation error")

	// Operational errors. These indicate infrastructure trouble rather than a
	// bad request; the core never retries them on the caller's behalf.
	ErrLockUnavailable = errors.New("lock wait budget exhausted")
	ErrCancelled       = errors.New("operation cancelled")
	ErrInternal        = errors.New("internal error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "lookup", "search"
	Op      string // Operation that failed, e.g., "Create", "Update"
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

// Student domain errors
var (
	ErrStudentNotFound    = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentIDExists    = NewDomainError("student", "Create", ErrConflict, "student id already exists")
	ErrStudentEmailExists = NewDomainError("student", "Create", ErrConflict, "email already exists")
)

// Lookup domain errors
var (
	ErrDepartmentNotFound = NewDomainError("lookup", "Resolve", ErrReferenceNotFound, "department not found")
	ErrProgramNotFound    = NewDomainError("lookup", "Resolve", ErrReferenceNotFound, "program not found")
	ErrStatusNotFound     = NewDomainError("lookup", "Resolve", ErrReferenceNotFound, "student status not found")
	ErrLookupNameExists   = NewDomainError("lookup", "Create", ErrConflict, "lookup name already exists")
	ErrLookupNotFound     = NewDomainError("lookup", "Find", ErrNotFound, "lookup row not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsReferenceNotFound checks if the error is an unresolved foreign-key name.
func IsReferenceNotFound(err error) bool {
	return errors.Is(err, ErrReferenceNotFound)
}

// IsClientError reports whether the error is correctable by the caller
// (as opposed to an operational failure).
func IsClientError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrReferenceNotFound) ||
		errors.Is(err, ErrValidation)
}

// IsOperational reports whether the error is an infrastructure failure.
// Operational failures are never retried inside the core; the retry decision
// belongs to the caller.
func IsOperational(err error) bool {
	return errors.Is(err, ErrLockUnavailable) ||
		errors.Is(err, ErrCancelled) ||
		errors.Is(err, ErrInternal)
}
