// Package domain holds the entities, ports, and errors of the review
// workflow engine. Nothing here imports a driver or a transport.
package domain

import "fmt"

// The four error kinds callers branch on with errors.As. The HTTP layer maps
// them to 404, 403, 400, and 409 respectively.

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ErrNotFound builds a NotFoundError from a format string.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// AccessDeniedError reports an actor lacking the required role.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ErrAccessDenied builds an AccessDeniedError from a format string.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports bad input or a workflow guard violation, such as
// deciding a review that is already terminal.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation builds a ValidationError from a format string.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness collision, such as a second open review
// for the same change.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrConflict builds a ConflictError from a format string.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}
