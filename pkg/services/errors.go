// Package services provides the workflow business logic behind the REST API.
package services

import (
	"errors"
	"fmt"

	"github.com/arcsuite/arcflow/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrInvalidStatus    = errors.New("invalid workflow status")
	ErrInvalidNodes     = errors.New("invalid workflow nodes")

	// Not Found (404).
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

	// Business Logic Conflicts (409 Conflict).
	ErrInvalidTransition = errors.New("invalid workflow status transition")
)

// Error codes carried by ServiceError.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "workflow_not_found"
	CodeConflict   = "conflict"
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidNodes)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    CodeValidation,
		Message: message,
		Err:     err,
	}
}

func newNotFoundError(op, workflowID string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("workflow %s not found", workflowID),
		Err:     ErrWorkflowNotFound,
	}
}

func newConflictError(op, message string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    CodeConflict,
		Message: message,
		Err:     ErrInvalidTransition,
	}
}
