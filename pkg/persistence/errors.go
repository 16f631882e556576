package persistence

import (
	"errors"
	"fmt"
)

var (
	ErrWorkflowNotFound  = errors.New("workflow not found")
	ErrInvalidSortField  = errors.New("invalid sort field")
	ErrInvalidSortOrder  = errors.New("invalid sort order")
	ErrUnsupportedScheme = errors.New("unsupported persistence scheme")
)

// WorkflowError records the repository operation and workflow that failed.
type WorkflowError struct {
	Op         string
	WorkflowID string
	Err        error
}

func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{Op: op, WorkflowID: workflowID, Err: err}
}

func (e *WorkflowError) Error() string {
	if e.WorkflowID == "" {
		return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("persistence: %s workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsInvalidSortField reports whether a listing was rejected for its sort field or order.
func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField) || errors.Is(err, ErrInvalidSortOrder)
}
