// Package services provides the business logic layer between transports and the engine.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. Validation errors map to 400 responses, conflicts to 409.
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrTasksRequired        = errors.New("workflow must have at least one task")
	ErrUnknownRole          = errors.New("task assigned to unknown role")
	ErrUnknownDependency    = errors.New("task depends on unknown task")
	ErrInvalidMode          = errors.New("invalid workflow mode")

	// Business logic conflicts (409 Conflict).
	ErrWorkflowAlreadyRunning = errors.New("workflow is already running")
	ErrWorkflowNotPaused      = errors.New("workflow is not paused")
	ErrCannotModifyRunning    = errors.New("cannot modify running workflow")

	// Result availability (404 Not Found).
	ErrResultNotAvailable = errors.New("workflow result not available")
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
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrTasksRequired) ||
		errors.Is(err, ErrUnknownRole) ||
		errors.Is(err, ErrUnknownDependency) ||
		errors.Is(err, ErrInvalidMode)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowAlreadyRunning) ||
		errors.Is(err, ErrWorkflowNotPaused) ||
		errors.Is(err, ErrCannotModifyRunning)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
