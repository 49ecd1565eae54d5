package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while running tasks.
//
// Runtime errors include:
//   - Task failure: a task's function returned an error
//   - Stopped: the engine no longer accepts tasks
//   - Quota exceeded: a drain ran more tasks than the step limit
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Task names the affected task, if any.
	Task string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeTaskFailed indicates a task returned an error.
	ErrCodeTaskFailed RuntimeErrorCode = "TASK_FAILED"

	// ErrCodeStopped indicates the engine was stopped.
	ErrCodeStopped RuntimeErrorCode = "STOPPED"

	// ErrCodeQuotaExceeded indicates a drain exceeded its step limit.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Task != "" {
		msg += fmt.Sprintf(" (task=%s)", e.Task)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func taskError(name string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeTaskFailed,
		Message: "task failed",
		Task:    name,
		Err:     err,
	}
}

// IsStopped returns true if the engine refused work because it was stopped.
func IsStopped(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeStopped
	}
	return false
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeQuotaExceeded {
		return true
	}
	return IsStepsExceededError(err)
}
