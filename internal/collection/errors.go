package collection

import (
	"errors"
	"fmt"
)

// OperationError represents an error raised by a Collection or Operation.
//
// Operation errors include:
//   - Illegal resume: a canceled operation targets an interior position
//   - Unknown operation: no suspended operation has the given ID
//   - Handler registration failures (nil handler, unknown event)
type OperationError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// OpID identifies the affected operation, if any.
	OpID string

	// Kind is the affected operation's kind, if any.
	Kind Kind

	// Position is the affected operation's target position, if any.
	Position Position
}

// ErrorCode categorizes operation errors.
type ErrorCode string

const (
	// ErrCodeIllegalResume indicates a resume at an interior position.
	ErrCodeIllegalResume ErrorCode = "ILLEGAL_RESUME"

	// ErrCodeUnknownOperation indicates no suspended operation has the ID.
	ErrCodeUnknownOperation ErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeNilHandler indicates a nil handler was registered.
	ErrCodeNilHandler ErrorCode = "NIL_HANDLER"

	// ErrCodeUnknownEvent indicates a handler was registered for an event
	// the collection never emits.
	ErrCodeUnknownEvent ErrorCode = "UNKNOWN_EVENT"
)

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.OpID != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.OpID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newIllegalResumeError(op *Operation) *OperationError {
	idx, _ := op.position.Index()
	return &OperationError{
		Code:     ErrCodeIllegalResume,
		Message:  fmt.Sprintf("unable to resume '%s' at position %d", op.kind, idx),
		OpID:     op.id,
		Kind:     op.kind,
		Position: op.position,
	}
}

func hasCode(err error, code ErrorCode) bool {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code == code
	}
	return false
}

// IsIllegalResume returns true if the error is an illegal resume error.
// Uses errors.As to handle wrapped errors.
func IsIllegalResume(err error) bool {
	return hasCode(err, ErrCodeIllegalResume)
}

// IsUnknownOperation returns true if no suspended operation matched.
func IsUnknownOperation(err error) bool {
	return hasCode(err, ErrCodeUnknownOperation)
}

// IsRegistrationError returns true for nil handler and unknown event errors.
func IsRegistrationError(err error) bool {
	return hasCode(err, ErrCodeNilHandler) || hasCode(err, ErrCodeUnknownEvent)
}
