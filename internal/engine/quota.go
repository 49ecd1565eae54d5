package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer counts tasks run by a single drain and enforces a maximum.
//
// A guard that cancels an operation and defers its resume, only to cancel
// it again when it comes back, would otherwise keep the queue non-empty
// forever.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
// A limit of zero or less disables enforcement.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
func (q *QuotaEnforcer) Check(task string) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			Task:  task,
			Steps: q.current,
			Limit: q.maxSteps,
		}
	}
	return nil
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a drain exceeds the max steps quota.
// The task that tripped the limit is not run and stays at the head of the queue.
type StepsExceededError struct {
	Task  string
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("drain exceeded max steps quota at task %s: %d steps > %d limit",
		e.Task, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
