package timeline

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes timeline errors.
type ErrorCode string

const (
	// ErrCodeRunning indicates the tree was mutated while running.
	ErrCodeRunning ErrorCode = "RUNNING"

	// ErrCodeHasParent indicates a child already belongs to a composite.
	ErrCodeHasParent ErrorCode = "HAS_PARENT"

	// ErrCodeNotStopped indicates a child was added while playing or paused.
	ErrCodeNotStopped ErrorCode = "NOT_STOPPED"

	// ErrCodeCycle indicates a composite would contain itself.
	ErrCodeCycle ErrorCode = "CYCLE"

	// ErrCodeNotChild indicates a removal of an animation the composite does not own.
	ErrCodeNotChild ErrorCode = "NOT_CHILD"

	// ErrCodeInvalidDuration indicates a zero or negative cycle duration.
	ErrCodeInvalidDuration ErrorCode = "INVALID_DURATION"

	// ErrCodeInvalidCycleCount indicates a cycle count other than >= 1 or Indefinite.
	ErrCodeInvalidCycleCount ErrorCode = "INVALID_CYCLE_COUNT"

	// ErrCodeMissingCallback indicates a transition without an interpolate callback.
	ErrCodeMissingCallback ErrorCode = "MISSING_CALLBACK"
)

// StateError reports an operation that is not allowed in the current state
// of the animation tree.
type StateError struct {
	Code      ErrorCode
	Op        string
	Animation string
	Message   string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	if e.Animation != "" {
		return fmt.Sprintf("timeline: %s %s: %s (%s)", e.Op, e.Animation, e.Message, e.Code)
	}
	return fmt.Sprintf("timeline: %s: %s (%s)", e.Op, e.Message, e.Code)
}

// ValidationError reports an invalid construction or configuration value.
type ValidationError struct {
	Code    ErrorCode
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("timeline: invalid %s: %s (%s)", e.Field, e.Message, e.Code)
}

// IsStateError reports whether err is or wraps a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CodeOf returns the code of a wrapped timeline error, or "".
func CodeOf(err error) ErrorCode {
	var se *StateError
	if errors.As(err, &se) {
		return se.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
