package planner

import (
	"errors"
	"fmt"
)

// ErrorType represents specific planning error types.
type ErrorType string

const (
	// ErrorTypeCollaboratorUnavailable indicates an external collaborator
	// failed or timed out. Always recoverable via the documented fallback.
	ErrorTypeCollaboratorUnavailable ErrorType = "collaborator_unavailable"

	// ErrorTypeParse indicates a malformed collaborator response.
	// Recoverable; triggers the fallback heuristic or ordering.
	ErrorTypeParse ErrorType = "parse_failed"

	// ErrorTypeBudgetExhausted indicates the node or time limit was
	// reached before the goal. A terminal status, not a failure.
	ErrorTypeBudgetExhausted ErrorType = "budget_exhausted"

	// ErrorTypeNoViableActions indicates zero eligible capabilities for a
	// state. Normal pruning; the node is dropped silently.
	ErrorTypeNoViableActions ErrorType = "no_viable_actions"

	// ErrorTypeInvariant indicates a corrupted internal invariant, such as
	// a non-increasing path cost. The only fatal type: it aborts the run.
	ErrorTypeInvariant ErrorType = "invariant_violated"

	// ErrorTypeInvalidParameter indicates an invalid run parameter.
	ErrorTypeInvalidParameter ErrorType = "invalid_parameter"
)

// PlanningError represents a planning-specific error with type and context.
// It implements the error interface and supports error wrapping with
// errors.Is/As.
type PlanningError struct {
	// Type identifies the specific error type.
	Type ErrorType

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error that caused this error (optional).
	Cause error

	// Context provides additional contextual information about the error.
	Context map[string]any
}

// Error implements the error interface.
func (e *PlanningError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain traversal.
func (e *PlanningError) Unwrap() error {
	return e.Cause
}

// Is implements the errors.Is interface for error comparison.
// Two PlanningErrors are equal if they have the same error type.
func (e *PlanningError) Is(target error) bool {
	var planningErr *PlanningError
	if errors.As(target, &planningErr) {
		return e.Type == planningErr.Type
	}
	return false
}

// WithContext adds contextual information to the error.
func (e *PlanningError) WithContext(key string, value any) *PlanningError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewPlanningError creates a new PlanningError with the given type and message.
func NewPlanningError(errType ErrorType, message string) *PlanningError {
	return &PlanningError{
		Type:    errType,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapPlanningError wraps an existing error with planning error context.
func WrapPlanningError(errType ErrorType, message string, cause error) *PlanningError {
	return &PlanningError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// IsFatal reports whether err should abort the run. Only invariant
// violations are fatal; every other condition degrades gracefully.
func IsFatal(err error) bool {
	var planningErr *PlanningError
	if errors.As(err, &planningErr) {
		return planningErr.Type == ErrorTypeInvariant
	}
	// Unknown error types are unexpected by definition.
	return err != nil
}
