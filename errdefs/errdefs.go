// Package errdefs defines the error taxonomy shared across the planner,
// executor and file layers. Callers pick errors apart with errors.As.
package errdefs

import (
	"fmt"
	"os"

	"planai/models"
)

// ValidationError reports malformed input: an empty query, a plan without
// an id, a record whose shape cannot be executed. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PlanError reports a planning or plan-persistence failure.
type PlanError struct {
	Msg   string
	Cause error
}

func (e *PlanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *PlanError) Unwrap() error { return e.Cause }

// ActionError reports a single failed action. It carries the offending
// action and halts the enclosing plan.
type ActionError struct {
	Msg    string
	Action models.Action
	Cause  error
}

func (e *ActionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *ActionError) Unwrap() error { return e.Cause }

// ExecutionError wraps a plan-level execution failure.
type ExecutionError struct {
	PlanID string
	Cause  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing plan %q: %v", e.PlanID, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// RollbackError wraps a rollback-level failure.
type RollbackError struct {
	Msg   string
	Cause error
}

func (e *RollbackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *RollbackError) Unwrap() error { return e.Cause }

// OperationKind classifies a file operation failure.
type OperationKind string

const (
	OpNotFound   OperationKind = "not_found"
	OpPermission OperationKind = "permission_denied"
	OpOther      OperationKind = "other"
)

// OperationError is a typed file operation failure.
type OperationError struct {
	Op    string // read, write, delete
	Path  string
	Kind  OperationKind
	Cause error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Cause)
}

func (e *OperationError) Unwrap() error { return e.Cause }

// Operation classifies err into an OperationError for op on path.
func Operation(op, path string, err error) *OperationError {
	kind := OpOther
	switch {
	case os.IsNotExist(err):
		kind = OpNotFound
	case os.IsPermission(err):
		kind = OpPermission
	}
	return &OperationError{Op: op, Path: path, Kind: kind, Cause: err}
}

// ProviderError reports a failure at the LLM provider boundary.
type ProviderError struct {
	Provider string
	Msg      string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Msg)
}

func (e *ProviderError) Unwrap() error { return e.Cause }
