package operation

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation indicates an operation that cannot be applied to the
// current tree or cannot be decoded.
var ErrInvalidOperation = errors.New("invalid operation")

// OperationError describes why an operation was rejected.
type OperationError struct {
	// Type is the operation type, such as "split".
	Type string

	// Reason is a short description of the failed precondition.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	msg := fmt.Sprintf("invalid %s operation: %s", e.Type, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrInvalidOperation and the underlying cause.
func (e *OperationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidOperation}
	}
	return []error{ErrInvalidOperation, e.Err}
}

func invalid(op Operation, format string, args ...any) error {
	return &OperationError{Type: op.Type(), Reason: fmt.Sprintf(format, args...)}
}

func invalidCause(op Operation, err error, format string, args ...any) error {
	return &OperationError{Type: op.Type(), Reason: fmt.Sprintf(format, args...), Err: err}
}
