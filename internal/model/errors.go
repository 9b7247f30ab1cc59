package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for document operations.
var (
	// ErrVersionMismatch is returned when an operation's base version is not
	// the document version.
	ErrVersionMismatch = errors.New("operation base version does not match document version")

	// ErrDetached is returned when a live range, live position or marker is
	// used after it was detached or removed.
	ErrDetached = errors.New("live object is detached")

	// ErrDuplicateRoot is returned when creating a root whose name is taken.
	ErrDuplicateRoot = errors.New("root already exists")

	// ErrInvalidEdit is returned when a writer call cannot be expressed as
	// operations on the current tree.
	ErrInvalidEdit = errors.New("invalid edit")
)

// VersionMismatchError describes a rejected operation.
type VersionMismatchError struct {
	// Expected is the document version at the time of the call.
	Expected int
	// Actual is the base version of the rejected operation.
	Actual int
	// Type is the rejected operation's type.
	Type string
}

// Error implements error.
func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s operation: base version %d, document version %d", e.Type, e.Actual, e.Expected)
}

// Unwrap returns ErrVersionMismatch.
func (e *VersionMismatchError) Unwrap() error {
	return ErrVersionMismatch
}

func invalidEdit(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidEdit, fmt.Sprintf(format, args...))
}
