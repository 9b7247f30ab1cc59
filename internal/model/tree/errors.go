package tree

import (
	"errors"
	"fmt"
)

// Errors returned by tree and coordinate operations.
var (
	// ErrInvalidPosition indicates a path that does not address a location in the tree.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidRange indicates a reversed range or a range spanning two roots.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidNode indicates a serialized node that cannot be rebuilt.
	ErrInvalidNode = errors.New("invalid node")

	// ErrUnknownRoot indicates a root name that could not be resolved.
	ErrUnknownRoot = errors.New("unknown root")
)

// PositionError describes an invalid position with the offending path.
type PositionError struct {
	Root   string
	Path   []int
	Reason string
}

// Error implements the error interface.
func (e *PositionError) Error() string {
	return fmt.Sprintf("invalid position %s%v: %s", e.Root, e.Path, e.Reason)
}

// Unwrap returns ErrInvalidPosition.
func (e *PositionError) Unwrap() error {
	return ErrInvalidPosition
}

func positionError(p Position, reason string) error {
	name := ""
	if p.Root != nil {
		name = p.Root.RootName()
	}
	return &PositionError{Root: name, Path: clonePath(p.Path), Reason: reason}
}
