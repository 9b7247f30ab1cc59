package ot

import (
	"errors"
	"fmt"

	"github.com/dshills/docmodel/internal/model/operation"
)

// ErrUnhandledPair is returned when no rule is registered for a pair of
// operation kinds.
var ErrUnhandledPair = errors.New("unhandled transformation pair")

// UnhandledPairError names the pair of kinds that has no rule.
type UnhandledPairError struct {
	A operation.Kind
	B operation.Kind
}

// Error implements the error interface.
func (e *UnhandledPairError) Error() string {
	return fmt.Sprintf("no transformation rule for %s by %s", e.A, e.B)
}

// Unwrap returns ErrUnhandledPair.
func (e *UnhandledPairError) Unwrap() error {
	return ErrUnhandledPair
}
