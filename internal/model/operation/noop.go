package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// NoOp changes nothing. It keeps version numbering intact where another
// operation was absorbed during transformation.
type NoOp struct {
	base
}

// NewNoOp creates a no-op.
func NewNoOp(baseVersion int) *NoOp {
	return &NoOp{base: base{baseVersion: baseVersion}}
}

// Kind returns KindNoOp.
func (op *NoOp) Kind() Kind { return KindNoOp }

// Type returns "noop".
func (op *NoOp) Type() string { return "noop" }

// Clone returns a copy.
func (op *NoOp) Clone() Operation {
	c := *op
	return &c
}

// Validate always succeeds.
func (op *NoOp) Validate() error { return nil }

// Execute does nothing.
func (op *NoOp) Execute(MarkerApplier) error { return nil }

// Reversed returns another no-op.
func (op *NoOp) Reversed(*tree.RootElement) Operation {
	return NewNoOp(op.baseVersion + 1)
}

type noOpJSON struct {
	Type        string `json:"type"`
	BaseVersion int    `json:"baseVersion"`
}

// MarshalJSON implements json.Marshaler.
func (op *NoOp) MarshalJSON() ([]byte, error) {
	return json.Marshal(noOpJSON{Type: op.Type(), BaseVersion: op.baseVersion})
}

func (j noOpJSON) decode(tree.RootResolver) (Operation, error) {
	return NewNoOp(j.BaseVersion), nil
}
