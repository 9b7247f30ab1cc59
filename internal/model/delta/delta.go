// Package delta groups operations into user-level edits.
//
// A Delta is an ordered list of operations that together express one change,
// such as wrapping a range in a new element (an insert followed by a move).
// Deltas are reversed as a unit and transformed against each other by
// flattening them into operation sequences.
package delta

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

// Type names the kind of edit a delta performs.
type Type string

// Delta types.
const (
	TypeInsert        Type = "insert"
	TypeWeakInsert    Type = "weakInsert"
	TypeRemove        Type = "remove"
	TypeMove          Type = "move"
	TypeAttribute     Type = "attribute"
	TypeRename        Type = "rename"
	TypeSplit         Type = "split"
	TypeMerge         Type = "merge"
	TypeWrap          Type = "wrap"
	TypeUnwrap        Type = "unwrap"
	TypeMarker        Type = "marker"
	TypeRootAttribute Type = "rootAttribute"
	TypeReversed      Type = "reversed"
	TypeDefault       Type = "delta"
)

// Delta is an ordered group of operations.
type Delta struct {
	Type       Type
	Operations []operation.Operation
}

// New creates a delta holding ops.
func New(t Type, ops ...operation.Operation) *Delta {
	return &Delta{Type: t, Operations: ops}
}

// AddOperation appends op.
func (d *Delta) AddOperation(op operation.Operation) {
	d.Operations = append(d.Operations, op)
}

// Len returns the number of operations.
func (d *Delta) Len() int { return len(d.Operations) }

// BaseVersion returns the base version of the first operation, or -1 for an
// empty delta.
func (d *Delta) BaseVersion() int {
	if len(d.Operations) == 0 {
		return -1
	}
	return d.Operations[0].BaseVersion()
}

// Clone returns a deep copy.
func (d *Delta) Clone() *Delta {
	ops := make([]operation.Operation, len(d.Operations))
	for i, op := range d.Operations {
		ops[i] = op.Clone()
	}
	return &Delta{Type: d.Type, Operations: ops}
}

// Reversed returns a delta undoing d when applied right after it. The
// operations are reversed in reverse order and stamped with consecutive base
// versions following the last operation of d.
func (d *Delta) Reversed(graveyard *tree.RootElement) *Delta {
	out := &Delta{Type: reversedType(d.Type)}
	if len(d.Operations) == 0 {
		return out
	}
	next := d.Operations[len(d.Operations)-1].BaseVersion() + 1
	for i := len(d.Operations) - 1; i >= 0; i-- {
		op := d.Operations[i].Reversed(graveyard)
		op.SetBaseVersion(next)
		next++
		out.Operations = append(out.Operations, op)
	}
	return out
}

func reversedType(t Type) Type {
	switch t {
	case TypeInsert, TypeWeakInsert:
		return TypeRemove
	case TypeSplit:
		return TypeMerge
	case TypeMerge:
		return TypeSplit
	case TypeWrap:
		return TypeUnwrap
	case TypeUnwrap:
		return TypeWrap
	case TypeRemove:
		return TypeReversed
	default:
		return t
	}
}

type deltaJSON struct {
	Type       Type                  `json:"type"`
	Operations []operation.Operation `json:"operations"`
}

// MarshalJSON implements json.Marshaler.
func (d *Delta) MarshalJSON() ([]byte, error) {
	ops := d.Operations
	if ops == nil {
		ops = []operation.Operation{}
	}
	return json.Marshal(deltaJSON{Type: d.Type, Operations: ops})
}

// FromJSON rebuilds a delta. Roots are resolved by name.
func FromJSON(data []byte, roots tree.RootResolver) (*Delta, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed delta JSON", operation.ErrInvalidOperation)
	}
	typ := gjson.GetBytes(data, "type")
	if !typ.Exists() {
		return nil, fmt.Errorf("%w: delta without type", operation.ErrInvalidOperation)
	}
	raw := gjson.GetBytes(data, "operations")
	if !raw.IsArray() {
		return nil, fmt.Errorf("%w: delta operations must be an array", operation.ErrInvalidOperation)
	}
	ops, err := operation.ListFromJSON([]byte(raw.Raw), roots)
	if err != nil {
		return nil, fmt.Errorf("delta %s: %w", typ.String(), err)
	}
	return &Delta{Type: Type(typ.String()), Operations: ops}, nil
}

// ListFromJSON rebuilds a JSON array of deltas.
func ListFromJSON(data []byte, roots tree.RootResolver) ([]*Delta, error) {
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of deltas", operation.ErrInvalidOperation)
	}
	var out []*Delta
	for _, item := range list.Array() {
		d, err := FromJSON([]byte(item.Raw), roots)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Flatten returns the operations of all deltas in order.
func Flatten(deltas []*Delta) []operation.Operation {
	var ops []operation.Operation
	for _, d := range deltas {
		ops = append(ops, d.Operations...)
	}
	return ops
}
