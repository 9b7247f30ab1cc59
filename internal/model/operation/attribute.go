package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Attribute changes one attribute on every node of a flat range. A nil old
// value means the attribute is being added, a nil new value that it is
// being removed.
type Attribute struct {
	base

	Range    tree.Range
	Key      string
	OldValue any
	NewValue any
}

// NewAttribute creates an attribute operation.
func NewAttribute(r tree.Range, key string, oldValue, newValue any, baseVersion int) *Attribute {
	return &Attribute{
		base:     base{baseVersion: baseVersion},
		Range:    r.Clone(),
		Key:      key,
		OldValue: oldValue,
		NewValue: newValue,
	}
}

// Kind returns KindAttribute.
func (op *Attribute) Kind() Kind { return KindAttribute }

// Type returns "attribute".
func (op *Attribute) Type() string { return "attribute" }

// Clone returns a deep copy.
func (op *Attribute) Clone() Operation {
	c := *op
	c.Range = op.Range.Clone()
	return &c
}

// Validate checks the range and the current attribute values.
func (op *Attribute) Validate() error {
	if !op.Range.IsFlat() {
		return invalid(op, "range %s is not flat", op.Range)
	}
	nodes, err := tree.NodesIn(op.Range)
	if err != nil {
		return invalidCause(op, err, "range")
	}
	for _, n := range nodes {
		current, has := n.Attribute(op.Key)
		if op.OldValue != nil && !tree.ValuesEqual(current, op.OldValue) {
			return invalid(op, "%q is %v, expected %v", op.Key, current, op.OldValue)
		}
		if op.OldValue == nil && op.NewValue != nil && has {
			return invalid(op, "%q is already set", op.Key)
		}
	}
	return nil
}

// Execute sets the new value.
func (op *Attribute) Execute(MarkerApplier) error {
	if tree.ValuesEqual(op.OldValue, op.NewValue) {
		return nil
	}
	if err := tree.SetAttribute(op.Range, op.Key, op.NewValue); err != nil {
		return invalidCause(op, err, "set attribute failed")
	}
	return nil
}

// Reversed restores the old value.
func (op *Attribute) Reversed(*tree.RootElement) Operation {
	return NewAttribute(op.Range, op.Key, op.NewValue, op.OldValue, op.baseVersion+1)
}

type attributeJSON struct {
	Type        string         `json:"type"`
	BaseVersion int            `json:"baseVersion"`
	Range       tree.RangeJSON `json:"range"`
	Key         string         `json:"key"`
	OldValue    any            `json:"oldValue"`
	NewValue    any            `json:"newValue"`
}

// MarshalJSON implements json.Marshaler.
func (op *Attribute) MarshalJSON() ([]byte, error) {
	return json.Marshal(attributeJSON{
		Type:        op.Type(),
		BaseVersion: op.baseVersion,
		Range:       op.Range.ToJSON(),
		Key:         op.Key,
		OldValue:    op.OldValue,
		NewValue:    op.NewValue,
	})
}

func (j attributeJSON) decode(roots tree.RootResolver) (Operation, error) {
	r, err := j.Range.Range(roots)
	if err != nil {
		return nil, err
	}
	return &Attribute{
		base:     base{baseVersion: j.BaseVersion},
		Range:    r,
		Key:      j.Key,
		OldValue: j.OldValue,
		NewValue: j.NewValue,
	}, nil
}
