package operation

import (
	"encoding/json"
	"fmt"

	"github.com/dshills/docmodel/internal/model/tree"
)

// RootAttribute changes an attribute of a root element.
type RootAttribute struct {
	base

	Root     *tree.RootElement
	Key      string
	OldValue any
	NewValue any
}

// NewRootAttribute creates a root attribute operation.
func NewRootAttribute(root *tree.RootElement, key string, oldValue, newValue any, baseVersion int) *RootAttribute {
	return &RootAttribute{
		base:     base{baseVersion: baseVersion},
		Root:     root,
		Key:      key,
		OldValue: oldValue,
		NewValue: newValue,
	}
}

// Kind returns KindRootAttribute.
func (op *RootAttribute) Kind() Kind { return KindRootAttribute }

// Type returns "rootattribute".
func (op *RootAttribute) Type() string { return "rootattribute" }

// Clone returns a copy sharing the root.
func (op *RootAttribute) Clone() Operation {
	c := *op
	return &c
}

// Validate checks the current value of the attribute.
func (op *RootAttribute) Validate() error {
	if op.Root == nil {
		return invalid(op, "no root")
	}
	current, has := op.Root.Attribute(op.Key)
	if op.OldValue != nil && !tree.ValuesEqual(current, op.OldValue) {
		return invalid(op, "%q is %v, expected %v", op.Key, current, op.OldValue)
	}
	if op.OldValue == nil && op.NewValue != nil && has {
		return invalid(op, "%q is already set", op.Key)
	}
	return nil
}

// Execute sets the new value.
func (op *RootAttribute) Execute(MarkerApplier) error {
	op.Root.SetAttribute(op.Key, op.NewValue)
	return nil
}

// Reversed restores the old value.
func (op *RootAttribute) Reversed(*tree.RootElement) Operation {
	return NewRootAttribute(op.Root, op.Key, op.NewValue, op.OldValue, op.baseVersion+1)
}

type rootAttributeJSON struct {
	Type        string `json:"type"`
	BaseVersion int    `json:"baseVersion"`
	Root        string `json:"root"`
	Key         string `json:"key"`
	OldValue    any    `json:"oldValue"`
	NewValue    any    `json:"newValue"`
}

// MarshalJSON implements json.Marshaler.
func (op *RootAttribute) MarshalJSON() ([]byte, error) {
	name := ""
	if op.Root != nil {
		name = op.Root.RootName()
	}
	return json.Marshal(rootAttributeJSON{
		Type:        op.Type(),
		BaseVersion: op.baseVersion,
		Root:        name,
		Key:         op.Key,
		OldValue:    op.OldValue,
		NewValue:    op.NewValue,
	})
}

func (j rootAttributeJSON) decode(roots tree.RootResolver) (Operation, error) {
	root := roots.Root(j.Root)
	if root == nil {
		return nil, fmt.Errorf("%w: %q", tree.ErrUnknownRoot, j.Root)
	}
	return &RootAttribute{
		base:     base{baseVersion: j.BaseVersion},
		Root:     root,
		Key:      j.Key,
		OldValue: j.OldValue,
		NewValue: j.NewValue,
	}, nil
}
