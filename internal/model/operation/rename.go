package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Rename changes the name of the element right after Position.
type Rename struct {
	base

	Position tree.Position
	OldName  string
	NewName  string
}

// NewRename creates a rename operation.
func NewRename(position tree.Position, oldName, newName string, baseVersion int) *Rename {
	return &Rename{
		base:     base{baseVersion: baseVersion},
		Position: position.WithStickiness(tree.StickToNext),
		OldName:  oldName,
		NewName:  newName,
	}
}

// Kind returns KindRename.
func (op *Rename) Kind() Kind { return KindRename }

// Type returns "rename".
func (op *Rename) Type() string { return "rename" }

// Clone returns a deep copy.
func (op *Rename) Clone() Operation {
	c := *op
	c.Position = op.Position.Clone()
	return &c
}

// Validate checks that an element with the old name is at the position.
func (op *Rename) Validate() error {
	el, ok := op.Position.NodeAfter().(*tree.Element)
	if !ok {
		return invalid(op, "no element after %s", op.Position)
	}
	if el.Name() != op.OldName {
		return invalid(op, "element is named %q, expected %q", el.Name(), op.OldName)
	}
	return nil
}

// Execute renames the element.
func (op *Rename) Execute(MarkerApplier) error {
	if op.OldName == op.NewName {
		return nil
	}
	el, ok := op.Position.NodeAfter().(*tree.Element)
	if !ok {
		return invalid(op, "no element after %s", op.Position)
	}
	el.SetName(op.NewName)
	return nil
}

// Reversed restores the old name.
func (op *Rename) Reversed(*tree.RootElement) Operation {
	return NewRename(op.Position, op.NewName, op.OldName, op.baseVersion+1)
}

type renameJSON struct {
	Type        string            `json:"type"`
	BaseVersion int               `json:"baseVersion"`
	Position    tree.PositionJSON `json:"position"`
	OldName     string            `json:"oldName"`
	NewName     string            `json:"newName"`
}

// MarshalJSON implements json.Marshaler.
func (op *Rename) MarshalJSON() ([]byte, error) {
	return json.Marshal(renameJSON{
		Type:        op.Type(),
		BaseVersion: op.baseVersion,
		Position:    op.Position.ToJSON(),
		OldName:     op.OldName,
		NewName:     op.NewName,
	})
}

func (j renameJSON) decode(roots tree.RootResolver) (Operation, error) {
	p, err := j.Position.Position(roots)
	if err != nil {
		return nil, err
	}
	return &Rename{
		base:     base{baseVersion: j.BaseVersion},
		Position: p,
		OldName:  j.OldName,
		NewName:  j.NewName,
	}, nil
}
