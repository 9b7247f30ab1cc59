package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Insert places nodes at a position.
type Insert struct {
	base

	Position tree.Position
	Nodes    []tree.Node

	// ShouldReceiveAttributes makes inserted nodes pick up attributes that
	// concurrent attribute operations set on the surrounding range.
	ShouldReceiveAttributes bool
}

// NewInsert creates an insert operation. The nodes are copied.
func NewInsert(position tree.Position, nodes []tree.Node, baseVersion int) *Insert {
	return &Insert{
		base:     base{baseVersion: baseVersion},
		Position: position.WithStickiness(tree.StickToNone),
		Nodes:    cloneNodes(nodes),
	}
}

// Kind returns KindInsert.
func (op *Insert) Kind() Kind { return KindInsert }

// Type returns "insert".
func (op *Insert) Type() string { return "insert" }

// HowMany returns the number of offsets taken by the inserted nodes.
func (op *Insert) HowMany() int { return len(op.Nodes) }

// Clone returns a deep copy.
func (op *Insert) Clone() Operation {
	c := *op
	c.Position = op.Position.Clone()
	c.Nodes = cloneNodes(op.Nodes)
	return &c
}

// Validate checks the insertion position.
func (op *Insert) Validate() error {
	if err := op.Position.Validate(); err != nil {
		return invalidCause(op, err, "insertion position")
	}
	return nil
}

// Execute inserts copies of the nodes so the operation stays reusable.
func (op *Insert) Execute(MarkerApplier) error {
	if len(op.Nodes) == 0 {
		return nil
	}
	if err := tree.Insert(op.Position, cloneNodes(op.Nodes)); err != nil {
		return invalidCause(op, err, "insert failed")
	}
	return nil
}

// Reversed moves the inserted nodes to the graveyard.
func (op *Insert) Reversed(graveyard *tree.RootElement) Operation {
	return NewMove(op.Position, op.HowMany(), graveyardStart(graveyard), op.baseVersion+1)
}

type insertJSON struct {
	Type                    string            `json:"type"`
	BaseVersion             int               `json:"baseVersion"`
	Position                tree.PositionJSON `json:"position"`
	Nodes                   []tree.NodeJSON   `json:"nodes"`
	ShouldReceiveAttributes bool              `json:"shouldReceiveAttributes,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (op *Insert) MarshalJSON() ([]byte, error) {
	return json.Marshal(insertJSON{
		Type:                    op.Type(),
		BaseVersion:             op.baseVersion,
		Position:                op.Position.ToJSON(),
		Nodes:                   tree.NodesToJSON(op.Nodes),
		ShouldReceiveAttributes: op.ShouldReceiveAttributes,
	})
}

func (j insertJSON) decode(roots tree.RootResolver) (Operation, error) {
	p, err := j.Position.Position(roots)
	if err != nil {
		return nil, err
	}
	nodes, err := tree.NodesFromJSON(j.Nodes)
	if err != nil {
		return nil, err
	}
	op := &Insert{base: base{baseVersion: j.BaseVersion}, Position: p, Nodes: nodes}
	op.ShouldReceiveAttributes = j.ShouldReceiveAttributes
	return op, nil
}
