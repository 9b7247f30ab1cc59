package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Move relocates a run of sibling nodes. Moving to the graveyard is a
// removal, moving out of it a reinsertion.
type Move struct {
	base

	SourcePosition tree.Position
	HowMany        int
	TargetPosition tree.Position
}

// NewMove creates a move operation.
func NewMove(source tree.Position, howMany int, target tree.Position, baseVersion int) *Move {
	return &Move{
		base:           base{baseVersion: baseVersion},
		SourcePosition: source.WithStickiness(tree.StickToNext),
		HowMany:        howMany,
		TargetPosition: target.WithStickiness(tree.StickToNone),
	}
}

// Kind returns KindMove.
func (op *Move) Kind() Kind { return KindMove }

// Type returns remove, reinsert or move.
func (op *Move) Type() string {
	switch {
	case op.TargetPosition.Root != nil && op.TargetPosition.Root.IsGraveyard():
		return "remove"
	case op.SourcePosition.Root != nil && op.SourcePosition.Root.IsGraveyard():
		return "reinsert"
	default:
		return "move"
	}
}

// IsRemove reports whether the move sends content to the graveyard.
func (op *Move) IsRemove() bool { return op.Type() == "remove" }

// MovedRange returns the range of moved nodes before the move.
func (op *Move) MovedRange() tree.Range {
	return tree.RangeFromPositionAndShift(op.SourcePosition, op.HowMany)
}

// MovedRangeStart returns where the moved nodes start after the move.
func (op *Move) MovedRangeStart() tree.Position {
	p, ok := op.TargetPosition.TransformedByDeletion(op.SourcePosition, op.HowMany)
	if !ok {
		return op.TargetPosition.Clone()
	}
	return p
}

// Clone returns a deep copy.
func (op *Move) Clone() Operation {
	c := *op
	c.SourcePosition = op.SourcePosition.Clone()
	c.TargetPosition = op.TargetPosition.Clone()
	return &c
}

// Validate checks that the run exists and is not moved into itself.
func (op *Move) Validate() error {
	sourceParent, err := op.SourcePosition.Parent()
	if err != nil {
		return invalidCause(op, err, "source position")
	}
	targetParent, err := op.TargetPosition.Parent()
	if err != nil {
		return invalidCause(op, err, "target position")
	}
	src := op.SourcePosition.Offset()
	if op.HowMany < 0 || src < 0 || src+op.HowMany > sourceParent.MaxOffset() {
		return invalid(op, "nodes to move are out of range")
	}
	if t := op.TargetPosition.Offset(); t < 0 || t > targetParent.MaxOffset() {
		return invalid(op, "target offset out of range")
	}
	if sourceParent == targetParent {
		t := op.TargetPosition.Offset()
		if src < t && t < src+op.HowMany {
			return invalid(op, "trying to move a range into itself")
		}
	}
	if op.SourcePosition.Root == op.TargetPosition.Root {
		rel, _ := tree.ComparePaths(op.SourcePosition.ParentPath(), op.TargetPosition.ParentPath())
		if rel == tree.PathPrefix {
			i := len(op.SourcePosition.Path) - 1
			if op.TargetPosition.Path[i] >= src && op.TargetPosition.Path[i] < src+op.HowMany {
				return invalid(op, "trying to move a node into itself")
			}
		}
	}
	return nil
}

// Execute moves the nodes.
func (op *Move) Execute(MarkerApplier) error {
	if op.HowMany == 0 {
		return nil
	}
	if err := tree.Move(op.SourcePosition, op.HowMany, op.TargetPosition); err != nil {
		return invalidCause(op, err, "move failed")
	}
	return nil
}

// Reversed moves the nodes back to where they came from.
func (op *Move) Reversed(*tree.RootElement) Operation {
	target := op.SourcePosition.TransformedByInsertion(op.TargetPosition, op.HowMany)
	return NewMove(op.MovedRangeStart(), op.HowMany, target, op.baseVersion+1)
}

type moveJSON struct {
	Type           string            `json:"type"`
	BaseVersion    int               `json:"baseVersion"`
	SourcePosition tree.PositionJSON `json:"sourcePosition"`
	HowMany        int               `json:"howMany"`
	TargetPosition tree.PositionJSON `json:"targetPosition"`
}

// MarshalJSON implements json.Marshaler.
func (op *Move) MarshalJSON() ([]byte, error) {
	return json.Marshal(moveJSON{
		Type:           op.Type(),
		BaseVersion:    op.baseVersion,
		SourcePosition: op.SourcePosition.ToJSON(),
		HowMany:        op.HowMany,
		TargetPosition: op.TargetPosition.ToJSON(),
	})
}

func (j moveJSON) decode(roots tree.RootResolver) (Operation, error) {
	source, err := j.SourcePosition.Position(roots)
	if err != nil {
		return nil, err
	}
	target, err := j.TargetPosition.Position(roots)
	if err != nil {
		return nil, err
	}
	return &Move{
		base:           base{baseVersion: j.BaseVersion},
		SourcePosition: source,
		HowMany:        j.HowMany,
		TargetPosition: target,
	}, nil
}
