package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Merge moves the whole content of one element to TargetPosition, usually
// the end of the preceding sibling, and parks the emptied element in the
// graveyard.
type Merge struct {
	base

	// SourcePosition is offset 0 inside the merged element.
	SourcePosition    tree.Position
	HowMany           int
	TargetPosition    tree.Position
	GraveyardPosition tree.Position
}

// NewMerge creates a merge operation.
func NewMerge(source tree.Position, howMany int, target, graveyardPosition tree.Position, baseVersion int) *Merge {
	return &Merge{
		base:              base{baseVersion: baseVersion},
		SourcePosition:    source.WithStickiness(tree.StickToPrevious),
		HowMany:           howMany,
		TargetPosition:    target.WithStickiness(tree.StickToNext),
		GraveyardPosition: graveyardPosition.Clone(),
	}
}

// Kind returns KindMerge.
func (op *Merge) Kind() Kind { return KindMerge }

// Type returns "merge".
func (op *Merge) Type() string { return "merge" }

// DeletionPosition returns the position right before the merged element.
func (op *Merge) DeletionPosition() tree.Position {
	return op.SourcePosition.Up()
}

// MovedRange returns the whole content of the merged element.
func (op *Merge) MovedRange() tree.Range {
	return tree.NewRange(op.SourcePosition, op.SourcePosition.WithOffset(tree.FarOffset))
}

// Clone returns a deep copy.
func (op *Merge) Clone() Operation {
	c := *op
	c.SourcePosition = op.SourcePosition.Clone()
	c.TargetPosition = op.TargetPosition.Clone()
	c.GraveyardPosition = op.GraveyardPosition.Clone()
	return &c
}

// Validate checks both elements and the node count.
func (op *Merge) Validate() error {
	source, err := op.SourcePosition.Parent()
	if err != nil {
		return invalidCause(op, err, "source position")
	}
	target, err := op.TargetPosition.Parent()
	if err != nil {
		return invalidCause(op, err, "target position")
	}
	if source.Parent() == nil {
		return invalid(op, "source position is in a root")
	}
	if target.Parent() == nil {
		return invalid(op, "target position is in a root")
	}
	if op.SourcePosition.Offset() != 0 {
		return invalid(op, "source position must be at offset 0")
	}
	if op.HowMany != source.MaxOffset() {
		return invalid(op, "howMany is %d, merged element has %d nodes", op.HowMany, source.MaxOffset())
	}
	if t := op.TargetPosition.Offset(); t < 0 || t > target.MaxOffset() {
		return invalid(op, "target offset out of range")
	}
	if op.TargetPosition.Root == op.SourcePosition.Root &&
		hasPathPrefix(op.TargetPosition.ParentPath(), op.SourcePosition.ParentPath()) {
		return invalid(op, "target position %s is inside the merged element", op.TargetPosition)
	}
	if err := op.GraveyardPosition.Validate(); err != nil {
		return invalidCause(op, err, "graveyard position")
	}
	return nil
}

// Execute moves the content and parks the merged element.
func (op *Merge) Execute(MarkerApplier) error {
	merged, err := op.SourcePosition.Parent()
	if err != nil {
		return invalidCause(op, err, "source position")
	}
	if n := merged.MaxOffset(); n > 0 {
		if err := tree.Move(tree.NewPositionAt(merged, 0), n, op.TargetPosition); err != nil {
			return invalidCause(op, err, "move merged content")
		}
	}
	if err := tree.Move(tree.PositionBefore(merged), 1, op.GraveyardPosition); err != nil {
		return invalidCause(op, err, "park merged element")
	}
	return nil
}

// Reversed splits the merged content back out, reusing the parked element.
func (op *Merge) Reversed(*tree.RootElement) Operation {
	target := TransformPosition(op.TargetPosition, op)
	insertion := TransformPosition(op.DeletionPosition(), op)
	return NewSplit(target, op.HowMany, insertion, op.GraveyardPosition, op.baseVersion+1)
}

type mergeJSON struct {
	Type              string            `json:"type"`
	BaseVersion       int               `json:"baseVersion"`
	SourcePosition    tree.PositionJSON `json:"sourcePosition"`
	HowMany           int               `json:"howMany"`
	TargetPosition    tree.PositionJSON `json:"targetPosition"`
	GraveyardPosition tree.PositionJSON `json:"graveyardPosition"`
}

// MarshalJSON implements json.Marshaler.
func (op *Merge) MarshalJSON() ([]byte, error) {
	return json.Marshal(mergeJSON{
		Type:              op.Type(),
		BaseVersion:       op.baseVersion,
		SourcePosition:    op.SourcePosition.ToJSON(),
		HowMany:           op.HowMany,
		TargetPosition:    op.TargetPosition.ToJSON(),
		GraveyardPosition: op.GraveyardPosition.ToJSON(),
	})
}

func (j mergeJSON) decode(roots tree.RootResolver) (Operation, error) {
	source, err := j.SourcePosition.Position(roots)
	if err != nil {
		return nil, err
	}
	target, err := j.TargetPosition.Position(roots)
	if err != nil {
		return nil, err
	}
	gy, err := j.GraveyardPosition.Position(roots)
	if err != nil {
		return nil, err
	}
	return &Merge{
		base:              base{baseVersion: j.BaseVersion},
		SourcePosition:    source,
		HowMany:           j.HowMany,
		TargetPosition:    target,
		GraveyardPosition: gy,
	}, nil
}
