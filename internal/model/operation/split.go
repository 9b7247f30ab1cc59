package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Split cuts an element in two at SplitPosition. The nodes after the split
// point move into a new element inserted at InsertionPosition. When
// GraveyardPosition is set, the element parked there is reused instead of a
// fresh copy of the split element.
type Split struct {
	base

	SplitPosition     tree.Position
	HowMany           int
	InsertionPosition tree.Position
	GraveyardPosition tree.Position
}

// NewSplit creates a split operation. Pass a zero graveyardPosition to
// create a new element.
func NewSplit(splitPosition tree.Position, howMany int, insertionPosition, graveyardPosition tree.Position, baseVersion int) *Split {
	op := &Split{
		base:              base{baseVersion: baseVersion},
		SplitPosition:     splitPosition.WithStickiness(tree.StickToNext),
		HowMany:           howMany,
		InsertionPosition: insertionPosition.Clone(),
	}
	if !graveyardPosition.IsZero() {
		op.GraveyardPosition = graveyardPosition.WithStickiness(tree.StickToNext)
	}
	return op
}

// SplitInsertionPosition returns the default insertion position for a split
// at splitPosition: right after the split element.
func SplitInsertionPosition(splitPosition tree.Position) tree.Position {
	path := splitPosition.ParentPath()
	path[len(path)-1]++
	p := tree.NewPosition(splitPosition.Root, path)
	p.Stickiness = tree.StickToPrevious
	return p
}

// Kind returns KindSplit.
func (op *Split) Kind() Kind { return KindSplit }

// Type returns "split".
func (op *Split) Type() string { return "split" }

// HasGraveyard reports whether the split reuses a graveyard element.
func (op *Split) HasGraveyard() bool { return !op.GraveyardPosition.IsZero() }

// MoveTargetPosition returns where the split-off nodes land: the start of
// the new element.
func (op *Split) MoveTargetPosition() tree.Position {
	return op.InsertionPosition.Child(0)
}

// MovedRange returns the range from the split point to the end of the
// split element.
func (op *Split) MovedRange() tree.Range {
	return tree.NewRange(op.SplitPosition, op.SplitPosition.WithOffset(tree.FarOffset))
}

// Clone returns a deep copy.
func (op *Split) Clone() Operation {
	c := *op
	c.SplitPosition = op.SplitPosition.Clone()
	c.InsertionPosition = op.InsertionPosition.Clone()
	c.GraveyardPosition = op.GraveyardPosition.Clone()
	return &c
}

// Validate checks the split point, the node count and the graveyard element.
func (op *Split) Validate() error {
	element, err := op.SplitPosition.Parent()
	if err != nil {
		return invalidCause(op, err, "split position")
	}
	off := op.SplitPosition.Offset()
	if off < 0 || off > element.MaxOffset() {
		return invalid(op, "split offset %d out of range", off)
	}
	if element.Parent() == nil {
		return invalid(op, "cannot split a root")
	}
	if op.HowMany != element.MaxOffset()-off {
		return invalid(op, "howMany is %d, element has %d nodes after the split point", op.HowMany, element.MaxOffset()-off)
	}
	if err := op.InsertionPosition.Validate(); err != nil {
		return invalidCause(op, err, "insertion position")
	}
	if op.InsertionPosition.Root == op.SplitPosition.Root &&
		hasPathPrefix(op.InsertionPosition.ParentPath(), op.SplitPosition.ParentPath()) {
		return invalid(op, "insertion position %s is inside the split element", op.InsertionPosition)
	}
	if op.HasGraveyard() {
		if _, ok := op.GraveyardPosition.NodeAfter().(*tree.Element); !ok {
			return invalid(op, "no element at graveyard position %s", op.GraveyardPosition)
		}
	}
	return nil
}

// Execute splits the element.
func (op *Split) Execute(MarkerApplier) error {
	element, err := op.SplitPosition.Parent()
	if err != nil {
		return invalidCause(op, err, "split position")
	}
	if op.HasGraveyard() {
		if err := tree.Move(op.GraveyardPosition, 1, op.InsertionPosition); err != nil {
			return invalidCause(op, err, "reinsert graveyard element")
		}
	} else {
		fresh := element.Clone(false)
		if err := tree.Insert(op.InsertionPosition, []tree.Node{fresh}); err != nil {
			return invalidCause(op, err, "insert new element")
		}
	}
	off := op.SplitPosition.Offset()
	howMany := element.MaxOffset() - off
	if howMany == 0 {
		return nil
	}
	if err := tree.Move(tree.NewPositionAt(element, off), howMany, op.MoveTargetPosition()); err != nil {
		return invalidCause(op, err, "move split content")
	}
	return nil
}

// Reversed merges the new element back into the split element.
func (op *Split) Reversed(graveyard *tree.RootElement) Operation {
	return NewMerge(op.MoveTargetPosition(), op.HowMany, op.SplitPosition, graveyardStart(graveyard), op.baseVersion+1)
}

type splitJSON struct {
	Type              string             `json:"type"`
	BaseVersion       int                `json:"baseVersion"`
	SplitPosition     tree.PositionJSON  `json:"splitPosition"`
	HowMany           int                `json:"howMany"`
	InsertionPosition tree.PositionJSON  `json:"insertionPosition"`
	GraveyardPosition *tree.PositionJSON `json:"graveyardPosition"`
}

// MarshalJSON implements json.Marshaler.
func (op *Split) MarshalJSON() ([]byte, error) {
	j := splitJSON{
		Type:              op.Type(),
		BaseVersion:       op.baseVersion,
		SplitPosition:     op.SplitPosition.ToJSON(),
		HowMany:           op.HowMany,
		InsertionPosition: op.InsertionPosition.ToJSON(),
	}
	if op.HasGraveyard() {
		gy := op.GraveyardPosition.ToJSON()
		j.GraveyardPosition = &gy
	}
	return json.Marshal(j)
}

func (j splitJSON) decode(roots tree.RootResolver) (Operation, error) {
	split, err := j.SplitPosition.Position(roots)
	if err != nil {
		return nil, err
	}
	insertion, err := j.InsertionPosition.Position(roots)
	if err != nil {
		return nil, err
	}
	op := &Split{
		base:              base{baseVersion: j.BaseVersion},
		SplitPosition:     split,
		HowMany:           j.HowMany,
		InsertionPosition: insertion,
	}
	if j.GraveyardPosition != nil {
		if op.GraveyardPosition, err = j.GraveyardPosition.Position(roots); err != nil {
			return nil, err
		}
	}
	return op, nil
}
