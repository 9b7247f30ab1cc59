package ot

import (
	"slices"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

// Context breaks ties while transforming a by b.
type Context struct {
	// AIsStrong makes a win when both operations target the same spot.
	AIsStrong bool

	// AWasUndone reports that a was undone later in history.
	AWasUndone bool

	// BWasUndone reports that b was undone later in history.
	BWasUndone bool

	// ABRelation is the relation recorded between a and the operation b undoes.
	ABRelation Relation

	// BARelation is the relation recorded between b and the operation a undoes.
	BARelation Relation

	// UndoMode makes removals weak.
	UndoMode bool
}

// RelationKind tags a structural fact about two operations.
type RelationKind int

// Relation kinds.
const (
	RelationNone RelationKind = iota

	// Move by move.
	RelationInsertBefore
	RelationInsertAfter

	// Move by merge.
	RelationInsertAtSource
	RelationInsertBetween

	// Split by merge or move.
	RelationSplitBefore

	// Split by move, split point inside the moved range.
	RelationSplitInsideMove

	// Merge by split.
	RelationSplitAtSource

	// Merge by merge.
	RelationMergeTargetNotMoved
	RelationMergeSourceNotMoved
	RelationMergeSameElement

	// Marker by move or merge.
	RelationMarkerMove
	RelationMarkerMerge
)

// String returns the relation name.
func (k RelationKind) String() string {
	switch k {
	case RelationInsertBefore:
		return "insertBefore"
	case RelationInsertAfter:
		return "insertAfter"
	case RelationInsertAtSource:
		return "insertAtSource"
	case RelationInsertBetween:
		return "insertBetween"
	case RelationSplitBefore:
		return "splitBefore"
	case RelationSplitInsideMove:
		return "splitInsideMove"
	case RelationSplitAtSource:
		return "splitAtSource"
	case RelationMergeTargetNotMoved:
		return "mergeTargetNotMoved"
	case RelationMergeSourceNotMoved:
		return "mergeSourceNotMoved"
	case RelationMergeSameElement:
		return "mergeSameElement"
	case RelationMarkerMove:
		return "markerMove"
	case RelationMarkerMerge:
		return "markerMerge"
	default:
		return "none"
	}
}

// Side is the marker boundary affected by a move.
type Side int

// Marker sides.
const (
	SideLeft Side = iota
	SideRight
)

// Relation is a structural fact recorded when one operation was transformed
// by another. Only the fields matching Kind are meaningful.
type Relation struct {
	Kind RelationKind

	// RelationSplitInsideMove: nodes after the split point inside the moved
	// range and the distance of the split point from the range start.
	HowMany int
	Offset  int

	// RelationMarkerMove: which marker boundary was inside the moved range
	// and where it was.
	Side Side
	Path []int

	// RelationMarkerMerge flags.
	WasInLeftElement            bool
	WasStartBeforeMergedElement bool
	WasEndBeforeMergedElement   bool
	WasInRightElement           bool
}

// Is reports whether the relation is of kind k.
func (r Relation) Is(k RelationKind) bool { return r.Kind == k }

// UndoLog tells which operations were undone and which operation an undoing
// operation reverts.
type UndoLog interface {
	IsUndoneOperation(op operation.Operation) bool
	UndoneOperation(undoing operation.Operation) (operation.Operation, bool)
}

// contextFactory tracks where each transformed operation came from and the
// relations recorded during one TransformSets call.
type contextFactory struct {
	undo         UndoLog
	useRelations bool
	undoMode     bool

	original  map[operation.Operation]operation.Operation
	relations map[operation.Operation]map[operation.Operation]Relation
}

func newContextFactory(undo UndoLog, useRelations, undoMode bool) *contextFactory {
	return &contextFactory{
		undo:         undo,
		useRelations: useRelations,
		undoMode:     undoMode,
		original:     make(map[operation.Operation]operation.Operation),
		relations:    make(map[operation.Operation]map[operation.Operation]Relation),
	}
}

// setOriginal maps ops to the original of from, or to themselves.
func (f *contextFactory) setOriginal(ops []operation.Operation, from operation.Operation) {
	var orig operation.Operation
	if from != nil {
		orig = f.original[from]
	}
	for _, op := range ops {
		if orig != nil {
			f.original[op] = orig
		} else {
			f.original[op] = op
		}
	}
}

func (f *contextFactory) context(a, b operation.Operation, aIsStrong bool) Context {
	ctx := Context{
		AIsStrong:  aIsStrong,
		AWasUndone: f.wasUndone(a),
		BWasUndone: f.wasUndone(b),
		UndoMode:   f.undoMode,
	}
	if f.useRelations {
		ctx.ABRelation = f.relation(a, b)
		ctx.BARelation = f.relation(b, a)
	}
	return ctx
}

func (f *contextFactory) wasUndone(op operation.Operation) bool {
	if f.undo == nil {
		return false
	}
	return f.undo.IsUndoneOperation(f.original[op])
}

func (f *contextFactory) relation(a, b operation.Operation) Relation {
	if f.undo == nil {
		return Relation{}
	}
	undone, ok := f.undo.UndoneOperation(f.original[b])
	if !ok {
		return Relation{}
	}
	return f.relations[f.original[a]][undone]
}

func (f *contextFactory) setRelation(a, b operation.Operation, r Relation) {
	origA, origB := f.original[a], f.original[b]
	m := f.relations[origA]
	if m == nil {
		m = make(map[operation.Operation]Relation)
		f.relations[origA] = m
	}
	m[origB] = r
}

// updateRelation records what b did relative to a, before either is
// transformed.
func (f *contextFactory) updateRelation(a, b operation.Operation) {
	switch opA := a.(type) {
	case *operation.Move:
		switch opB := b.(type) {
		case *operation.Merge:
			switch {
			case opA.TargetPosition.IsEqual(opB.SourcePosition) || opB.MovedRange().ContainsPosition(opA.TargetPosition):
				f.setRelation(a, b, Relation{Kind: RelationInsertAtSource})
			case opA.TargetPosition.IsEqual(opB.DeletionPosition()):
				f.setRelation(a, b, Relation{Kind: RelationInsertBetween})
			}
		case *operation.Move:
			if opA.TargetPosition.IsEqual(opB.SourcePosition) || opA.TargetPosition.IsBefore(opB.SourcePosition) {
				f.setRelation(a, b, Relation{Kind: RelationInsertBefore})
			} else {
				f.setRelation(a, b, Relation{Kind: RelationInsertAfter})
			}
		}

	case *operation.Split:
		switch opB := b.(type) {
		case *operation.Merge:
			if opA.SplitPosition.IsBefore(opB.SourcePosition) {
				f.setRelation(a, b, Relation{Kind: RelationSplitBefore})
			}
		case *operation.Move:
			if opA.SplitPosition.IsEqual(opB.SourcePosition) || opA.SplitPosition.IsBefore(opB.SourcePosition) {
				f.setRelation(a, b, Relation{Kind: RelationSplitBefore})
				return
			}
			moved := opB.MovedRange()
			if opA.SplitPosition.HasSameParentAs(opB.SourcePosition) && moved.ContainsPosition(opA.SplitPosition) {
				f.setRelation(a, b, Relation{
					Kind:    RelationSplitInsideMove,
					HowMany: moved.End.Offset() - opA.SplitPosition.Offset(),
					Offset:  opA.SplitPosition.Offset() - moved.Start.Offset(),
				})
			}
		}

	case *operation.Merge:
		switch opB := b.(type) {
		case *operation.Merge:
			if !opA.TargetPosition.IsEqual(opB.SourcePosition) {
				f.setRelation(a, b, Relation{Kind: RelationMergeTargetNotMoved})
			}
			if opA.SourcePosition.IsEqual(opB.TargetPosition) {
				f.setRelation(a, b, Relation{Kind: RelationMergeSourceNotMoved})
			}
			if opA.SourcePosition.IsEqual(opB.SourcePosition) {
				f.setRelation(a, b, Relation{Kind: RelationMergeSameElement})
			}
		case *operation.Split:
			if opA.SourcePosition.IsEqual(opB.SplitPosition) {
				f.setRelation(a, b, Relation{Kind: RelationSplitAtSource})
			}
		}

	case *operation.Marker:
		if opA.NewRange == nil {
			return
		}
		r := *opA.NewRange
		switch opB := b.(type) {
		case *operation.Move:
			moved := opB.MovedRange()
			left := moved.ContainsPosition(r.Start) || moved.Start.IsEqual(r.Start)
			right := moved.ContainsPosition(r.End) || moved.End.IsEqual(r.End)
			if (left || right) && !moved.ContainsRange(r, false) {
				rel := Relation{Kind: RelationMarkerMove, Side: SideRight, Path: slices.Clone(r.End.Path)}
				if left {
					rel.Side = SideLeft
					rel.Path = slices.Clone(r.Start.Path)
				}
				f.setRelation(a, b, rel)
			}
		case *operation.Merge:
			rel := Relation{
				Kind:                        RelationMarkerMerge,
				WasInLeftElement:            r.Start.IsEqual(opB.TargetPosition),
				WasStartBeforeMergedElement: r.Start.IsEqual(opB.DeletionPosition()),
				WasEndBeforeMergedElement:   r.End.IsEqual(opB.DeletionPosition()),
				WasInRightElement:           r.End.IsEqual(opB.SourcePosition),
			}
			if rel.WasInLeftElement || rel.WasStartBeforeMergedElement || rel.WasEndBeforeMergedElement || rel.WasInRightElement {
				f.setRelation(a, b, rel)
			}
		}
	}
}

// inGraveyard reports whether p is in the graveyard root.
func inGraveyard(p tree.Position) bool {
	return p.Root != nil && p.Root.IsGraveyard()
}
