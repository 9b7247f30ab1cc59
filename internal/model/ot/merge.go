package ot

import (
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

func mergeByInsert(a *operation.Merge, b *operation.Insert, _ Context) []operation.Operation {
	if a.SourcePosition.HasSameParentAs(b.Position) {
		a.HowMany += b.HowMany()
	}
	a.SourcePosition = operation.TransformPosition(a.SourcePosition, b)
	a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
	return one(a)
}

func mergeByMerge(a, b *operation.Merge, ctx Context) []operation.Operation {
	// Both merge the same element into the same place.
	if a.SourcePosition.IsEqual(b.SourcePosition) && a.TargetPosition.IsEqual(b.TargetPosition) {
		if !ctx.BWasUndone {
			return noop()
		}
		// b was undone, so the element is back: merge the now empty
		// graveyard copy instead.
		a.SourcePosition = b.GraveyardPosition.Child(0).WithStickiness(tree.StickToPrevious)
		a.HowMany = 0
		return one(a)
	}

	// The same element merged into different places. The side merging into
	// the graveyard is weak.
	if a.SourcePosition.IsEqual(b.SourcePosition) && !a.TargetPosition.IsEqual(b.TargetPosition) &&
		!ctx.BWasUndone && !ctx.ABRelation.Is(RelationSplitAtSource) {
		aToGraveyard := inGraveyard(a.TargetPosition)
		bToGraveyard := inGraveyard(b.TargetPosition)
		aIsWeak := aToGraveyard && !bToGraveyard
		bIsWeak := bToGraveyard && !aToGraveyard
		if bIsWeak || (!aIsWeak && ctx.AIsStrong) {
			source := operation.TransformPosition(b.TargetPosition, b)
			target := operation.TransformPosition(a.TargetPosition, b)
			return one(operation.NewMove(source, a.HowMany, target, 0))
		}
		return noop()
	}

	if a.SourcePosition.HasSameParentAs(b.TargetPosition) {
		a.HowMany += b.HowMany
	}
	if a.SourcePosition.HasSameParentAs(b.DeletionPosition()) {
		a.HowMany--
	}
	// Both merge into the same place: the content of the strong side goes
	// first.
	sameTarget := a.TargetPosition.IsEqual(b.TargetPosition)
	a.SourcePosition = operation.TransformPosition(a.SourcePosition, b)
	a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
	if sameTarget && !ctx.AIsStrong {
		a.TargetPosition = a.TargetPosition.ShiftedBy(b.HowMany)
	}
	// Equal graveyard slots: the strong side parks its element first.
	if !a.GraveyardPosition.IsEqual(b.GraveyardPosition) || !ctx.AIsStrong {
		a.GraveyardPosition = operation.TransformPosition(a.GraveyardPosition, b)
	}
	return one(a)
}

func mergeByMove(a *operation.Merge, b *operation.Move, ctx Context) []operation.Operation {
	// b put the merge target into the merged element. Undo it and merge.
	if movesTargetIntoMerged(b, a) {
		return []operation.Operation{b.Reversed(nil), a}
	}

	removed := b.MovedRange()
	// The merged element was removed as a whole.
	if b.IsRemove() && !ctx.BWasUndone && !ctx.UndoMode {
		if a.DeletionPosition().HasSameParentAs(b.SourcePosition) && removed.ContainsPosition(a.SourcePosition) {
			return noop()
		}
	}
	if a.SourcePosition.HasSameParentAs(b.TargetPosition) {
		a.HowMany += b.HowMany
	}
	if a.SourcePosition.HasSameParentAs(b.SourcePosition) {
		a.HowMany -= b.HowMany
	}
	a.SourcePosition = operation.TransformPosition(a.SourcePosition, b)
	a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
	if !a.GraveyardPosition.IsEqual(b.TargetPosition) {
		a.GraveyardPosition = operation.TransformPosition(a.GraveyardPosition, b)
	}
	return one(a)
}

func mergeBySplit(a *operation.Merge, b *operation.Split, ctx Context) []operation.Operation {
	if b.HasGraveyard() {
		if gy, ok := a.GraveyardPosition.TransformedByDeletion(b.GraveyardPosition, 1); ok {
			a.GraveyardPosition = gy
		}
		if a.DeletionPosition().IsEqual(b.GraveyardPosition) {
			a.HowMany = b.HowMany
		}
	}

	// The merge target is the split point.
	if a.TargetPosition.IsEqual(b.SplitPosition) {
		mergeInside := b.HowMany != 0
		mergeSplittingElement := b.HowMany == 0 && b.HasGraveyard() && a.DeletionPosition().IsEqual(b.GraveyardPosition)
		if mergeInside || mergeSplittingElement || ctx.ABRelation.Is(RelationMergeTargetNotMoved) {
			a.SourcePosition = operation.TransformPosition(a.SourcePosition, b)
			return one(a)
		}
	}

	// The merge source is the split point.
	if a.SourcePosition.IsEqual(b.SplitPosition) {
		if ctx.ABRelation.Is(RelationMergeSourceNotMoved) {
			a.HowMany = 0
			a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
			return one(a)
		}
		if ctx.ABRelation.Is(RelationMergeSameElement) || a.SourcePosition.Offset() > 0 {
			a.SourcePosition = b.MoveTargetPosition().WithStickiness(tree.StickToPrevious)
			a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
			return one(a)
		}
	}

	if a.SourcePosition.HasSameParentAs(b.SplitPosition) {
		a.HowMany = b.SplitPosition.Offset()
	}
	// b split a child of the merged element.
	if a.SourcePosition.HasSameParentAs(b.InsertionPosition) {
		a.HowMany++
	}
	a.SourcePosition = operation.TransformPosition(a.SourcePosition, b)
	a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
	return one(a)
}
