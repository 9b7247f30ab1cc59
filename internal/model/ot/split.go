package ot

import (
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

func splitByInsert(a *operation.Split, b *operation.Insert, _ Context) []operation.Operation {
	if a.SplitPosition.HasSameParentAs(b.Position) && a.SplitPosition.Offset() < b.Position.Offset() {
		a.HowMany += b.HowMany()
	}
	a.SplitPosition = operation.TransformPosition(a.SplitPosition, b)
	a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
	return one(a)
}

func splitByMerge(a *operation.Split, b *operation.Merge, ctx Context) []operation.Operation {
	// The split element got merged. Its empty shell is in the graveyard: copy
	// it there so that the split reuses an element with the right name and
	// attributes.
	if !a.HasGraveyard() && !ctx.BWasUndone && a.SplitPosition.HasSameParentAs(b.SourcePosition) {
		shell := b.GraveyardPosition.Child(0)
		additional := operation.NewSplit(shell, 0, operation.SplitInsertionPosition(shell), tree.Position{}, 0)
		a.SplitPosition = operation.TransformPosition(a.SplitPosition, b)
		a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
		a.GraveyardPosition = additional.InsertionPosition.WithStickiness(tree.StickToNext)
		return []operation.Operation{additional, a}
	}

	if a.SplitPosition.HasSameParentAs(b.DeletionPosition()) && !a.SplitPosition.IsAfter(b.DeletionPosition()) {
		a.HowMany--
	}
	if a.SplitPosition.HasSameParentAs(b.TargetPosition) {
		a.HowMany += b.HowMany
	}
	a.SplitPosition = operation.TransformPosition(a.SplitPosition, b)
	a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
	if a.HasGraveyard() {
		a.GraveyardPosition = operation.TransformPosition(a.GraveyardPosition, b)
	}
	return one(a)
}

func splitByMove(a *operation.Split, b *operation.Move, ctx Context) []operation.Operation {
	moved := b.MovedRange()

	if a.HasGraveyard() {
		// b took the element a wanted to reuse out of the graveyard. Move the
		// split content into it wherever it is now.
		gyElementMoved := moved.Start.IsEqual(a.GraveyardPosition) || moved.ContainsPosition(a.GraveyardPosition)
		if !ctx.BWasUndone && gyElementMoved {
			source := operation.TransformPosition(a.SplitPosition, b)
			parent := operation.TransformPosition(a.GraveyardPosition, b)
			return one(operation.NewMove(source, a.HowMany, parent.Child(0), 0))
		}
		a.GraveyardPosition = operation.TransformPosition(a.GraveyardPosition, b)
	}

	// The split point is where b moved its nodes to.
	splitAtTarget := a.SplitPosition.IsEqual(b.TargetPosition)
	if splitAtTarget && (ctx.BARelation.Is(RelationInsertAtSource) || ctx.ABRelation.Is(RelationSplitBefore)) {
		a.HowMany += b.HowMany
		if p, ok := a.SplitPosition.TransformedByDeletion(b.SourcePosition, b.HowMany); ok {
			a.SplitPosition = p
		}
		a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
		return one(a)
	}
	if splitAtTarget && ctx.ABRelation.Is(RelationSplitInsideMove) && ctx.ABRelation.HowMany != 0 {
		a.HowMany += ctx.ABRelation.HowMany
		a.SplitPosition = a.SplitPosition.ShiftedBy(ctx.ABRelation.Offset)
		a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
		return one(a)
	}

	// The split point was inside the moved nodes.
	if a.SplitPosition.HasSameParentAs(b.SourcePosition) && moved.ContainsPosition(a.SplitPosition) {
		a.HowMany -= b.HowMany - (a.SplitPosition.Offset() - b.SourcePosition.Offset())
		if a.SplitPosition.HasSameParentAs(b.TargetPosition) && a.SplitPosition.Offset() < b.TargetPosition.Offset() {
			a.HowMany += b.HowMany
		}
		a.SplitPosition = operation.TransformPosition(b.SourcePosition.WithStickiness(tree.StickToNone), b).
			WithStickiness(tree.StickToNext)
		a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
		return one(a)
	}

	if !b.SourcePosition.IsEqual(b.TargetPosition) {
		if a.SplitPosition.HasSameParentAs(b.SourcePosition) && a.SplitPosition.Offset() <= b.SourcePosition.Offset() {
			a.HowMany -= b.HowMany
		}
		if a.SplitPosition.HasSameParentAs(b.TargetPosition) && a.SplitPosition.Offset() < b.TargetPosition.Offset() {
			a.HowMany += b.HowMany
		}
	}

	// Nodes moved to the split point stay on its left.
	a.SplitPosition = operation.TransformPosition(a.SplitPosition.WithStickiness(tree.StickToNone), b).
		WithStickiness(tree.StickToNext)
	if a.HasGraveyard() {
		a.InsertionPosition = operation.TransformPosition(a.InsertionPosition, b)
	} else {
		a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
	}
	return one(a)
}

func splitBySplit(a, b *operation.Split, ctx Context) []operation.Operation {
	if a.SplitPosition.IsEqual(b.SplitPosition) {
		if !a.HasGraveyard() && !b.HasGraveyard() {
			return noop()
		}
		if a.HasGraveyard() && b.HasGraveyard() && a.GraveyardPosition.IsEqual(b.GraveyardPosition) {
			return noop()
		}
		if ctx.ABRelation.Is(RelationSplitBefore) {
			a.HowMany = 0
			if a.HasGraveyard() {
				a.GraveyardPosition = operation.TransformPosition(a.GraveyardPosition, b)
			}
			return one(a)
		}
	}

	// Both reuse the same graveyard element. The side splitting inside the
	// graveyard is weak.
	if a.HasGraveyard() && b.HasGraveyard() && a.GraveyardPosition.IsEqual(b.GraveyardPosition) {
		aInGraveyard := inGraveyard(a.SplitPosition)
		bInGraveyard := inGraveyard(b.SplitPosition)
		aIsWeak := aInGraveyard && !bInGraveyard
		bIsWeak := bInGraveyard && !aInGraveyard
		if bIsWeak || (!aIsWeak && ctx.AIsStrong) {
			var out []operation.Operation
			if b.HowMany != 0 {
				out = append(out, operation.NewMove(b.MoveTargetPosition(), b.HowMany, b.SplitPosition, 0))
			}
			if a.HowMany != 0 {
				out = append(out, operation.NewMove(a.SplitPosition, a.HowMany, a.MoveTargetPosition(), 0))
			}
			if len(out) == 0 {
				return noop()
			}
			return out
		}
		return noop()
	}

	if a.HasGraveyard() {
		a.GraveyardPosition = operation.TransformPosition(a.GraveyardPosition, b)
	}

	// a splits right before the element b created, and did so before b
	// reverted a merge: the new element goes to the right side.
	if a.SplitPosition.IsEqual(b.InsertionPosition) && ctx.ABRelation.Is(RelationSplitBefore) {
		a.HowMany++
		return one(a)
	}

	// Mirror case: move the element a creates into the right side of b.
	if b.SplitPosition.IsEqual(a.InsertionPosition) && ctx.BARelation.Is(RelationSplitBefore) {
		target := b.InsertionPosition.Child(0)
		return []operation.Operation{a, operation.NewMove(a.InsertionPosition, 1, target, 0)}
	}

	if a.SplitPosition.HasSameParentAs(b.SplitPosition) && a.SplitPosition.Offset() < b.SplitPosition.Offset() {
		a.HowMany -= b.HowMany
	}
	// b split the element a splits, somewhere deeper than a.
	if a.SplitPosition.HasSameParentAs(b.InsertionPosition) && a.SplitPosition.Offset() < b.InsertionPosition.Offset() {
		a.HowMany++
	}
	a.SplitPosition = operation.TransformPosition(a.SplitPosition, b)
	a.InsertionPosition = operation.SplitInsertionPosition(a.SplitPosition)
	return one(a)
}
