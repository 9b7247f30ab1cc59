package ot

import (
	"slices"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

func moveByInsert(a *operation.Move, b *operation.Insert, _ Context) []operation.Operation {
	r := a.MovedRange().TransformedByInsertion(b.Position, b.HowMany(), false)[0]
	a.SourcePosition = r.Start.WithStickiness(tree.StickToNext)
	a.HowMany = r.End.Offset() - r.Start.Offset()
	if !a.TargetPosition.IsEqual(b.Position) {
		a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
	}
	return one(a)
}

// targetMovedInto reports whether the target of a lies inside the range b
// moves.
func targetMovedInto(a, b *operation.Move) bool {
	_, ok := a.TargetPosition.TransformedByDeletion(b.SourcePosition, b.HowMany)
	return !ok
}

func moveByMove(a, b *operation.Move, ctx Context) []operation.Operation {
	rangeA := a.MovedRange()
	rangeB := b.MovedRange()

	insertBefore := ctx.AIsStrong
	switch {
	case ctx.ABRelation.Is(RelationInsertBefore) || ctx.BARelation.Is(RelationInsertAfter):
		insertBefore = true
	case ctx.ABRelation.Is(RelationInsertAfter) || ctx.BARelation.Is(RelationInsertBefore):
		insertBefore = false
	}

	target := a.TargetPosition.TransformedByMove(b.SourcePosition, b.TargetPosition, b.HowMany)
	if a.TargetPosition.IsEqual(b.TargetPosition) && insertBefore {
		if p, ok := a.TargetPosition.TransformedByDeletion(b.SourcePosition, b.HowMany); ok {
			target = p
		}
	}

	// Each operation moves its nodes into the range moved by the other. Only
	// one of them can be applied: b wins, a undoes it.
	if targetMovedInto(a, b) && targetMovedInto(b, a) {
		return one(b.Reversed(nil))
	}

	// b moves nodes from inside rangeA to another place inside rangeA. The
	// boundaries must not follow nodes moved from the edges of rangeA.
	if rangeA.ContainsPosition(b.TargetPosition) && rangeA.ContainsRange(rangeB, true) {
		start := rangeA.Start.WithStickiness(tree.StickToNone).TransformedByMove(b.SourcePosition, b.TargetPosition, b.HowMany)
		end := rangeA.End.WithStickiness(tree.StickToNone).TransformedByMove(b.SourcePosition, b.TargetPosition, b.HowMany)
		return makeMoves([]tree.Range{tree.NewRange(start, end)}, target)
	}

	// a moves nodes from inside rangeB to another place inside rangeB.
	if rangeB.ContainsPosition(a.TargetPosition) && rangeB.ContainsRange(rangeA, true) {
		start := rangeA.Start.Combined(b.SourcePosition, b.MovedRangeStart())
		end := rangeA.End.Combined(b.SourcePosition, b.MovedRangeStart())
		return makeMoves([]tree.Range{tree.NewRange(start, end)}, target)
	}

	// One range is nested in a node moved by the other.
	if rel, _ := tree.ComparePaths(a.SourcePosition.ParentPath(), b.SourcePosition.ParentPath()); rel == tree.PathPrefix || rel == tree.PathExtension {
		start := rangeA.Start.TransformedByMove(b.SourcePosition, b.TargetPosition, b.HowMany)
		end := rangeA.End.TransformedByMove(b.SourcePosition, b.TargetPosition, b.HowMany)
		return makeMoves([]tree.Range{tree.NewRange(start, end)}, target)
	}

	// A removal beats a move of the same nodes unless it is being undone.
	aIsStrong := ctx.AIsStrong
	switch {
	case a.IsRemove() && !b.IsRemove() && !ctx.AWasUndone && !ctx.UndoMode:
		aIsStrong = true
	case !a.IsRemove() && b.IsRemove() && !ctx.BWasUndone && !ctx.UndoMode:
		aIsStrong = false
	}

	// Nodes b moves into the middle of rangeA travel with it.
	var ranges []tree.Range
	bStart := b.MovedRangeStart()
	for _, diff := range rangeA.Difference(rangeB) {
		start, _ := diff.Start.TransformedByDeletion(b.SourcePosition, b.HowMany)
		end, _ := diff.End.TransformedByDeletion(b.SourcePosition, b.HowMany)
		ranges = append(ranges, tree.NewRange(start, end).TransformedByInsertion(bStart, b.HowMany, false)...)
	}

	if common, ok := rangeA.Intersection(rangeB); ok && aIsStrong {
		c := tree.NewRange(
			common.Start.Combined(b.SourcePosition, bStart),
			common.End.Combined(b.SourcePosition, bStart),
		)
		switch len(ranges) {
		case 0:
			ranges = append(ranges, c)
		case 1:
			if !rangeB.Start.IsAfter(rangeA.Start) {
				ranges = slices.Insert(ranges, 0, c)
			} else {
				ranges = append(ranges, c)
			}
		default:
			ranges = slices.Insert(ranges, 1, c)
		}
	}

	if len(ranges) == 0 {
		return noop()
	}
	return makeMoves(ranges, target)
}

func moveBySplit(a *operation.Move, b *operation.Split, ctx Context) []operation.Operation {
	target := operation.TransformPosition(a.TargetPosition, b)
	moved := a.MovedRange()

	// The last moved element got split: move the new element too.
	if moved.End.IsEqual(b.InsertionPosition) {
		if !b.HasGraveyard() {
			a.HowMany++
		}
		a.TargetPosition = target
		return one(a)
	}

	// The split happened between the moved nodes.
	if moved.Start.HasSameParentAs(b.SplitPosition) && moved.ContainsPosition(b.SplitPosition) {
		right := operation.TransformRangeBySplit(tree.NewRange(b.SplitPosition, moved.End), b)
		return makeMoves([]tree.Range{tree.NewRange(moved.Start, b.SplitPosition), right}, target)
	}

	// b reverts a merge a was transformed by before.
	if a.TargetPosition.IsEqual(b.SplitPosition) && ctx.ABRelation.Is(RelationInsertAtSource) {
		target = b.MoveTargetPosition()
	}
	if a.TargetPosition.IsEqual(b.InsertionPosition) && ctx.ABRelation.Is(RelationInsertBetween) {
		target = a.TargetPosition
	}

	ranges := []tree.Range{operation.TransformRangeBySplit(moved, b)}
	if b.HasGraveyard() {
		movesGraveyardElement := moved.Start.IsEqual(b.GraveyardPosition) || moved.ContainsPosition(b.GraveyardPosition)
		if a.HowMany > 1 && movesGraveyardElement && !ctx.AWasUndone {
			ranges = append(ranges, tree.RangeFromPositionAndShift(b.InsertionPosition, 1))
		}
	}
	return makeMoves(ranges, target)
}

func moveByMerge(a *operation.Move, b *operation.Merge, ctx Context) []operation.Operation {
	// a puts the merge target into the merged element. The merge wins.
	if movesTargetIntoMerged(a, b) {
		return noop()
	}

	moved := a.MovedRange()
	if b.DeletionPosition().HasSameParentAs(a.SourcePosition) && moved.ContainsPosition(b.SourcePosition) {
		if a.IsRemove() && !ctx.UndoMode {
			if !ctx.AWasUndone {
				return removeMergedElements(a, b)
			}
		} else if a.HowMany == 1 {
			// a moves only the merged element, which is gone.
			if !ctx.BWasUndone {
				return noop()
			}
			a.SourcePosition = b.GraveyardPosition.WithStickiness(tree.StickToNext)
			a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
			return one(a)
		}
	}

	r := operation.TransformRangeByMerge(moved, b)
	a.SourcePosition = r.Start.WithStickiness(tree.StickToNext)
	a.HowMany = r.End.Offset() - r.Start.Offset()
	a.TargetPosition = operation.TransformPosition(a.TargetPosition, b)
	return one(a)
}

// movesTargetIntoMerged reports whether m moves the element that merge
// targets into the element merge empties. Applying both would put an element
// inside itself.
func movesTargetIntoMerged(m *operation.Move, merge *operation.Merge) bool {
	if m.TargetPosition.Root != merge.SourcePosition.Root || m.SourcePosition.Root != merge.TargetPosition.Root {
		return false
	}
	merged := merge.SourcePosition.ParentPath()
	if len(m.TargetPosition.Path) <= len(merged) || !slices.Equal(m.TargetPosition.Path[:len(merged)], merged) {
		return false
	}
	target := merge.TargetPosition.ParentPath()
	source := m.SourcePosition.ParentPath()
	if len(target) <= len(source) || !slices.Equal(target[:len(source)], source) {
		return false
	}
	i := target[len(source)]
	return i >= m.SourcePosition.Offset() && i < m.SourcePosition.Offset()+m.HowMany
}

// removeMergedElements removes the nodes of a when one of them was merged
// into its previous sibling by b. The merged element is pulled out of the
// graveyard and its former content is moved back into it, so that the
// removed content matches what a removed originally.
func removeMergedElements(a *operation.Move, b *operation.Merge) []operation.Operation {
	var out []operation.Operation
	gySource := b.GraveyardPosition.Clone()
	splitSource := operation.TransformPosition(b.TargetPosition, b)
	if a.HowMany > 1 {
		out = append(out, operation.NewMove(a.SourcePosition, a.HowMany-1, a.TargetPosition, 0))
		gySource = gySource.TransformedByMove(a.SourcePosition, a.TargetPosition, a.HowMany-1)
		splitSource = splitSource.TransformedByMove(a.SourcePosition, a.TargetPosition, a.HowMany-1)
	}
	gyTarget := b.DeletionPosition().Combined(a.SourcePosition, a.TargetPosition)
	gyMove := operation.NewMove(gySource, 1, gyTarget, 0)
	splitTarget := gyMove.MovedRangeStart().Child(0)
	splitSource = splitSource.TransformedByMove(gySource, gyTarget, 1)
	return append(out, gyMove, operation.NewMove(splitSource, b.HowMany, splitTarget, 0))
}
