package ot

import (
	"slices"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

func mapRange(r *tree.Range, f func(tree.Range) tree.Range) *tree.Range {
	if r == nil {
		return nil
	}
	out := f(*r)
	return &out
}

func markerByInsert(a *operation.Marker, b *operation.Insert, _ Context) []operation.Operation {
	byInsert := func(r tree.Range) tree.Range {
		return r.TransformedByInsertion(b.Position, b.HowMany(), false)[0]
	}
	a.OldRange = mapRange(a.OldRange, byInsert)
	a.NewRange = mapRange(a.NewRange, byInsert)
	return one(a)
}

func markerByMarker(a, b *operation.Marker, ctx Context) []operation.Operation {
	if a.Name != b.Name {
		return one(a)
	}
	if !ctx.AIsStrong {
		return noop()
	}
	a.OldRange = mapRange(b.NewRange, tree.Range.Clone)
	return one(a)
}

func markerByMerge(a *operation.Marker, b *operation.Merge, _ Context) []operation.Operation {
	byMerge := func(r tree.Range) tree.Range {
		return operation.TransformRangeByMerge(r, b)
	}
	a.OldRange = mapRange(a.OldRange, byMerge)
	a.NewRange = mapRange(a.NewRange, byMerge)
	return one(a)
}

func markerByMove(a *operation.Marker, b *operation.Move, ctx Context) []operation.Operation {
	byMove := func(r tree.Range) tree.Range {
		return tree.JoinRanges(r.TransformedByMove(b.SourcePosition, b.TargetPosition, b.HowMany, false))
	}
	a.OldRange = mapRange(a.OldRange, byMove)
	if a.NewRange == nil {
		return one(a)
	}
	current := *a.NewRange
	moved := byMove(current)
	if rel := ctx.ABRelation; rel.Is(RelationMarkerMove) {
		// Content moved back next to the marker: restore the boundary that
		// was inside the moved range before.
		switch {
		case rel.Side == SideLeft && b.TargetPosition.IsEqual(current.Start):
			start := tree.Position{Root: current.Start.Root, Path: slices.Clone(rel.Path)}
			r := tree.NewRange(start, moved.End)
			a.NewRange = &r
			return one(a)
		case rel.Side == SideRight && b.TargetPosition.IsEqual(current.End):
			end := tree.Position{Root: current.End.Root, Path: slices.Clone(rel.Path)}
			r := tree.NewRange(moved.Start, end)
			a.NewRange = &r
			return one(a)
		}
	}
	a.NewRange = &moved
	return one(a)
}

func markerBySplit(a *operation.Marker, b *operation.Split, ctx Context) []operation.Operation {
	bySplit := func(r tree.Range) tree.Range {
		return operation.TransformRangeBySplit(r, b)
	}
	a.OldRange = mapRange(a.OldRange, bySplit)
	if a.NewRange == nil {
		return one(a)
	}
	current := *a.NewRange
	split := bySplit(current)
	if rel := ctx.ABRelation; rel.Is(RelationMarkerMerge) {
		// The split reverts a merge: put boundaries back into the element
		// they were in before the merge.
		start, end := split.Start, split.End
		if current.Start.IsEqual(b.SplitPosition) {
			switch {
			case rel.WasStartBeforeMergedElement:
				start = b.InsertionPosition.Clone()
			case !rel.WasInLeftElement:
				start = b.MoveTargetPosition()
			default:
				start = current.Start.Clone()
			}
		}
		if current.End.IsEqual(b.SplitPosition) {
			switch {
			case rel.WasInRightElement:
				end = b.MoveTargetPosition()
			case rel.WasEndBeforeMergedElement:
				end = b.InsertionPosition.Clone()
			}
		}
		r := tree.NewRange(start, end)
		a.NewRange = &r
		return one(a)
	}
	a.NewRange = &split
	return one(a)
}
