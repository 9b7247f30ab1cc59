package ot

import (
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

func attributeByAttribute(a, b *operation.Attribute, ctx Context) []operation.Operation {
	if a.Key != b.Key || !a.Range.Start.HasSameParentAs(b.Range.Start) {
		return one(a)
	}
	var out []operation.Operation
	for _, r := range a.Range.Difference(b.Range) {
		out = append(out, operation.NewAttribute(r, a.Key, a.OldValue, a.NewValue, 0))
	}
	// The strong side overwrites what the weak side has set.
	if common, ok := a.Range.Intersection(b.Range); ok && ctx.AIsStrong {
		out = append(out, operation.NewAttribute(common, b.Key, b.NewValue, a.NewValue, 0))
	}
	if len(out) == 0 {
		return noop()
	}
	return out
}

func attributeByInsert(a *operation.Attribute, b *operation.Insert, _ Context) []operation.Operation {
	if a.Range.Start.HasSameParentAs(b.Position) && a.Range.ContainsPosition(b.Position) {
		ranges := a.Range.TransformedByInsertion(b.Position, b.HowMany(), !b.ShouldReceiveAttributes)
		var out []operation.Operation
		if b.ShouldReceiveAttributes {
			if op := complementaryAttribute(b, a.Key, a.OldValue); op != nil {
				out = append(out, op)
			}
		}
		for _, r := range ranges {
			out = append(out, operation.NewAttribute(r, a.Key, a.OldValue, a.NewValue, 0))
		}
		return out
	}
	a.Range = a.Range.TransformedByInsertion(b.Position, b.HowMany(), false)[0]
	return one(a)
}

// complementaryAttribute returns the operation that gives the inserted nodes
// newValue for key, or nil if they already have it.
func complementaryAttribute(insert *operation.Insert, key string, newValue any) *operation.Attribute {
	if len(insert.Nodes) == 0 {
		return nil
	}
	value, _ := insert.Nodes[0].Attribute(key)
	if tree.ValuesEqual(value, newValue) {
		return nil
	}
	r := tree.RangeFromPositionAndShift(insert.Position, insert.HowMany())
	return operation.NewAttribute(r, key, value, newValue, 0)
}

func attributeByMerge(a *operation.Attribute, b *operation.Merge, _ Context) []operation.Operation {
	var ranges []tree.Range
	deletion := b.DeletionPosition()
	if a.Range.Start.HasSameParentAs(deletion) {
		if a.Range.ContainsPosition(deletion) || a.Range.Start.IsEqual(deletion) {
			ranges = append(ranges, tree.RangeFromPositionAndShift(b.GraveyardPosition, 1))
		}
	}
	if r := operation.TransformRangeByMerge(a.Range, b); !r.IsCollapsed() {
		ranges = append(ranges, r)
	}
	out := make([]operation.Operation, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, operation.NewAttribute(r, a.Key, a.OldValue, a.NewValue, 0))
	}
	return out
}

func attributeByMove(a *operation.Attribute, b *operation.Move, _ Context) []operation.Operation {
	ranges := breakRangeByMove(a.Range, b)
	out := make([]operation.Operation, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, operation.NewAttribute(r, a.Key, a.OldValue, a.NewValue, 0))
	}
	return out
}

// breakRangeByMove transforms a flat range by a move, keeping every result
// range flat.
func breakRangeByMove(r tree.Range, move *operation.Move) []tree.Range {
	moved := move.MovedRange()
	var common *tree.Range
	var difference []tree.Range
	switch {
	case moved.ContainsRange(r, true):
		common = &r
	case r.Start.HasSameParentAs(moved.Start):
		difference = r.Difference(moved)
		if c, ok := r.Intersection(moved); ok {
			common = &c
		}
	default:
		difference = []tree.Range{r}
	}

	var out []tree.Range
	target := move.MovedRangeStart()
	for _, diff := range difference {
		d, ok := diff.TransformedByDeletion(move.SourcePosition, move.HowMany)
		if !ok {
			continue
		}
		spread := d.Start.HasSameParentAs(target)
		out = append(out, d.TransformedByInsertion(target, move.HowMany, spread)...)
	}
	if common != nil {
		out = append(out, common.TransformedByMove(move.SourcePosition, move.TargetPosition, move.HowMany, false)[0])
	}
	return out
}

func attributeBySplit(a *operation.Attribute, b *operation.Split, _ Context) []operation.Operation {
	// The range ends right after the split element: the new element is
	// covered too.
	if a.Range.End.IsEqual(b.InsertionPosition) {
		if !b.HasGraveyard() {
			a.Range = tree.NewRange(a.Range.Start, a.Range.End.ShiftedBy(1))
		}
		return one(a)
	}
	if a.Range.Start.HasSameParentAs(b.SplitPosition) && a.Range.ContainsPosition(b.SplitPosition) {
		second := a.Clone().(*operation.Attribute)
		second.Range = tree.NewRange(b.MoveTargetPosition(), a.Range.End.Combined(b.SplitPosition, b.MoveTargetPosition()))
		a.Range = tree.NewRange(a.Range.Start, b.SplitPosition)
		return []operation.Operation{a, second}
	}
	a.Range = operation.TransformRangeBySplit(a.Range, b)
	return one(a)
}
