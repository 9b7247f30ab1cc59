package operation

import "github.com/dshills/docmodel/internal/model/tree"

// TransformPosition returns where p ends up after op is applied.
func TransformPosition(p tree.Position, op Operation) tree.Position {
	switch o := op.(type) {
	case *Insert:
		return p.TransformedByInsertion(o.Position, o.HowMany())
	case *Move:
		return p.TransformedByMove(o.SourcePosition, o.TargetPosition, o.HowMany)
	case *Split:
		return positionBySplit(p, o)
	case *Merge:
		return positionByMerge(p, o)
	default:
		return p.Clone()
	}
}

// TransformRange returns the ranges r turns into after op is applied. Only
// moves can produce more than one range.
func TransformRange(r tree.Range, op Operation) []tree.Range {
	switch o := op.(type) {
	case *Insert:
		return r.TransformedByInsertion(o.Position, o.HowMany(), false)
	case *Move:
		return r.TransformedByMove(o.SourcePosition, o.TargetPosition, o.HowMany, false)
	case *Split:
		return []tree.Range{rangeBySplit(r, o)}
	case *Merge:
		return []tree.Range{rangeByMerge(r, o)}
	default:
		return []tree.Range{r.Clone()}
	}
}

func positionBySplit(p tree.Position, op *Split) tree.Position {
	moved := op.MovedRange()
	if moved.ContainsPosition(p) || (moved.Start.IsEqual(p) && p.Stickiness == tree.StickToNext) {
		return p.Combined(op.SplitPosition, op.MoveTargetPosition())
	}
	if op.HasGraveyard() {
		return p.TransformedByMove(op.GraveyardPosition, op.InsertionPosition, 1)
	}
	return p.TransformedByInsertion(op.InsertionPosition, 1)
}

func positionByMerge(p tree.Position, op *Merge) tree.Position {
	moved := op.MovedRange()
	deletion := op.DeletionPosition()
	if moved.ContainsPosition(p) || moved.Start.IsEqual(p) {
		out := p.Combined(op.SourcePosition, op.TargetPosition)
		if t, ok := out.TransformedByDeletion(deletion, 1); ok {
			gy, _ := op.GraveyardPosition.TransformedByDeletion(deletion, 1)
			out = t.TransformedByInsertion(gy, 1)
		}
		return out
	}
	if p.IsEqual(deletion) {
		return deletion
	}
	// Nodes after the target are pushed right by the merged content.
	if !p.IsEqual(op.TargetPosition) {
		p = p.TransformedByInsertion(op.TargetPosition, op.HowMany)
	}
	return p.TransformedByMove(deletion, op.GraveyardPosition, 1)
}

func rangeBySplit(r tree.Range, op *Split) tree.Range {
	start := positionBySplit(r.Start, op)
	end := positionBySplit(r.End, op)
	if r.End.IsEqual(op.InsertionPosition) {
		end = r.End.ShiftedBy(1)
	}
	if start.Root != end.Root {
		end = r.End.ShiftedBy(-1)
	}
	return tree.NewRange(start, end)
}

func rangeByMerge(r tree.Range, op *Merge) tree.Range {
	deletion := op.DeletionPosition()
	if r.Start.IsEqual(op.TargetPosition) && r.End.IsEqual(deletion) {
		return tree.NewCollapsedRange(r.Start)
	}
	start := positionByMerge(r.Start, op)
	end := positionByMerge(r.End, op)
	if start.Root != end.Root {
		end = r.End.ShiftedBy(-1)
	}
	if start.IsAfter(end) {
		if op.SourcePosition.IsBefore(op.TargetPosition) {
			start = end.WithOffset(0)
		} else {
			if !deletion.IsEqual(start) {
				end = deletion
			}
			start = op.TargetPosition
		}
	}
	return tree.NewRange(start, end)
}

// TransformRangeBySplit returns the single range r turns into after a split.
func TransformRangeBySplit(r tree.Range, op *Split) tree.Range {
	return rangeBySplit(r, op)
}

// TransformRangeByMerge returns the single range r turns into after a merge.
func TransformRangeByMerge(r tree.Range, op *Merge) tree.Range {
	return rangeByMerge(r, op)
}
