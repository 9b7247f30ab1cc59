package tree

import (
	"cmp"
	"fmt"
	"slices"
)

// Range is an ordered pair of positions in the same root.
type Range struct {
	Start Position
	End   Position
}

// NewRange creates a range and fixes the boundary stickiness: a non-collapsed
// range sticks inward, a collapsed one does not stick at all.
func NewRange(start, end Position) Range {
	r := Range{Start: start.Clone(), End: end.Clone()}
	if r.IsCollapsed() {
		r.Start.Stickiness = StickToNone
		r.End.Stickiness = StickToNone
	} else {
		r.Start.Stickiness = StickToNext
		r.End.Stickiness = StickToPrevious
	}
	return r
}

// NewCheckedRange creates a range and rejects reversed or cross-root input.
func NewCheckedRange(start, end Position) (Range, error) {
	if start.Root != end.Root {
		return Range{}, fmt.Errorf("%w: %s and %s are in different roots", ErrInvalidRange, start, end)
	}
	if start.IsAfter(end) {
		return Range{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, start, end)
	}
	return NewRange(start, end), nil
}

// NewCollapsedRange creates an empty range at p.
func NewCollapsedRange(p Position) Range {
	return NewRange(p, p)
}

// RangeFromPositionAndShift creates a range from p spanning shift offsets.
func RangeFromPositionAndShift(p Position, shift int) Range {
	return NewRange(p, p.ShiftedBy(shift))
}

// RangeIn creates a range covering the whole content of an element.
func RangeIn(e *Element) Range {
	return NewRange(NewPositionAt(e, 0), NewPositionAt(e, e.MaxOffset()))
}

// RangeOn creates a range covering a single node.
func RangeOn(n Node) Range {
	return RangeFromPositionAndShift(PositionBefore(n), 1)
}

// Root returns the root of the range.
func (r Range) Root() *RootElement { return r.Start.Root }

// Clone returns a deep copy.
func (r Range) Clone() Range {
	return Range{Start: r.Start.Clone(), End: r.End.Clone()}
}

// IsCollapsed reports whether start equals end.
func (r Range) IsCollapsed() bool { return r.Start.IsEqual(r.End) }

// IsFlat reports whether both ends are in the same parent.
func (r Range) IsFlat() bool { return r.Start.HasSameParentAs(r.End) }

// IsEqual reports whether both ranges have equal boundaries.
func (r Range) IsEqual(other Range) bool {
	return r.Start.IsEqual(other.Start) && r.End.IsEqual(other.End)
}

// Validate checks both boundaries and their order.
func (r Range) Validate() error {
	if err := r.Start.Validate(); err != nil {
		return err
	}
	if err := r.End.Validate(); err != nil {
		return err
	}
	_, err := NewCheckedRange(r.Start, r.End)
	return err
}

// String returns a compact form such as main[0,1]-[0,4].
func (r Range) String() string {
	return fmt.Sprintf("%s-%v", r.Start, r.End.Path)
}

// ContainsPosition reports whether p is strictly inside the range.
func (r Range) ContainsPosition(p Position) bool {
	return p.IsAfter(r.Start) && p.IsBefore(r.End)
}

// ContainsRange reports whether other lies inside r. With loose set, shared
// boundaries count as contained; a collapsed other is never loosely contained.
func (r Range) ContainsRange(other Range, loose bool) bool {
	if other.IsCollapsed() {
		loose = false
	}
	containsStart := r.ContainsPosition(other.Start) || (loose && r.Start.IsEqual(other.Start))
	containsEnd := r.ContainsPosition(other.End) || (loose && r.End.IsEqual(other.End))
	return containsStart && containsEnd
}

// IsIntersecting reports whether the ranges share more than a boundary.
func (r Range) IsIntersecting(other Range) bool {
	return r.Start.IsBefore(other.End) && r.End.IsAfter(other.Start)
}

// Intersection returns the common part of both ranges, or false when they do
// not intersect.
func (r Range) Intersection(other Range) (Range, bool) {
	if !r.IsIntersecting(other) {
		return Range{}, false
	}
	start, end := r.Start, r.End
	if r.ContainsPosition(other.Start) {
		start = other.Start
	}
	if r.ContainsPosition(other.End) {
		end = other.End
	}
	return NewRange(start, end), true
}

// Difference returns the parts of r not covered by other: zero, one or two
// ranges.
func (r Range) Difference(other Range) []Range {
	if !r.IsIntersecting(other) {
		return []Range{r.Clone()}
	}
	var out []Range
	if r.ContainsPosition(other.Start) {
		out = append(out, NewRange(r.Start, other.Start))
	}
	if r.ContainsPosition(other.End) {
		out = append(out, NewRange(other.End, r.End))
	}
	return out
}

// TransformedByInsertion returns the range updated for howMany offsets
// inserted at insertPosition. With spread set, an insertion strictly inside
// the range splits it in two around the inserted content.
func (r Range) TransformedByInsertion(insertPosition Position, howMany int, spread bool) []Range {
	if spread && r.ContainsPosition(insertPosition) {
		return []Range{
			NewRange(r.Start, insertPosition),
			NewRange(insertPosition.ShiftedBy(howMany), r.End.TransformedByInsertion(insertPosition, howMany)),
		}
	}
	out := NewRange(r.Start, r.End)
	out.Start = out.Start.TransformedByInsertion(insertPosition, howMany)
	out.End = out.End.TransformedByInsertion(insertPosition, howMany)
	return []Range{out}
}

// TransformedByDeletion returns the range updated for howMany offsets removed
// at deletePosition. The second result is false when the whole range was
// removed.
func (r Range) TransformedByDeletion(deletePosition Position, howMany int) (Range, bool) {
	start, okStart := r.Start.TransformedByDeletion(deletePosition, howMany)
	end, okEnd := r.End.TransformedByDeletion(deletePosition, howMany)
	if !okStart && !okEnd {
		return Range{}, false
	}
	if !okStart {
		start = deletePosition
	}
	if !okEnd {
		end = deletePosition
	}
	return NewRange(start, end), true
}

// TransformedByMove returns the range updated for howMany offsets moved from
// sourcePosition to targetPosition. Parts of the range that travel with the
// moved content are returned as separate ranges.
func (r Range) TransformedByMove(sourcePosition, targetPosition Position, howMany int, spread bool) []Range {
	if r.IsCollapsed() {
		p := r.Start.TransformedByMove(sourcePosition, targetPosition, howMany)
		return []Range{NewCollapsedRange(p)}
	}
	moveRange := RangeFromPositionAndShift(sourcePosition, howMany)
	insertPosition, ok := targetPosition.TransformedByDeletion(sourcePosition, howMany)
	if !ok {
		return []Range{r.Clone()}
	}
	if r.ContainsPosition(targetPosition) && !spread {
		if moveRange.ContainsPosition(r.Start) || moveRange.ContainsPosition(r.End) {
			start := r.Start.TransformedByMove(sourcePosition, targetPosition, howMany)
			end := r.End.TransformedByMove(sourcePosition, targetPosition, howMany)
			return []Range{NewRange(start, end)}
		}
	}

	differenceSet := r.Difference(moveRange)
	common, hasCommon := r.Intersection(moveRange)

	var result []Range
	var difference *Range
	switch len(differenceSet) {
	case 1:
		start, _ := differenceSet[0].Start.TransformedByDeletion(sourcePosition, howMany)
		end, _ := differenceSet[0].End.TransformedByDeletion(sourcePosition, howMany)
		d := NewRange(start, end)
		difference = &d
	case 2:
		end, _ := r.End.TransformedByDeletion(sourcePosition, howMany)
		d := NewRange(r.Start, end)
		difference = &d
	}
	if difference != nil {
		result = difference.TransformedByInsertion(insertPosition, howMany, hasCommon || spread)
	}
	if hasCommon {
		moved := NewRange(
			common.Start.Combined(moveRange.Start, insertPosition),
			common.End.Combined(moveRange.Start, insertPosition),
		)
		if len(result) == 2 {
			result = slices.Insert(result, 1, moved)
		} else {
			result = append(result, moved)
		}
	}
	return result
}

// JoinRanges glues ranges touching the first one into a single range. The
// first range is the reference: ranges adjacent to it, directly or through
// other adjacent ranges, extend it; the rest are dropped.
func JoinRanges(ranges []Range) Range {
	if len(ranges) == 1 {
		return ranges[0].Clone()
	}
	ref := ranges[0]
	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b Range) int {
		if a.Start.IsAfter(b.Start) {
			return 1
		}
		if a.Start.IsBefore(b.Start) {
			return -1
		}
		return 0
	})
	refIndex := 0
	for i := range sorted {
		if sorted[i].IsEqual(ref) {
			refIndex = i
			break
		}
	}
	start, end := ref.Start, ref.End
	for i := refIndex - 1; i >= 0; i-- {
		if !sorted[i].End.IsEqual(start) {
			break
		}
		start = sorted[i].Start
	}
	for i := refIndex + 1; i < len(sorted); i++ {
		if !sorted[i].Start.IsEqual(end) {
			break
		}
		end = sorted[i].End
	}
	return NewRange(start, end)
}

// MergeRanges returns the minimal set of ranges covering the input: ranges
// that overlap or touch are merged, and the result is sorted by document
// order, grouped by root name. The result never contains overlapping ranges.
func MergeRanges(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := slices.Clone(ranges)
	slices.SortStableFunc(sorted, func(a, b Range) int {
		if a.Root() != b.Root() {
			return cmp.Compare(rootName(a.Root()), rootName(b.Root()))
		}
		switch a.Start.Compare(b.Start) {
		case Before:
			return -1
		case After:
			return 1
		}
		return 0
	})
	out := []Range{sorted[0].Clone()}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Root() == last.Root() && !r.Start.IsAfter(last.End) {
			if r.End.IsAfter(last.End) {
				*last = NewRange(last.Start, r.End)
			}
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

func rootName(r *RootElement) string {
	if r == nil {
		return ""
	}
	return r.RootName()
}

// MinimalFlatRanges returns the smallest set of flat ranges covering r, in
// document order. Empty pieces are skipped.
func (r Range) MinimalFlatRanges() ([]Range, error) {
	rel, diffAt := ComparePaths(r.Start.Path, r.End.Path)
	if rel == PathSame {
		return nil, nil
	}
	var out []Range
	pos := r.Start.Clone()
	pos.Stickiness = StickToNone
	if rel == PathDiffer {
		for len(pos.Path) > diffAt+1 {
			parent, err := pos.Parent()
			if err != nil {
				return nil, err
			}
			if n := parent.MaxOffset() - pos.Offset(); n != 0 {
				out = append(out, RangeFromPositionAndShift(pos, n))
			}
			pos = pos.Up().ShiftedBy(1)
		}
	}
	for len(pos.Path) <= len(r.End.Path) {
		offset := r.End.Path[len(pos.Path)-1]
		if n := offset - pos.Offset(); n > 0 {
			out = append(out, RangeFromPositionAndShift(pos, n))
		}
		pos = pos.WithOffset(offset).Child(0)
	}
	return out, nil
}
