package tree

import (
	"fmt"
	"math"
	"slices"
)

// Stickiness decides how a position reacts to content inserted exactly at it.
type Stickiness int

const (
	// StickToNone moves the position together with inserted content.
	StickToNone Stickiness = iota
	// StickToNext keeps the position attached to the node after it.
	StickToNext
	// StickToPrevious keeps the position attached to the node before it.
	StickToPrevious
)

// String returns the serialized name of the stickiness.
func (s Stickiness) String() string {
	switch s {
	case StickToNext:
		return "toNext"
	case StickToPrevious:
		return "toPrevious"
	default:
		return "toNone"
	}
}

// ParseStickiness parses a serialized stickiness name.
func ParseStickiness(s string) (Stickiness, error) {
	switch s {
	case "", "toNone":
		return StickToNone, nil
	case "toNext":
		return StickToNext, nil
	case "toPrevious":
		return StickToPrevious, nil
	default:
		return StickToNone, fmt.Errorf("unknown stickiness %q", s)
	}
}

// Relation is the result of comparing two positions.
type Relation int

const (
	// Same means both positions address the same location.
	Same Relation = iota
	// Before means the position is before the other in document order.
	Before
	// After means the position is after the other in document order.
	After
	// Different means the positions are in different roots.
	Different
)

// String returns a readable relation name.
func (r Relation) String() string {
	switch r {
	case Same:
		return "same"
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "different"
	}
}

// PathRelation classifies how two paths relate.
type PathRelation int

const (
	// PathSame means the paths are equal.
	PathSame PathRelation = iota
	// PathPrefix means the first path is a proper prefix of the second.
	PathPrefix
	// PathExtension means the second path is a proper prefix of the first.
	PathExtension
	// PathDiffer means the paths diverge at some index.
	PathDiffer
)

// ComparePaths classifies a against b. For PathDiffer the index of the first
// differing element is returned as well.
func ComparePaths(a, b []int) (PathRelation, int) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return PathDiffer, i
		}
	}
	switch {
	case len(a) == len(b):
		return PathSame, -1
	case len(a) < len(b):
		return PathPrefix, len(a)
	default:
		return PathExtension, len(b)
	}
}

// FarOffset stands for "the end of the parent, whatever it is".
const FarOffset = math.MaxInt32

// Position is a location in the tree: a root plus a path of offsets.
type Position struct {
	Root       *RootElement
	Path       []int
	Stickiness Stickiness
}

// NewPosition creates a position. The path is copied.
func NewPosition(root *RootElement, path []int) Position {
	return Position{Root: root, Path: clonePath(path)}
}

// NewPositionAt creates a position at offset inside element.
func NewPositionAt(parent *Element, offset int) Position {
	path := append(parent.Path(), offset)
	return Position{Root: parent.Root(), Path: path}
}

// PositionBefore creates a position right before the node.
func PositionBefore(n Node) Position {
	return NewPositionAt(n.Parent(), n.Index())
}

// PositionAfter creates a position right after the node.
func PositionAfter(n Node) Position {
	return NewPositionAt(n.Parent(), n.Index()+1)
}

func clonePath(path []int) []int {
	return slices.Clone(path)
}

// Clone returns a copy that does not share the path slice.
func (p Position) Clone() Position {
	return Position{Root: p.Root, Path: clonePath(p.Path), Stickiness: p.Stickiness}
}

// WithStickiness returns a copy with the given stickiness.
func (p Position) WithStickiness(s Stickiness) Position {
	c := p.Clone()
	c.Stickiness = s
	return c
}

// Offset returns the last path element.
func (p Position) Offset() int {
	return p.Path[len(p.Path)-1]
}

// WithOffset returns a copy with the last path element replaced.
func (p Position) WithOffset(offset int) Position {
	c := p.Clone()
	c.Path[len(c.Path)-1] = offset
	return c
}

// ShiftedBy returns a copy moved by shift offsets, never below zero.
func (p Position) ShiftedBy(shift int) Position {
	return p.WithOffset(max(p.Offset()+shift, 0))
}

// ParentPath returns the path of the parent element.
func (p Position) ParentPath() []int {
	return clonePath(p.Path[:len(p.Path)-1])
}

// Child returns a position inside the node after p at the given offset.
func (p Position) Child(offset int) Position {
	path := append(clonePath(p.Path), offset)
	return Position{Root: p.Root, Path: path}
}

// Up returns the position before the parent element of p.
func (p Position) Up() Position {
	return Position{Root: p.Root, Path: p.ParentPath()}
}

// IsZero reports whether the position is unset.
func (p Position) IsZero() bool {
	return p.Root == nil && len(p.Path) == 0
}

// Compare returns the document-order relation of p to other.
func (p Position) Compare(other Position) Relation {
	if p.Root != other.Root {
		return Different
	}
	rel, i := ComparePaths(p.Path, other.Path)
	switch rel {
	case PathSame:
		return Same
	case PathPrefix:
		return Before
	case PathExtension:
		return After
	}
	if p.Path[i] < other.Path[i] {
		return Before
	}
	return After
}

// IsEqual reports whether both positions address the same location.
// Stickiness is ignored.
func (p Position) IsEqual(other Position) bool { return p.Compare(other) == Same }

// IsBefore reports whether p precedes other.
func (p Position) IsBefore(other Position) bool { return p.Compare(other) == Before }

// IsAfter reports whether p follows other.
func (p Position) IsAfter(other Position) bool { return p.Compare(other) == After }

// HasSameParentAs reports whether both positions are in the same element.
func (p Position) HasSameParentAs(other Position) bool {
	if p.Root != other.Root {
		return false
	}
	rel, _ := ComparePaths(p.Path[:len(p.Path)-1], other.Path[:len(other.Path)-1])
	return rel == PathSame
}

// Parent resolves the element containing the position.
func (p Position) Parent() (*Element, error) {
	if p.Root == nil {
		return nil, positionError(p, "no root")
	}
	if len(p.Path) == 0 {
		return nil, positionError(p, "empty path")
	}
	el := p.Root.AsElement()
	for _, idx := range p.Path[:len(p.Path)-1] {
		child, ok := el.Child(idx).(*Element)
		if !ok {
			return nil, positionError(p, "path does not lead through elements")
		}
		el = child
	}
	return el, nil
}

// Validate checks that the position addresses an existing location.
func (p Position) Validate() error {
	parent, err := p.Parent()
	if err != nil {
		return err
	}
	off := p.Offset()
	if off < 0 || off > parent.MaxOffset() {
		return positionError(p, fmt.Sprintf("offset %d outside 0..%d", off, parent.MaxOffset()))
	}
	return nil
}

// NodeAfter returns the node right after the position, or nil.
func (p Position) NodeAfter() Node {
	parent, err := p.Parent()
	if err != nil {
		return nil
	}
	return parent.Child(p.Offset())
}

// NodeBefore returns the node right before the position, or nil.
func (p Position) NodeBefore() Node {
	parent, err := p.Parent()
	if err != nil {
		return nil
	}
	return parent.Child(p.Offset() - 1)
}

// String returns a compact form such as main[0,3].
func (p Position) String() string {
	name := "?"
	if p.Root != nil {
		name = p.Root.RootName()
	}
	return fmt.Sprintf("%s%v", name, p.Path)
}

// TransformedByInsertion returns p updated for howMany offsets inserted at
// insertPosition.
func (p Position) TransformedByInsertion(insertPosition Position, howMany int) Position {
	t := p.Clone()
	if p.Root != insertPosition.Root {
		return t
	}
	rel, _ := ComparePaths(insertPosition.Path[:len(insertPosition.Path)-1], p.Path[:len(p.Path)-1])
	switch rel {
	case PathSame:
		if insertPosition.Offset() < p.Offset() ||
			(insertPosition.Offset() == p.Offset() && p.Stickiness != StickToPrevious) {
			t.Path[len(t.Path)-1] += howMany
		}
	case PathPrefix:
		i := len(insertPosition.Path) - 1
		if insertPosition.Offset() <= p.Path[i] {
			t.Path[i] += howMany
		}
	}
	return t
}

// TransformedByDeletion returns p updated for howMany offsets removed at
// deletePosition. The second result is false when p was inside the removed
// content.
func (p Position) TransformedByDeletion(deletePosition Position, howMany int) (Position, bool) {
	t := p.Clone()
	if p.Root != deletePosition.Root {
		return t, true
	}
	rel, _ := ComparePaths(deletePosition.Path[:len(deletePosition.Path)-1], p.Path[:len(p.Path)-1])
	switch rel {
	case PathSame:
		if deletePosition.Offset() < p.Offset() {
			if deletePosition.Offset()+howMany > p.Offset() {
				return Position{}, false
			}
			t.Path[len(t.Path)-1] -= howMany
		}
	case PathPrefix:
		i := len(deletePosition.Path) - 1
		if deletePosition.Offset() <= p.Path[i] {
			if deletePosition.Offset()+howMany > p.Path[i] {
				return Position{}, false
			}
			t.Path[i] -= howMany
		}
	}
	return t, true
}

// TransformedByMove returns p updated for howMany offsets moved from
// sourcePosition to targetPosition. Positions inside the moved content travel
// with it.
func (p Position) TransformedByMove(sourcePosition, targetPosition Position, howMany int) Position {
	target, ok := targetPosition.TransformedByDeletion(sourcePosition, howMany)
	if !ok {
		// Moving content into itself; nothing sensible to do.
		return p.Clone()
	}
	if sourcePosition.IsEqual(target) {
		return p.Clone()
	}
	transformed, kept := p.TransformedByDeletion(sourcePosition, howMany)
	moved := !kept ||
		(sourcePosition.IsEqual(p) && p.Stickiness == StickToNext) ||
		(sourcePosition.ShiftedBy(howMany).IsEqual(p) && p.Stickiness == StickToPrevious)
	if moved {
		return p.Combined(sourcePosition, target)
	}
	return transformed.TransformedByInsertion(target, howMany)
}

// Combined maps p, which lies inside content starting at source, onto the
// same relative location inside content starting at target.
func (p Position) Combined(source, target Position) Position {
	i := len(source.Path) - 1
	c := target.Clone()
	c.Stickiness = p.Stickiness
	c.Path[len(c.Path)-1] += p.Path[i] - source.Offset()
	c.Path = append(c.Path, p.Path[i+1:]...)
	return c
}
