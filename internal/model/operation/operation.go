package operation

import (
	"encoding/json"
	"slices"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Kind identifies the variant of an operation.
type Kind int

// Operation kinds. NumKinds is the number of variants.
const (
	KindInsert Kind = iota
	KindMove
	KindAttribute
	KindRename
	KindSplit
	KindMerge
	KindMarker
	KindRootAttribute
	KindNoOp

	NumKinds
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "insert"
	case KindMove:
		return "move"
	case KindAttribute:
		return "attribute"
	case KindRename:
		return "rename"
	case KindSplit:
		return "split"
	case KindMerge:
		return "merge"
	case KindMarker:
		return "marker"
	case KindRootAttribute:
		return "rootattribute"
	case KindNoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// Kinds returns every operation kind.
func Kinds() []Kind {
	out := make([]Kind, 0, NumKinds)
	for k := KindInsert; k < NumKinds; k++ {
		out = append(out, k)
	}
	return out
}

// MarkerApplier receives marker changes made by marker operations.
type MarkerApplier interface {
	SetMarker(name string, r tree.Range, affectsData bool)
	RemoveMarker(name string)
}

// Operation is an atomic document change.
type Operation interface {
	json.Marshaler

	// Kind returns the operation variant.
	Kind() Kind

	// Type returns the serialized type tag. Move operations report move,
	// remove or reinsert depending on their roots.
	Type() string

	// BaseVersion returns the document version the operation expects.
	BaseVersion() int

	// SetBaseVersion changes the expected document version.
	SetBaseVersion(v int)

	// Validate checks every precondition against the current tree.
	Validate() error

	// Execute applies the change. Validate must have succeeded first.
	Execute(markers MarkerApplier) error

	// Reversed returns the operation undoing this one.
	Reversed(graveyard *tree.RootElement) Operation

	// Clone returns a deep copy.
	Clone() Operation

	isOperation()
}

type base struct {
	baseVersion int
}

func (b *base) BaseVersion() int     { return b.baseVersion }
func (b *base) SetBaseVersion(v int) { b.baseVersion = v }
func (*base) isOperation()           {}

func graveyardStart(graveyard *tree.RootElement) tree.Position {
	return tree.NewPosition(graveyard, []int{0})
}

// hasPathPrefix reports whether path starts with prefix.
func hasPathPrefix(path, prefix []int) bool {
	return len(path) >= len(prefix) && slices.Equal(path[:len(prefix)], prefix)
}

func cloneNodes(nodes []tree.Node) []tree.Node {
	out := make([]tree.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone(true)
	}
	return out
}

func cloneRange(r *tree.Range) *tree.Range {
	if r == nil {
		return nil
	}
	c := r.Clone()
	return &c
}
