// Package tree implements the abstract document tree and its coordinate system.
//
// The tree is made of elements and single-character text nodes hanging from
// named roots. Every child occupies exactly one offset in its parent, so a
// path of integer offsets addresses any location in the tree.
//
// # Positions
//
// A Position is a root plus a path. Positions are plain values: they carry no
// reference to the nodes they point at and are never updated in place. The
// stickiness of a position decides what happens when content is inserted at
// exactly that location:
//
//	StickToNone      shift with the inserted content (insert goes before)
//	StickToNext      shift, the position stays attached to the node after it
//	StickToPrevious  stay, the position stays attached to the node before it
//
// # Ranges
//
// A Range is an ordered pair of positions in the same root. Non-collapsed
// ranges stick inward so that content inserted at their boundaries stays
// outside of them.
//
// # Transformation primitives
//
// TransformedByInsertion, TransformedByDeletion, TransformedByMove and
// Combined are the arithmetic every higher level (operations, live ranges,
// operational transformation) is built from. They never mutate their inputs.
package tree
