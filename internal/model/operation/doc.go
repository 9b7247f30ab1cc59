// Package operation defines the atomic, invertible and serializable changes
// that can be applied to a document tree.
//
// The set of operations is closed: Insert, Move (which reports itself as
// move, remove or reinsert depending on the roots involved), Attribute,
// Rename, Split, Merge, Marker, RootAttribute and NoOp. Every operation
// carries a base version, the document version it expects to be applied at.
//
// Operations are executed in two steps. Validate checks every precondition
// against the current tree without touching it; Execute then performs the
// change. A caller that validated first never sees a half-applied operation.
//
// Reversed returns the operation that undoes the receiver when applied right
// after it. Removed content is parked in the graveyard root, which is passed
// in explicitly so operations can be built and reversed without a document.
//
// TransformPosition and TransformRange compute where coordinates end up after
// an operation is applied. Live ranges, markers and the transformation
// engine all rely on these two functions.
package operation
