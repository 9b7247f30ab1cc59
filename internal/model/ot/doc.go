// Package ot implements operational transformation for model operations.
//
// Transform rewrites an operation a so that it can be applied after a
// concurrent operation b that was created against the same document version.
// For every pair of operations the rules guarantee convergence:
//
//	apply(b); apply(Transform(a, b, ctx))  ==  apply(a); apply(Transform(b, a, ctx'))
//
// where ctx and ctx' differ only in which side is strong.
//
// # Rule matrix
//
// Rules live in a matrix indexed by the kinds of both operations. Every cell
// is registered explicitly, identity included. A missing cell is a
// configuration error and Transform returns an *UnhandledPairError instead of
// guessing.
//
// # Context
//
// Ties are broken by Context:
//
//   - AIsStrong decides which side wins when both operations target the
//     exact same spot (same insertion position, same attribute, same marker).
//   - AWasUndone and BWasUndone relax the special handling of removals for
//     operations that were undone later.
//   - ABRelation and BARelation carry structural facts recorded while the
//     operations were transformed against an operation that is now being
//     undone. They are only filled in by TransformSets with UseContext set.
//   - UndoMode makes removals weak. Undo must win against edits it reverts.
//
// # Sets
//
// TransformSets transforms two sequences of operations against each other.
// One operation may turn into several, or into a no-op. With PadWithNoOps
// both output sequences are extended with no-ops so that applying either side
// advances the document by the same number of versions.
package ot
