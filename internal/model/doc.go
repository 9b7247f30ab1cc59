// Package model ties the document tree to the operation machinery.
//
// A Document owns named roots, a graveyard root for removed content, a
// version counter and the History of applied operations. Every change goes
// through ApplyOperation, which rejects operations whose base version is not
// the current version, validates and executes them, bumps the version,
// records the operation and then notifies subscribers synchronously.
//
// Writer builds deltas of operations for common edits (insert, remove, move,
// attributes, split, merge, wrap, markers) and applies them as one Batch.
// Document.Undo reverts a batch by transforming its reversal against the
// operations applied since.
//
// LiveRange, LivePosition and markers subscribe to applied operations at low
// priority and transform themselves so that they keep pointing at the same
// content. They must be detached or removed to stop listening.
package model
