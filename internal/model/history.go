package model

import (
	"iter"
	"sync"

	"github.com/dshills/docmodel/internal/model/operation"
)

// History is the append-only log of applied operations. The operation with
// base version v is stored at index v-start.
//
// History also records which operations were undone and by which operations,
// so that the transformation engine can resolve undo conflicts.
type History struct {
	mu      sync.RWMutex
	start   int
	ops     []operation.Operation
	undone  map[operation.Operation]operation.Operation
	undoing map[operation.Operation]operation.Operation
}

func newHistory(start int) *History {
	return &History{
		start:   start,
		undone:  make(map[operation.Operation]operation.Operation),
		undoing: make(map[operation.Operation]operation.Operation),
	}
}

func (h *History) addOperation(op operation.Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, op)
}

// Version returns the version following the last recorded operation.
func (h *History) Version() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.start + len(h.ops)
}

// Len returns the number of recorded operations.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.ops)
}

// Operations yields the operations with base version from or later.
func (h *History) Operations(from int) iter.Seq[operation.Operation] {
	return h.OperationsBetween(from, h.Version())
}

// OperationsBetween yields the operations with base versions in [from, to).
// The sequence is a snapshot taken when iteration starts.
func (h *History) OperationsBetween(from, to int) iter.Seq[operation.Operation] {
	return func(yield func(operation.Operation) bool) {
		h.mu.RLock()
		lo := max(from-h.start, 0)
		hi := min(to-h.start, len(h.ops))
		var snapshot []operation.Operation
		if lo < hi {
			snapshot = append(snapshot, h.ops[lo:hi]...)
		}
		h.mu.RUnlock()

		for _, op := range snapshot {
			if !yield(op) {
				return
			}
		}
	}
}

// Operation returns the operation with the given base version.
func (h *History) Operation(baseVersion int) (operation.Operation, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i := baseVersion - h.start
	if i < 0 || i >= len(h.ops) {
		return nil, false
	}
	return h.ops[i], true
}

// SetOperationAsUndone records that undoing reverts undone.
func (h *History) SetOperationAsUndone(undone, undoing operation.Operation) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undone[undone] = undoing
	h.undoing[undoing] = undone
}

// IsUndoneOperation reports whether op was undone.
func (h *History) IsUndoneOperation(op operation.Operation) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.undone[op]
	return ok
}

// IsUndoingOperation reports whether op was applied to undo another one.
func (h *History) IsUndoingOperation(op operation.Operation) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.undoing[op]
	return ok
}

// UndoneOperation returns the operation that undoing reverted.
func (h *History) UndoneOperation(undoing operation.Operation) (operation.Operation, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	op, ok := h.undoing[undoing]
	return op, ok
}
