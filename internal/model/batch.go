package model

import (
	"github.com/google/uuid"

	"github.com/dshills/docmodel/internal/model/delta"
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

// BatchType tells undo whether a batch is a user step.
type BatchType string

const (
	// BatchDefault batches are registered as undo steps.
	BatchDefault BatchType = "default"

	// BatchTransparent batches are skipped by undo. Remote changes use them.
	BatchTransparent BatchType = "transparent"
)

// Batch groups the deltas produced by one logical action.
type Batch struct {
	ID     uuid.UUID
	Type   BatchType
	deltas []*delta.Delta
}

// NewBatch creates an empty batch.
func NewBatch(t BatchType) *Batch {
	if t == "" {
		t = BatchDefault
	}
	return &Batch{ID: uuid.New(), Type: t}
}

// AddDelta appends d and returns it.
func (b *Batch) AddDelta(d *delta.Delta) *delta.Delta {
	b.deltas = append(b.deltas, d)
	return d
}

// AddOperation appends op wrapped in a delta of its own.
func (b *Batch) AddOperation(op operation.Operation) *delta.Delta {
	return b.AddDelta(delta.New(delta.TypeDefault, op))
}

// Deltas returns the deltas in order.
func (b *Batch) Deltas() []*delta.Delta {
	out := make([]*delta.Delta, len(b.deltas))
	copy(out, b.deltas)
	return out
}

// Operations returns the operations of all deltas in order.
func (b *Batch) Operations() []operation.Operation {
	return delta.Flatten(b.deltas)
}

// BaseVersion returns the base version of the first operation, or -1 for a
// batch without operations.
func (b *Batch) BaseVersion() int {
	for _, d := range b.deltas {
		if d.Len() > 0 {
			return d.BaseVersion()
		}
	}
	return -1
}

// Reversed returns a batch that undoes b when applied right after it. Each
// delta is reversed and the deltas are put in reverse order. Base versions
// continue consecutively from the last operation of b.
func (b *Batch) Reversed(graveyard *tree.RootElement) *Batch {
	out := &Batch{ID: uuid.New(), Type: b.Type}
	next := -1
	for i := len(b.deltas) - 1; i >= 0 && next < 0; i-- {
		if n := b.deltas[i].Len(); n > 0 {
			next = b.deltas[i].Operations[n-1].BaseVersion() + 1
		}
	}
	for i := len(b.deltas) - 1; i >= 0; i-- {
		rev := b.deltas[i].Reversed(graveyard)
		for _, op := range rev.Operations {
			op.SetBaseVersion(next)
			next++
		}
		out.deltas = append(out.deltas, rev)
	}
	return out
}
