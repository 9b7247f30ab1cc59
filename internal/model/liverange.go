package model

import (
	"sync"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

// RangeChangeFunc is called when the boundaries of a live range moved. The
// deletion position is set when the range ended up in the graveyard because
// of a remove or a merge.
type RangeChangeFunc func(old tree.Range, deletionPosition *tree.Position)

// ContentChangeFunc is called when an operation changed the inside of a
// live range without moving its start.
type ContentChangeFunc func(r tree.Range)

// LiveRange is a range that follows the document as operations are applied.
// It stays subscribed until Detach is called.
type LiveRange struct {
	mu        sync.Mutex
	rng       tree.Range
	sub       Subscription
	detached  bool
	onRange   []RangeChangeFunc
	onContent []ContentChangeFunc
}

// NewLiveRange creates a live range bound to doc.
func NewLiveRange(doc *Document, r tree.Range) *LiveRange {
	lr := &LiveRange{rng: tree.NewRange(r.Start, r.End)}
	lr.sub = doc.Subscribe(SubscriberFunc(lr.handle), WithPriority(PriorityLow))
	return lr
}

// Range returns the current range.
func (lr *LiveRange) Range() (tree.Range, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.detached {
		return tree.Range{}, ErrDetached
	}
	return lr.rng.Clone(), nil
}

// OnChangeRange registers fn for boundary changes.
func (lr *LiveRange) OnChangeRange(fn RangeChangeFunc) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.onRange = append(lr.onRange, fn)
}

// OnChangeContent registers fn for content changes.
func (lr *LiveRange) OnChangeContent(fn ContentChangeFunc) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.onContent = append(lr.onContent, fn)
}

// Detach stops following the document. Later calls to Range fail with
// ErrDetached.
func (lr *LiveRange) Detach() {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.detached {
		return
	}
	lr.detached = true
	lr.sub.Cancel()
}

// IsDetached reports whether Detach was called.
func (lr *LiveRange) IsDetached() bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.detached
}

// set replaces the range without firing callbacks.
func (lr *LiveRange) set(r tree.Range) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.rng = tree.NewRange(r.Start, r.End)
}

func (lr *LiveRange) handle(ev ChangeEvent) {
	lr.mu.Lock()
	if lr.detached {
		lr.mu.Unlock()
		return
	}
	op := ev.Operation
	old := lr.rng
	result := tree.JoinRanges(operation.TransformRange(old, op))
	contentChanged := changesRangeContent(old, op)
	boundariesChanged := !result.Start.IsEqual(old.Start) ||
		(!result.End.IsEqual(old.End) && !contentChanged)

	var deletion *tree.Position
	if boundariesChanged && result.Root() != nil && result.Root().IsGraveyard() {
		deletion = deletionPosition(op)
	}
	lr.rng = result
	onRange := lr.onRange
	onContent := lr.onContent
	lr.mu.Unlock()

	switch {
	case boundariesChanged:
		for _, fn := range onRange {
			fn(old, deletion)
		}
	case contentChanged:
		for _, fn := range onContent {
			fn(result.Clone())
		}
	}
}

// changesRangeContent reports whether op touched the inside of r.
func changesRangeContent(r tree.Range, op operation.Operation) bool {
	switch o := op.(type) {
	case *operation.Insert:
		return r.ContainsPosition(o.Position)
	case *operation.Move:
		return r.ContainsPosition(o.SourcePosition) ||
			r.Start.IsEqual(o.SourcePosition) ||
			r.ContainsPosition(o.TargetPosition)
	case *operation.Merge:
		return r.ContainsPosition(o.SourcePosition) ||
			r.Start.IsEqual(o.SourcePosition) ||
			r.ContainsPosition(o.TargetPosition)
	case *operation.Split:
		return r.ContainsPosition(o.SplitPosition) || r.ContainsPosition(o.InsertionPosition)
	}
	return false
}

// deletionPosition returns where removed content used to be.
func deletionPosition(op operation.Operation) *tree.Position {
	switch o := op.(type) {
	case *operation.Move:
		if o.IsRemove() {
			p := o.SourcePosition.Clone()
			return &p
		}
	case *operation.Merge:
		p := o.DeletionPosition()
		return &p
	}
	return nil
}
