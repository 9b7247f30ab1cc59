package model

import (
	"sync"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

// LivePosition is a position that follows the document as operations are
// applied. Its stickiness decides which side of an insertion it stays on.
type LivePosition struct {
	mu       sync.Mutex
	pos      tree.Position
	sub      Subscription
	detached bool
	onChange []func(old tree.Position)
}

// NewLivePosition creates a live position bound to doc.
func NewLivePosition(doc *Document, p tree.Position) *LivePosition {
	lp := &LivePosition{pos: p.Clone()}
	lp.sub = doc.Subscribe(SubscriberFunc(lp.handle), WithPriority(PriorityLow))
	return lp
}

// Position returns the current position.
func (lp *LivePosition) Position() (tree.Position, error) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if lp.detached {
		return tree.Position{}, ErrDetached
	}
	return lp.pos.Clone(), nil
}

// OnChange registers fn, called with the previous position after a move.
func (lp *LivePosition) OnChange(fn func(old tree.Position)) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.onChange = append(lp.onChange, fn)
}

// Detach stops following the document.
func (lp *LivePosition) Detach() {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	if lp.detached {
		return
	}
	lp.detached = true
	lp.sub.Cancel()
}

func (lp *LivePosition) handle(ev ChangeEvent) {
	lp.mu.Lock()
	if lp.detached {
		lp.mu.Unlock()
		return
	}
	old := lp.pos
	lp.pos = operation.TransformPosition(old, ev.Operation)
	lp.pos.Stickiness = old.Stickiness
	changed := !lp.pos.IsEqual(old)
	onChange := lp.onChange
	lp.mu.Unlock()

	if changed {
		for _, fn := range onChange {
			fn(old)
		}
	}
}
