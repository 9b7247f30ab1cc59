package model

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/docmodel/internal/logging"
	"github.com/dshills/docmodel/internal/model/delta"
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/ot"
	"github.com/dshills/docmodel/internal/model/tree"
)

// Document owns the roots, the graveyard, the version counter and the
// history. ApplyOperation is the only way to change the tree.
//
// Application is serialized. Subscribers run synchronously on the calling
// goroutine after the tree, the version and the history were updated, and
// may apply further operations.
type Document struct {
	mu           sync.Mutex
	roots        map[string]*tree.RootElement
	rootNames    []string
	graveyard    *tree.RootElement
	version      int
	history      *History
	markers      *MarkerCollection
	publisher    *publisher
	log          *logging.Logger
	initialRoots []string
}

// New creates an empty document holding only the graveyard.
func New(opts ...Option) *Document {
	d := &Document{
		roots:     make(map[string]*tree.RootElement),
		graveyard: tree.NewGraveyard(),
		publisher: &publisher{},
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.history = newHistory(d.version)
	d.markers = newMarkerCollection(d)
	d.roots[d.graveyard.RootName()] = d.graveyard
	for _, name := range d.initialRoots {
		if _, err := d.CreateRoot(name); err != nil {
			d.log.Warn("skipping root %q: %v", name, err)
		}
	}
	return d
}

// CreateRoot adds an empty root.
func (d *Document) CreateRoot(name string) (*tree.RootElement, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.roots[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateRoot, name)
	}
	root := tree.NewRootElement(name)
	d.roots[name] = root
	d.rootNames = append(d.rootNames, name)
	return root, nil
}

// Root returns the root with the given name, including the graveyard, or
// nil. Document implements tree.RootResolver.
func (d *Document) Root(name string) *tree.RootElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.roots[name]
}

// RootNames returns the names of the non-graveyard roots in creation order.
func (d *Document) RootNames() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.rootNames)
}

// Graveyard returns the root that holds removed nodes.
func (d *Document) Graveyard() *tree.RootElement { return d.graveyard }

// Version returns the current version: the base version the next operation
// must carry.
func (d *Document) Version() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// History returns the operation log.
func (d *Document) History() *History { return d.history }

// Markers returns the marker collection.
func (d *Document) Markers() *MarkerCollection { return d.markers }

// Subscribe registers s for applied operations.
func (d *Document) Subscribe(s Subscriber, opts ...SubscriptionOption) Subscription {
	return d.publisher.subscribe(s, opts...)
}

// ApplyOperation applies op outside of any batch.
func (d *Document) ApplyOperation(op operation.Operation) error {
	return d.applyOperation(op, nil)
}

// applyOperation runs the gate and then notifies subscribers. Nothing is
// published for a rejected operation.
func (d *Document) applyOperation(op operation.Operation, batch *Batch) error {
	version, err := d.gate(op)
	if err != nil {
		d.log.Debug("rejected %s at %d: %v", op.Type(), op.BaseVersion(), err)
		return err
	}
	d.log.WithField("version", version).Debug("applied %s", op.Type())

	d.publisher.publish(ChangeEvent{Operation: op, Batch: batch, Version: version})
	d.markers.flush()
	return nil
}

func (d *Document) gate(op operation.Operation) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if op.BaseVersion() != d.version {
		return 0, &VersionMismatchError{Expected: d.version, Actual: op.BaseVersion(), Type: op.Type()}
	}
	if err := op.Validate(); err != nil {
		return 0, err
	}
	if err := op.Execute(d.markers); err != nil {
		return 0, err
	}
	d.version++
	d.history.addOperation(op)
	return d.version, nil
}

// Change runs fn with a writer bound to a new default batch.
func (d *Document) Change(fn func(w *Writer) error) (*Batch, error) {
	batch := NewBatch(BatchDefault)
	return batch, d.ChangeIn(batch, fn)
}

// ChangeIn runs fn with a writer bound to batch. Operations applied before
// an error stay applied.
func (d *Document) ChangeIn(batch *Batch, fn func(w *Writer) error) error {
	return fn(&Writer{doc: d, batch: batch})
}

// Undo reverts batch. Its deltas are reversed last to first, transformed
// against everything applied after them and applied in a new batch. Every
// applied operation is recorded in the history as undoing the operation it
// reverts.
func (d *Document) Undo(batch *Batch) (*Batch, error) {
	undoing := NewBatch(BatchDefault)
	deltas := batch.Deltas()
	for i := len(deltas) - 1; i >= 0; i-- {
		if deltas[i].Len() == 0 {
			continue
		}
		if err := d.undoDelta(deltas[i], undoing); err != nil {
			return undoing, err
		}
	}
	d.log.Debug("undid batch %s", batch.ID)
	return undoing, nil
}

func (d *Document) undoDelta(dl *delta.Delta, batch *Batch) error {
	n := dl.Len()
	rev := dl.Reversed(d.graveyard)
	reverts := make(map[operation.Operation]operation.Operation, n)
	for i, op := range rev.Operations {
		reverts[op] = dl.Operations[n-1-i]
	}

	last := dl.Operations[n-1].BaseVersion()
	later := slices.Collect(d.history.Operations(last + 1))
	res, err := ot.TransformSets(rev.Operations, later, ot.Options{
		UseContext: true,
		UndoMode:   true,
		Undo:       d.history,
	})
	if err != nil {
		return fmt.Errorf("undo %s delta: %w", dl.Type, err)
	}

	out := delta.New(rev.Type)
	defer func() {
		if out.Len() > 0 {
			batch.AddDelta(out)
		}
	}()
	for _, op := range res.A {
		if err := d.applyOperation(op, batch); err != nil {
			return fmt.Errorf("undo %s delta: %w", dl.Type, err)
		}
		out.AddOperation(op)
		if undone, ok := reverts[res.OriginalOperations[op]]; ok {
			d.history.SetOperationAsUndone(undone, op)
		}
	}
	return nil
}
