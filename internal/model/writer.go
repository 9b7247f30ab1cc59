package model

import (
	"github.com/dshills/docmodel/internal/model/delta"
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

// Writer turns edits into deltas of operations and applies them to the
// document as part of one batch. Every operation is created against the
// version current at the time it is applied.
type Writer struct {
	doc   *Document
	batch *Batch
}

// Batch returns the batch the writer appends to.
func (w *Writer) Batch() *Batch { return w.batch }

// Document returns the document being changed.
func (w *Writer) Document() *Document { return w.doc }

// opBuilder creates the next operation of a delta for the given version. A
// nil operation is skipped.
type opBuilder func(version int) (operation.Operation, error)

func (w *Writer) applyDelta(t delta.Type, builders ...opBuilder) error {
	d := delta.New(t)
	defer func() {
		if d.Len() > 0 {
			w.batch.AddDelta(d)
		}
	}()
	for _, build := range builders {
		op, err := build(w.doc.Version())
		if err != nil {
			return err
		}
		if op == nil {
			continue
		}
		if err := w.doc.applyOperation(op, w.batch); err != nil {
			return err
		}
		d.AddOperation(op)
	}
	return nil
}

// Insert inserts detached nodes at p.
func (w *Writer) Insert(p tree.Position, nodes ...tree.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return w.applyDelta(delta.TypeInsert, func(v int) (operation.Operation, error) {
		return operation.NewInsert(p, nodes, v), nil
	})
}

// InsertText inserts one text node per character of s at p.
func (w *Writer) InsertText(p tree.Position, s string, attrs tree.Attributes) error {
	return w.Insert(p, tree.NodesFromText(s, attrs)...)
}

// InsertElement inserts a new element with the given children at p and
// returns the element attached to the document.
func (w *Writer) InsertElement(p tree.Position, name string, attrs tree.Attributes, children ...tree.Node) (*tree.Element, error) {
	at := NewLivePosition(w.doc, p.WithStickiness(tree.StickToPrevious))
	defer at.Detach()
	if err := w.Insert(p, tree.NewElement(name, attrs, children...)); err != nil {
		return nil, err
	}
	cur, err := at.Position()
	if err != nil {
		return nil, err
	}
	e, ok := cur.NodeAfter().(*tree.Element)
	if !ok || e.Name() != name {
		return nil, invalidEdit("inserted %s element is no longer at %s", name, cur)
	}
	return e, nil
}

// Remove moves the content of r to the graveyard. A range crossing element
// boundaries is removed as its minimal flat ranges, last to first.
func (w *Writer) Remove(r tree.Range) error {
	flat, err := r.MinimalFlatRanges()
	if err != nil {
		return err
	}
	builders := make([]opBuilder, 0, len(flat))
	for i := len(flat) - 1; i >= 0; i-- {
		fr := flat[i]
		builders = append(builders, func(v int) (operation.Operation, error) {
			howMany := fr.End.Offset() - fr.Start.Offset()
			return operation.NewMove(fr.Start, howMany, w.graveyardStart(), v), nil
		})
	}
	return w.applyDelta(delta.TypeRemove, builders...)
}

// RemoveNode moves n to the graveyard.
func (w *Writer) RemoveNode(n tree.Node) error {
	return w.Remove(tree.RangeOn(n))
}

// Move moves the content of a flat range to target.
func (w *Writer) Move(r tree.Range, target tree.Position) error {
	if !r.IsFlat() {
		return invalidEdit("cannot move non-flat range %s", r)
	}
	return w.applyDelta(delta.TypeMove, func(v int) (operation.Operation, error) {
		return operation.NewMove(r.Start, r.End.Offset()-r.Start.Offset(), target, v), nil
	})
}

// Rename changes the name of e. Renaming to the current name does nothing.
func (w *Writer) Rename(e *tree.Element, newName string) error {
	if e.Parent() == nil {
		return invalidEdit("cannot rename a detached element or a root")
	}
	if e.Name() == newName {
		return nil
	}
	return w.applyDelta(delta.TypeRename, func(v int) (operation.Operation, error) {
		return operation.NewRename(tree.PositionBefore(e), e.Name(), newName, v), nil
	})
}

// SetAttribute sets key to value on every node of r. Nodes are grouped into
// runs sharing the same old value; runs that already hold value are skipped.
// A nil value removes the attribute.
func (w *Writer) SetAttribute(r tree.Range, key string, value any) error {
	flat, err := r.MinimalFlatRanges()
	if err != nil {
		return err
	}
	var builders []opBuilder
	for _, fr := range flat {
		runs, err := attributeRuns(fr, key)
		if err != nil {
			return err
		}
		for _, run := range runs {
			if tree.ValuesEqual(run.old, value) {
				continue
			}
			builders = append(builders, func(v int) (operation.Operation, error) {
				return operation.NewAttribute(run.r, key, run.old, value, v), nil
			})
		}
	}
	return w.applyDelta(delta.TypeAttribute, builders...)
}

// RemoveAttribute removes key from every node of r.
func (w *Writer) RemoveAttribute(r tree.Range, key string) error {
	return w.SetAttribute(r, key, nil)
}

type attributeRun struct {
	r   tree.Range
	old any
}

func attributeRuns(r tree.Range, key string) ([]attributeRun, error) {
	nodes, err := tree.NodesIn(r)
	if err != nil {
		return nil, err
	}
	var runs []attributeRun
	start := r.Start.Offset()
	for i, n := range nodes {
		old, _ := n.Attribute(key)
		if len(runs) > 0 && tree.ValuesEqual(runs[len(runs)-1].old, old) {
			last := &runs[len(runs)-1]
			last.r = tree.NewRange(last.r.Start, last.r.End.ShiftedBy(1))
			continue
		}
		pos := r.Start.WithOffset(start + i)
		runs = append(runs, attributeRun{r: tree.RangeFromPositionAndShift(pos, 1), old: old})
	}
	return runs, nil
}

// SetRootAttribute sets key on a root element.
func (w *Writer) SetRootAttribute(root *tree.RootElement, key string, value any) error {
	old, _ := root.Attribute(key)
	if tree.ValuesEqual(old, value) {
		return nil
	}
	return w.applyDelta(delta.TypeRootAttribute, func(v int) (operation.Operation, error) {
		return operation.NewRootAttribute(root, key, old, value, v), nil
	})
}

// RemoveRootAttribute removes key from a root element.
func (w *Writer) RemoveRootAttribute(root *tree.RootElement, key string) error {
	return w.SetRootAttribute(root, key, nil)
}

// Split splits the element containing p. Nodes after p go to a copy of the
// element inserted right after it.
func (w *Writer) Split(p tree.Position) error {
	parent, err := p.Parent()
	if err != nil {
		return err
	}
	if parent.Parent() == nil {
		return invalidEdit("cannot split a root")
	}
	return w.applyDelta(delta.TypeSplit, func(v int) (operation.Operation, error) {
		howMany := parent.MaxOffset() - p.Offset()
		return operation.NewSplit(p, howMany, operation.SplitInsertionPosition(p), tree.Position{}, v), nil
	})
}

// Merge joins the elements before and after p. The content of the second
// element is appended to the first and the second goes to the graveyard.
func (w *Writer) Merge(p tree.Position) error {
	before, ok := p.NodeBefore().(*tree.Element)
	if !ok {
		return invalidEdit("no element before %s", p)
	}
	after, ok := p.NodeAfter().(*tree.Element)
	if !ok {
		return invalidEdit("no element after %s", p)
	}
	return w.applyDelta(delta.TypeMerge, func(v int) (operation.Operation, error) {
		source := tree.NewPositionAt(after, 0)
		target := tree.NewPositionAt(before, before.MaxOffset())
		return operation.NewMerge(source, after.MaxOffset(), target, w.graveyardStart(), v), nil
	})
}

// Wrap puts the content of a flat range inside element. The element must be
// empty and detached.
func (w *Writer) Wrap(r tree.Range, element *tree.Element) error {
	if !r.IsFlat() {
		return invalidEdit("cannot wrap non-flat range %s", r)
	}
	if element.Parent() != nil || !element.IsEmpty() {
		return invalidEdit("wrapping element must be empty and detached")
	}
	howMany := r.End.Offset() - r.Start.Offset()
	return w.applyDelta(delta.TypeWrap,
		func(v int) (operation.Operation, error) {
			return operation.NewInsert(r.End, []tree.Node{element}, v), nil
		},
		func(v int) (operation.Operation, error) {
			return operation.NewMove(r.Start, howMany, r.End.Child(0), v), nil
		},
	)
}

// Unwrap replaces element with its children.
func (w *Writer) Unwrap(element *tree.Element) error {
	if element.Parent() == nil {
		return invalidEdit("cannot unwrap a detached element or a root")
	}
	return w.applyDelta(delta.TypeUnwrap,
		func(v int) (operation.Operation, error) {
			if element.IsEmpty() {
				return nil, nil
			}
			return operation.NewMove(tree.NewPositionAt(element, 0), element.MaxOffset(), tree.PositionBefore(element), v), nil
		},
		func(v int) (operation.Operation, error) {
			return operation.NewMove(tree.PositionBefore(element), 1, w.graveyardStart(), v), nil
		},
	)
}

// SetMarker adds or updates a marker managed using operations.
func (w *Writer) SetMarker(name string, r tree.Range, affectsData bool) error {
	return w.applyDelta(delta.TypeMarker, func(v int) (operation.Operation, error) {
		var old *tree.Range
		if m, ok := w.doc.markers.Get(name); ok {
			if cur, err := m.Range(); err == nil {
				old = &cur
			}
		}
		nr := r.Clone()
		return operation.NewMarker(name, old, &nr, affectsData, v), nil
	})
}

// RemoveMarker removes a marker managed using operations.
func (w *Writer) RemoveMarker(name string) error {
	m, ok := w.doc.markers.Get(name)
	if !ok {
		return invalidEdit("no marker %q", name)
	}
	return w.applyDelta(delta.TypeMarker, func(v int) (operation.Operation, error) {
		cur, err := m.Range()
		if err != nil {
			return nil, err
		}
		return operation.NewMarker(name, &cur, nil, m.AffectsData(), v), nil
	})
}

// AddOperation applies op as it is, in a delta of its own. The caller sets
// the base version.
func (w *Writer) AddOperation(op operation.Operation) error {
	return w.applyDelta(delta.TypeDefault, func(int) (operation.Operation, error) {
		return op, nil
	})
}

func (w *Writer) graveyardStart() tree.Position {
	return tree.NewPosition(w.doc.graveyard, []int{0})
}
