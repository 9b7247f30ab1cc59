package ot

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

const (
	editInsert    = "insert"
	editRemove    = "remove"
	editMove      = "move"
	editAttribute = "attribute"
	editSplit     = "split"
	editMerge     = "merge"
	editRename    = "rename"
)

var allEdits = []string{editInsert, editRemove, editMove, editAttribute, editSplit, editMerge, editRename}

// randomEdit describes an operation by paths so that it can be built against
// any copy of the same document.
type randomEdit struct {
	kind    string
	path    []int
	howMany int
	target  []int
	text    string
	element bool
	oldName string
	newName string
}

func (e randomEdit) String() string {
	return fmt.Sprintf("%s%v x%d -> %v %q %s/%s", e.kind, e.path, e.howMany, e.target, e.text, e.oldName, e.newName)
}

func (e randomEdit) build(d *testDoc, version int) operation.Operation {
	p := d.pos(e.path...)
	switch e.kind {
	case editInsert:
		if e.element {
			return operation.NewInsert(p, []tree.Node{tree.NewElement("p", nil, d.text("Z")...)}, version)
		}
		return operation.NewInsert(p, d.text(e.text), version)
	case editRemove:
		return operation.NewMove(p, e.howMany, d.gy(0), version)
	case editMove:
		return operation.NewMove(p, e.howMany, d.pos(e.target...), version)
	case editAttribute:
		return operation.NewAttribute(tree.NewRange(p, p.ShiftedBy(e.howMany)), "bold", nil, true, version)
	case editSplit:
		return operation.NewSplit(p, e.howMany, operation.SplitInsertionPosition(p), tree.Position{}, version)
	case editMerge:
		return operation.NewMerge(p, e.howMany, d.pos(e.target...), d.gy(0), version)
	case editRename:
		return operation.NewRename(p, e.oldName, e.newName, version)
	}
	panic("unknown edit " + e.kind)
}

func randomMarkup(r *rand.Rand) string {
	letters := func(n int) string {
		var b strings.Builder
		for range n {
			b.WriteByte("abcdef"[r.Intn(6)])
		}
		return b.String()
	}
	var b strings.Builder
	for range 2 + r.Intn(3) {
		if r.Float64() < 0.25 {
			b.WriteString("<quote>")
			for range 1 + r.Intn(2) {
				fmt.Fprintf(&b, "<p>%s</p>", letters(r.Intn(4)))
			}
			b.WriteString("</quote>")
			continue
		}
		name := []string{"p", "h"}[r.Intn(2)]
		fmt.Fprintf(&b, "<%s>%s</%s>", name, letters(r.Intn(5)), name)
	}
	return b.String()
}

type located struct {
	el   *tree.Element
	path []int
}

func elementsOf(e *tree.Element, path []int) []located {
	out := []located{{el: e, path: path}}
	for i, c := range e.Children() {
		if child, ok := c.(*tree.Element); ok {
			out = append(out, elementsOf(child, append(slices.Clone(path), i))...)
		}
	}
	return out
}

func randomEditIn(r *rand.Rand, d *testDoc, kinds []string) (randomEdit, bool) {
	els := elementsOf(d.root.AsElement(), nil)
	kind := kinds[r.Intn(len(kinds))]
	at := els[r.Intn(len(els))]
	n := at.el.MaxOffset()
	child := func(offset int) []int { return append(slices.Clone(at.path), offset) }

	switch kind {
	case editInsert:
		offset := r.Intn(n + 1)
		if at.el.Name() == "p" || at.el.Name() == "h" {
			return randomEdit{kind: kind, path: child(offset), text: "XY"[:1+r.Intn(2)]}, true
		}
		return randomEdit{kind: kind, path: child(offset), element: true}, true
	case editRemove, editMove, editAttribute:
		if n == 0 {
			return randomEdit{}, false
		}
		start := r.Intn(n)
		end := start + 1 + r.Intn(n-start)
		e := randomEdit{kind: kind, path: child(start), howMany: end - start}
		if kind == editMove {
			to := els[r.Intn(len(els))]
			e.target = append(slices.Clone(to.path), r.Intn(to.el.MaxOffset()+1))
		}
		return e, true
	case editSplit:
		if len(at.path) == 0 {
			return randomEdit{}, false
		}
		offset := r.Intn(n + 1)
		return randomEdit{kind: kind, path: child(offset), howMany: n - offset}, true
	case editMerge:
		last := len(at.path) - 1
		if last < 0 || at.path[last] == 0 {
			return randomEdit{}, false
		}
		prev, ok := at.el.Parent().Child(at.path[last] - 1).(*tree.Element)
		if !ok {
			return randomEdit{}, false
		}
		prevPath := slices.Clone(at.path)
		prevPath[last]--
		return randomEdit{kind: kind, path: child(0), howMany: n, target: append(prevPath, prev.MaxOffset())}, true
	case editRename:
		if len(at.path) == 0 {
			return randomEdit{}, false
		}
		newName := []string{"p", "h", "quote"}[r.Intn(3)]
		return randomEdit{kind: kind, path: slices.Clone(at.path), oldName: at.el.Name(), newName: newName}, true
	}
	return randomEdit{}, false
}

// applyEach validates and executes ops in order.
func applyEach(d *testDoc, ops []operation.Operation) error {
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			return err
		}
		if err := op.Execute(d); err != nil {
			return err
		}
	}
	return nil
}

func buildEdits(d *testDoc, edits []randomEdit) []operation.Operation {
	ops := make([]operation.Operation, len(edits))
	for i, e := range edits {
		ops[i] = e.build(d, i)
	}
	return ops
}

// randomEdits returns n edits that apply one after another to markup, or nil
// when no such sequence was found.
func randomEdits(t *testing.T, r *rand.Rand, markup string, n int, kinds []string) []randomEdit {
	t.Helper()
	var edits []randomEdit
	for tries := 0; len(edits) < n && tries < 200; tries++ {
		d := newTestDoc(t, markup)
		if err := applyEach(d, buildEdits(d, edits)); err != nil {
			t.Fatalf("replay %v on %q: %v", edits, markup, err)
		}
		e, ok := randomEditIn(r, d, kinds)
		if !ok {
			continue
		}
		if applyEach(d, []operation.Operation{e.build(d, len(edits))}) != nil {
			continue
		}
		edits = append(edits, e)
	}
	if len(edits) < n {
		return nil
	}
	return edits
}

// checkSetsConverge applies a then B' on one copy of markup and b then A' on
// another. Every transformed operation has to apply and both copies have to
// end up equal.
func checkSetsConverge(t *testing.T, markup string, editsA, editsB []randomEdit) {
	t.Helper()
	desc := fmt.Sprintf("%q a=%v b=%v", markup, editsA, editsB)

	d1 := newTestDoc(t, markup)
	a1, b1 := buildEdits(d1, editsA), buildEdits(d1, editsB)
	res1, err := TransformSets(a1, b1, Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("%s: transform: %v", desc, err)
	}
	if err := applyEach(d1, a1); err != nil {
		t.Fatalf("%s: a: %v", desc, err)
	}
	if err := applyEach(d1, res1.B); err != nil {
		t.Fatalf("%s: B' after a: %v", desc, err)
	}

	d2 := newTestDoc(t, markup)
	a2, b2 := buildEdits(d2, editsA), buildEdits(d2, editsB)
	res2, err := TransformSets(a2, b2, Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("%s: transform: %v", desc, err)
	}
	if err := applyEach(d2, b2); err != nil {
		t.Fatalf("%s: b: %v", desc, err)
	}
	if err := applyEach(d2, res2.A); err != nil {
		t.Fatalf("%s: A' after b: %v", desc, err)
	}

	if got1, got2 := d1.String(), d2.String(); got1 != got2 {
		t.Fatalf("%s: diverged: %q vs %q", desc, got1, got2)
	}
}

func TestTransformSetsConvergeRandomized(t *testing.T) {
	tests := []struct {
		name  string
		seed  int64
		runs  int
		size  int
		kinds []string
	}{
		{name: "single operations", seed: 1, runs: 1000, size: 1, kinds: allEdits},
		{
			name:  "three operations",
			seed:  2,
			runs:  400,
			size:  3,
			kinds: []string{editInsert, editRemove, editMove, editAttribute, editSplit, editRename},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := tt.runs
			if testing.Short() {
				runs /= 10
			}
			r := rand.New(rand.NewSource(tt.seed))
			for range runs {
				markup := randomMarkup(r)
				editsA := randomEdits(t, r, markup, tt.size, tt.kinds)
				editsB := randomEdits(t, r, markup, tt.size, tt.kinds)
				if editsA == nil || editsB == nil {
					continue
				}
				checkSetsConverge(t, markup, editsA, editsB)
			}
		})
	}
}
