package delta

import (
	"errors"
	"testing"

	"github.com/dshills/docmodel/internal/model/devutil"
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/ot"
	"github.com/dshills/docmodel/internal/model/tree"
)

type testDoc struct {
	root      *tree.RootElement
	graveyard *tree.RootElement
}

func newTestDoc(t *testing.T, markup string) *testDoc {
	t.Helper()
	root, err := devutil.NewRoot("main", markup)
	if err != nil {
		t.Fatalf("parse %q: %v", markup, err)
	}
	return &testDoc{root: root, graveyard: tree.NewGraveyard()}
}

func (d *testDoc) Root(name string) *tree.RootElement {
	switch name {
	case d.root.RootName():
		return d.root
	case d.graveyard.RootName():
		return d.graveyard
	}
	return nil
}

func (d *testDoc) SetMarker(string, tree.Range, bool) {}
func (d *testDoc) RemoveMarker(string)                {}

func (d *testDoc) pos(path ...int) tree.Position { return tree.NewPosition(d.root, path) }
func (d *testDoc) gy(path ...int) tree.Position  { return tree.NewPosition(d.graveyard, path) }

func (d *testDoc) apply(t *testing.T, delta *Delta) {
	t.Helper()
	for _, op := range delta.Operations {
		if err := op.Validate(); err != nil {
			t.Fatalf("validate %s: %v", op.Type(), err)
		}
		if err := op.Execute(d); err != nil {
			t.Fatalf("execute %s: %v", op.Type(), err)
		}
	}
}

func (d *testDoc) String() string { return devutil.Stringify(d.root.AsElement()) }

func wrapDelta(d *testDoc) *Delta {
	return New(TypeWrap,
		operation.NewInsert(d.pos(1), []tree.Node{tree.NewElement("blockquote", nil)}, 0),
		operation.NewMove(d.pos(0), 1, d.pos(1, 0), 1),
	)
}

func TestReversed(t *testing.T) {
	const markup = "<p>a</p><p>b</p>"
	d := newTestDoc(t, markup)
	wrap := wrapDelta(d)
	d.apply(t, wrap)
	if got, want := d.String(), "<blockquote><p>a</p></blockquote><p>b</p>"; got != want {
		t.Fatalf("after wrap: got %q, want %q", got, want)
	}

	unwrap := wrap.Reversed(d.graveyard)
	if unwrap.Type != TypeUnwrap {
		t.Errorf("expected type %s, got %s", TypeUnwrap, unwrap.Type)
	}
	if unwrap.Len() != 2 {
		t.Fatalf("expected 2 operations, got %d", unwrap.Len())
	}
	for i, op := range unwrap.Operations {
		if op.BaseVersion() != 2+i {
			t.Errorf("operation %d: expected base version %d, got %d", i, 2+i, op.BaseVersion())
		}
	}
	d.apply(t, unwrap)
	if got := d.String(); got != markup {
		t.Errorf("after reversal: got %q, want %q", got, markup)
	}
}

func TestBaseVersion(t *testing.T) {
	d := newTestDoc(t, "<p>a</p>")
	if v := New(TypeDefault).BaseVersion(); v != -1 {
		t.Errorf("expected -1 for empty delta, got %d", v)
	}
	delta := New(TypeRename, operation.NewRename(d.pos(0), "p", "h", 7))
	if v := delta.BaseVersion(); v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	d := newTestDoc(t, "<p>a</p><p>b</p>")
	wrap := wrapDelta(d)

	data, err := wrap.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := FromJSON(data, d)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type != TypeWrap || decoded.Len() != 2 {
		t.Fatalf("got %s with %d operations", decoded.Type, decoded.Len())
	}
	again, err := decoded.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if string(again) != string(data) {
		t.Errorf("round trip changed JSON:\n got %s\nwant %s", again, data)
	}

	list, err := ListFromJSON([]byte("["+string(data)+`,{"type":"delta","operations":[]}]`), d)
	if err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 2 || list[1].Len() != 0 {
		t.Errorf("unexpected list %v", list)
	}
}

func TestFromJSONErrors(t *testing.T) {
	d := newTestDoc(t, "")
	tests := []string{
		`{"type":"wrap"`,
		`{"operations":[]}`,
		`{"type":"wrap","operations":{}}`,
		`{"type":"wrap","operations":[{"type":"teleport"}]}`,
	}
	for _, data := range tests {
		if _, err := FromJSON([]byte(data), d); !errors.Is(err, operation.ErrInvalidOperation) {
			t.Errorf("%s: expected ErrInvalidOperation, got %v", data, err)
		}
	}
}

func TestTransformMarkerByMerge(t *testing.T) {
	d := newTestDoc(t, "<p>ab</p><p>cd</p>")
	oldRange := tree.NewCollapsedRange(d.pos(1, 0))
	newRange := tree.NewCollapsedRange(d.pos(1, 2))
	marker := New(TypeMarker, operation.NewMarker("name", &oldRange, &newRange, false, 0))
	merge := New(TypeMerge, operation.NewMerge(d.pos(1, 0), 2, d.pos(0, 2), d.gy(0), 0))

	got, err := Transform(marker, merge, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != TypeMarker || got.Len() != 1 {
		t.Fatalf("got %s with %d operations", got.Type, got.Len())
	}
	op := got.Operations[0].(*operation.Marker)
	if !op.OldRange.IsEqual(tree.NewCollapsedRange(d.pos(0, 2))) {
		t.Errorf("old range: got %s", op.OldRange)
	}
	if !op.NewRange.IsEqual(tree.NewCollapsedRange(d.pos(0, 4))) {
		t.Errorf("new range: got %s", op.NewRange)
	}
	if op.BaseVersion() != 1 {
		t.Errorf("expected base version 1, got %d", op.BaseVersion())
	}
}

func TestTransformSetsRegroups(t *testing.T) {
	d := newTestDoc(t, "<p>ab</p>")
	split := d.pos(0, 1)
	a := []*Delta{
		New(TypeInsert, operation.NewInsert(d.pos(0, 0), tree.NodesFromText("x", nil), 0)),
		New(TypeSplit, operation.NewSplit(split.ShiftedBy(1), 1, operation.SplitInsertionPosition(split), tree.Position{}, 1)),
	}
	b := []*Delta{
		New(TypeRename, operation.NewRename(d.pos(0), "p", "h", 0)),
	}

	res, err := TransformSets(a, b, ot.Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.A) != 2 || len(res.B) != 1 {
		t.Fatalf("expected 2/1 deltas, got %d/%d", len(res.A), len(res.B))
	}
	if res.A[0].Len() != 1 || res.A[1].Len() != 2 {
		t.Fatalf("expected A deltas of 1 and 2 operations, got %d and %d", res.A[0].Len(), res.A[1].Len())
	}
	if res.A[1].Operations[1].Kind() != operation.KindNoOp {
		t.Errorf("expected padding noop at the end of the last delta, got %s", res.A[1].Operations[1].Type())
	}
	if res.B[0].Len() != 2 {
		t.Fatalf("expected the rename to turn into 2 operations, got %d", res.B[0].Len())
	}
	for _, op := range res.B[0].Operations {
		if op.Kind() != operation.KindRename {
			t.Errorf("expected renames, got %s", op.Type())
		}
	}

	d1 := newTestDoc(t, "<p>ab</p>")
	d1.apply(t, New(TypeRename, operation.NewRename(d1.pos(0), "p", "h", 0)))
	for _, delta := range res.A {
		rebound := rebind(t, delta, d1)
		d1.apply(t, rebound)
	}
	if got, want := d1.String(), "<h>xa</h><h>b</h>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// rebind re-decodes delta against the roots of d.
func rebind(t *testing.T, delta *Delta, d *testDoc) *Delta {
	t.Helper()
	data, err := delta.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := FromJSON(data, d)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}
