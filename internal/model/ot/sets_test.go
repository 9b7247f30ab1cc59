package ot

import (
	"testing"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

type fakeUndoLog struct {
	undone  map[operation.Operation]bool
	undoing map[operation.Operation]operation.Operation
}

func (l fakeUndoLog) IsUndoneOperation(op operation.Operation) bool { return l.undone[op] }

func (l fakeUndoLog) UndoneOperation(undoing operation.Operation) (operation.Operation, bool) {
	op, ok := l.undoing[undoing]
	return op, ok
}

func TestTransformSetsInsertVsRemove(t *testing.T) {
	d := newTestDoc(t, "<p>abc</p>")
	insert := operation.NewInsert(d.pos(0, 0), d.text("X"), 5)
	remove := operation.NewMove(d.pos(0, 0), 1, d.gy(0), 5)

	res, err := TransformSets([]operation.Operation{insert}, []operation.Operation{remove}, Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.A) != 1 || len(res.B) != 1 {
		t.Fatalf("expected 1/1 operations, got %d/%d", len(res.A), len(res.B))
	}

	mv := res.B[0].(*operation.Move)
	if mv.SourcePosition.Offset() != 1 || mv.HowMany != 1 {
		t.Errorf("expected remove of [1,2), got source %s howMany %d", mv.SourcePosition, mv.HowMany)
	}
	if res.A[0].BaseVersion() != 6 || res.B[0].BaseVersion() != 6 {
		t.Errorf("expected base versions 6/6, got %d/%d", res.A[0].BaseVersion(), res.B[0].BaseVersion())
	}
	if insert.BaseVersion() != 5 || remove.BaseVersion() != 5 || remove.SourcePosition.Offset() != 0 {
		t.Errorf("input operations were modified")
	}
	if res.OriginalOperations[res.B[0]] != remove {
		t.Errorf("expected transformed remove to map to its input")
	}
	if res.OriginalOperations[res.A[0]] != insert {
		t.Errorf("expected transformed insert to map to its input")
	}
}

func TestTransformSetsStrongSideWins(t *testing.T) {
	d := newTestDoc(t, "<p>a</p>")
	a := []operation.Operation{
		operation.NewRename(d.pos(0), "p", "a1", 0),
		operation.NewRename(d.pos(0), "a1", "a2", 1),
		operation.NewRename(d.pos(0), "a2", "c", 2),
	}
	b := []operation.Operation{
		operation.NewRename(d.pos(0), "p", "x", 0),
		operation.NewRename(d.pos(0), "x", "y", 1),
		operation.NewRename(d.pos(0), "y", "z", 2),
	}

	res, err := TransformSets(a, b, Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.A) != 3 || len(res.B) != 3 {
		t.Fatalf("expected 3/3 operations, got %d/%d", len(res.A), len(res.B))
	}
	for i, op := range res.B {
		if op.Kind() != operation.KindNoOp {
			t.Errorf("B[%d]: expected noop, got %s", i, op.Type())
		}
		if op.BaseVersion() != 3+i {
			t.Errorf("B[%d]: expected base version %d, got %d", i, 3+i, op.BaseVersion())
		}
	}
	for i, op := range res.A {
		if op.BaseVersion() != 3+i {
			t.Errorf("A[%d]: expected base version %d, got %d", i, 3+i, op.BaseVersion())
		}
	}
	if r := res.A[0].(*operation.Rename); r.OldName != "z" {
		t.Errorf("expected first rename from z, got %s", r.OldName)
	}

	d1 := newTestDoc(t, "<p>a</p>")
	d1.apply(t,
		operation.NewRename(d1.pos(0), "p", "x", 0),
		operation.NewRename(d1.pos(0), "x", "y", 1),
		operation.NewRename(d1.pos(0), "y", "z", 2),
	)
	for _, op := range res.A {
		r := op.(*operation.Rename)
		d1.apply(t, operation.NewRename(d1.pos(0), r.OldName, r.NewName, r.BaseVersion()))
	}
	if got, want := d1.String(), "<c>a</c>"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// Padding evens out the growth of the two sides: the rename in A turns into
// two renames, so B gets one noop. Neither side is cut back to its input
// length.
func TestTransformSetsPadding(t *testing.T) {
	build := func(d *testDoc) ([]operation.Operation, []operation.Operation) {
		split := d.pos(0, 1)
		return []operation.Operation{operation.NewRename(d.pos(0), "p", "h", 0)},
			[]operation.Operation{operation.NewSplit(split, 1, operation.SplitInsertionPosition(split), tree.Position{}, 0)}
	}

	tests := []struct {
		name  string
		pad   bool
		wantA int
		wantB int
	}{
		{name: "padded", pad: true, wantA: 2, wantB: 2},
		{name: "not padded", pad: false, wantA: 2, wantB: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDoc(t, "<p>ab</p>")
			a, b := build(d)
			res, err := TransformSets(a, b, Options{PadWithNoOps: tt.pad})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.A) != tt.wantA || len(res.B) != tt.wantB {
				t.Fatalf("expected %d/%d operations, got %d/%d", tt.wantA, tt.wantB, len(res.A), len(res.B))
			}
			if tt.pad && res.B[1].Kind() != operation.KindNoOp {
				t.Errorf("expected padding noop, got %s", res.B[1].Type())
			}
			for i, op := range res.B {
				if op.BaseVersion() != 1+i {
					t.Errorf("B[%d]: expected base version %d, got %d", i, 1+i, op.BaseVersion())
				}
			}
		})
	}
}

func TestTransformSetsPaddingConverges(t *testing.T) {
	d1 := newTestDoc(t, "<p>ab</p>")
	d2 := newTestDoc(t, "<p>ab</p>")

	makeOps := func(d *testDoc) ([]operation.Operation, []operation.Operation) {
		split := d.pos(0, 1)
		return []operation.Operation{operation.NewRename(d.pos(0), "p", "h", 0)},
			[]operation.Operation{operation.NewSplit(split, 1, operation.SplitInsertionPosition(split), tree.Position{}, 0)}
	}

	a1, b1 := makeOps(d1)
	res1, err := TransformSets(a1, b1, Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d1.apply(t, a1...)
	d1.apply(t, res1.B...)

	a2, b2 := makeOps(d2)
	res2, err := TransformSets(a2, b2, Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d2.apply(t, b2...)
	d2.apply(t, res2.A...)

	want := "<h>a</h><h>b</h>"
	if got := d1.String(); got != want {
		t.Errorf("a then B': got %q, want %q", got, want)
	}
	if got := d2.String(); got != want {
		t.Errorf("b then A': got %q, want %q", got, want)
	}
}

func TestTransformSetsEmpty(t *testing.T) {
	d := newTestDoc(t, "<p>ab</p>")
	b := []operation.Operation{operation.NewInsert(d.pos(0, 0), d.text("X"), 4)}

	res, err := TransformSets(nil, b, Options{PadWithNoOps: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.A) != 0 || len(res.B) != 1 {
		t.Fatalf("expected 0/1 operations, got %d/%d", len(res.A), len(res.B))
	}
	if res.B[0].BaseVersion() != 4 {
		t.Errorf("expected untouched base version 4, got %d", res.B[0].BaseVersion())
	}
	if res.B[0] == b[0] {
		t.Errorf("expected a copy of the input operation")
	}
}

func TestContextRelations(t *testing.T) {
	d := newTestDoc(t, "<p>abcdef</p>")
	a := operation.NewMove(d.pos(0, 0), 1, d.pos(0, 1), 0)
	b := operation.NewMove(d.pos(0, 3), 1, d.pos(0, 6), 0)
	undoing := operation.NewMove(d.pos(0, 5), 1, d.pos(0, 3), 1)

	log := fakeUndoLog{
		undone:  map[operation.Operation]bool{b: true},
		undoing: map[operation.Operation]operation.Operation{undoing: b},
	}
	f := newContextFactory(log, true, false)
	as := f.cloneInputs([]operation.Operation{a})
	bs := f.cloneInputs([]operation.Operation{b})
	us := f.cloneInputs([]operation.Operation{undoing})

	f.updateRelation(as[0], bs[0])

	ctx := f.context(as[0], us[0], true)
	if !ctx.ABRelation.Is(RelationInsertBefore) {
		t.Errorf("expected insertBefore, got %s", ctx.ABRelation.Kind)
	}
	if ctx.AWasUndone || ctx.BWasUndone {
		t.Errorf("expected no undone flags, got %+v", ctx)
	}

	ctx = f.context(bs[0], as[0], false)
	if !ctx.AWasUndone {
		t.Errorf("expected a to be reported as undone")
	}

	f = newContextFactory(log, false, false)
	as = f.cloneInputs([]operation.Operation{a})
	bs = f.cloneInputs([]operation.Operation{b})
	us = f.cloneInputs([]operation.Operation{undoing})
	f.updateRelation(as[0], bs[0])
	if ctx := f.context(as[0], us[0], true); !ctx.ABRelation.Is(RelationNone) {
		t.Errorf("expected no relation without context, got %s", ctx.ABRelation.Kind)
	}
}
