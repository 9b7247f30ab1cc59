package model

import (
	"errors"
	"testing"

	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

type rangeRecorder struct {
	rangeChanges   []tree.Range
	deletions      []*tree.Position
	contentChanges []tree.Range
}

func record(lr *LiveRange) *rangeRecorder {
	rec := &rangeRecorder{}
	lr.OnChangeRange(func(old tree.Range, deletion *tree.Position) {
		rec.rangeChanges = append(rec.rangeChanges, old)
		rec.deletions = append(rec.deletions, deletion)
	})
	lr.OnChangeContent(func(r tree.Range) {
		rec.contentChanges = append(rec.contentChanges, r)
	})
	return rec
}

func currentRange(t *testing.T, lr *LiveRange) tree.Range {
	t.Helper()
	r, err := lr.Range()
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return r
}

// LiveRange Tests

func TestLiveRangeInsertion(t *testing.T) {
	tests := []struct {
		name          string
		offset        int
		start, end    int
		rangeEvents   int
		contentEvents int
	}{
		{"before the range", 1, 5, 8, 1, 0},
		{"inside the range", 3, 2, 8, 0, 1},
		{"at the end", 5, 2, 5, 0, 0},
		{"after the range", 6, 2, 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, root := newDoc(t, "<p>abcdef</p>")
			lr := NewLiveRange(doc, rng(root, []int{0, 2}, []int{0, 5}))
			defer lr.Detach()
			rec := record(lr)

			if _, err := doc.Change(func(w *Writer) error {
				return w.InsertText(pos(root, 0, tt.offset), "XYZ", nil)
			}); err != nil {
				t.Fatalf("insert: %v", err)
			}

			want := rng(root, []int{0, tt.start}, []int{0, tt.end})
			if got := currentRange(t, lr); !got.IsEqual(want) {
				t.Errorf("range: got %s, want %s", got, want)
			}
			if len(rec.rangeChanges) != tt.rangeEvents || len(rec.contentChanges) != tt.contentEvents {
				t.Fatalf("got %d range and %d content events, want %d and %d",
					len(rec.rangeChanges), len(rec.contentChanges), tt.rangeEvents, tt.contentEvents)
			}
			if tt.rangeEvents > 0 {
				old := rng(root, []int{0, 2}, []int{0, 5})
				if !rec.rangeChanges[0].IsEqual(old) {
					t.Errorf("old range: got %s, want %s", rec.rangeChanges[0], old)
				}
				if rec.deletions[0] != nil {
					t.Errorf("expected no deletion position, got %s", rec.deletions[0])
				}
			}
			if tt.contentEvents > 0 && !rec.contentChanges[0].IsEqual(want) {
				t.Errorf("content event range: got %s, want %s", rec.contentChanges[0], want)
			}
		})
	}
}

func TestLiveRangeSeesNestedChangesInOrder(t *testing.T) {
	doc, root := newDoc(t, "<p>abcdef</p>")
	lr := NewLiveRange(doc, rng(root, []int{0, 2}, []int{0, 4}))
	defer lr.Detach()

	doc.Subscribe(SubscriberFunc(func(ev ChangeEvent) {
		if ev.Version != 1 {
			return
		}
		op := operation.NewInsert(pos(root, 0, 3), tree.NodesFromText("Y", nil), 1)
		if err := doc.ApplyOperation(op); err != nil {
			t.Errorf("nested apply: %v", err)
		}
	}), WithPriority(PriorityHigh))

	op := operation.NewInsert(pos(root, 0, 0), tree.NodesFromText("X", nil), 0)
	if err := doc.ApplyOperation(op); err != nil {
		t.Fatalf("apply: %v", err)
	}

	expectMarkup(t, root, "<p>XabYcdef</p>")
	want := rng(root, []int{0, 4}, []int{0, 6})
	if got := currentRange(t, lr); !got.IsEqual(want) {
		t.Errorf("range: got %s, want %s", got, want)
	}
}

func TestLiveRangeUntouched(t *testing.T) {
	doc, root := newDoc(t, "<p>abcdef</p><p>x</p>")
	lr := NewLiveRange(doc, rng(root, []int{0, 2}, []int{0, 5}))
	rec := record(lr)

	if _, err := doc.Change(func(w *Writer) error {
		if err := w.InsertText(pos(root, 1, 0), "y", nil); err != nil {
			return err
		}
		return w.SetAttribute(rng(root, []int{1, 0}, []int{1, 2}), "bold", true)
	}); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got, want := currentRange(t, lr), rng(root, []int{0, 2}, []int{0, 5}); !got.IsEqual(want) {
		t.Errorf("got %s, want %s", got, want)
	}
	if len(rec.rangeChanges)+len(rec.contentChanges) != 0 {
		t.Errorf("expected no events, got %d range and %d content", len(rec.rangeChanges), len(rec.contentChanges))
	}
}

func TestLiveRangeRemovedToGraveyard(t *testing.T) {
	doc, root := newDoc(t, "<p>abcdef</p>")
	lr := NewLiveRange(doc, rng(root, []int{0, 2}, []int{0, 5}))
	rec := record(lr)

	if _, err := doc.Change(func(w *Writer) error {
		return w.Remove(rng(root, []int{0, 1}, []int{0, 6}))
	}); err != nil {
		t.Fatalf("remove: %v", err)
	}

	got := currentRange(t, lr)
	if !got.Root().IsGraveyard() {
		t.Fatalf("expected the range in the graveyard, got %s", got)
	}
	if len(rec.rangeChanges) != 1 {
		t.Fatalf("expected 1 range event, got %d", len(rec.rangeChanges))
	}
	deletion := rec.deletions[0]
	if deletion == nil {
		t.Fatal("expected a deletion position")
	}
	if !deletion.IsEqual(pos(root, 0, 1)) {
		t.Errorf("deletion position: got %s, want [0,1] in main", deletion)
	}
}

func TestLiveRangeFollowsMergedContent(t *testing.T) {
	doc, root := newDoc(t, "<p>ab</p><p>cd</p>")
	lr := NewLiveRange(doc, rng(root, []int{1, 0}, []int{1, 2}))
	rec := record(lr)

	if _, err := doc.Change(func(w *Writer) error { return w.Merge(pos(root, 1)) }); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if got, want := currentRange(t, lr), rng(root, []int{0, 2}, []int{0, 4}); !got.IsEqual(want) {
		t.Errorf("got %s, want %s", got, want)
	}
	if len(rec.rangeChanges) != 1 || rec.deletions[0] != nil {
		t.Errorf("expected one range event without deletion position, got %d", len(rec.rangeChanges))
	}
}

func TestLiveRangeDetach(t *testing.T) {
	doc, root := newDoc(t, "<p>abcdef</p>")
	before := doc.publisher.count()
	lr := NewLiveRange(doc, rng(root, []int{0, 2}, []int{0, 5}))
	rec := record(lr)
	if doc.publisher.count() != before+1 {
		t.Fatalf("expected a new subscription")
	}

	lr.Detach()
	lr.Detach()
	if !lr.IsDetached() {
		t.Error("expected detached")
	}
	if doc.publisher.count() != before {
		t.Errorf("expected the subscription to be released")
	}
	if _, err := lr.Range(); !errors.Is(err, ErrDetached) {
		t.Errorf("expected ErrDetached, got %v", err)
	}
	if _, err := doc.Change(func(w *Writer) error {
		return w.InsertText(pos(root, 0, 0), "x", nil)
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(rec.rangeChanges) != 0 {
		t.Error("detached range received an event")
	}
}

// LivePosition Tests

func TestLivePosition(t *testing.T) {
	tests := []struct {
		name       string
		stickiness tree.Stickiness
		offset     int
		want       int
		changed    bool
	}{
		{"insert before", tree.StickToNone, 1, 5, true},
		{"insert at, sticking to none", tree.StickToNone, 2, 5, true},
		{"insert at, sticking to previous", tree.StickToPrevious, 2, 2, false},
		{"insert after", tree.StickToNone, 3, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, root := newDoc(t, "<p>abcd</p>")
			lp := NewLivePosition(doc, pos(root, 0, 2).WithStickiness(tt.stickiness))
			defer lp.Detach()
			var olds []tree.Position
			lp.OnChange(func(old tree.Position) { olds = append(olds, old) })

			if _, err := doc.Change(func(w *Writer) error {
				return w.InsertText(pos(root, 0, tt.offset), "XYZ", nil)
			}); err != nil {
				t.Fatalf("insert: %v", err)
			}
			got, err := lp.Position()
			if err != nil {
				t.Fatalf("position: %v", err)
			}
			if got.Offset() != tt.want {
				t.Errorf("offset: got %d, want %d", got.Offset(), tt.want)
			}
			if got.Stickiness != tt.stickiness {
				t.Errorf("stickiness changed to %s", got.Stickiness)
			}
			if (len(olds) == 1) != tt.changed {
				t.Errorf("expected changed=%v, got %d events", tt.changed, len(olds))
			}
		})
	}
}

func TestLivePositionDetach(t *testing.T) {
	doc, root := newDoc(t, "<p>ab</p>")
	lp := NewLivePosition(doc, pos(root, 0, 1))
	lp.Detach()
	if _, err := lp.Position(); !errors.Is(err, ErrDetached) {
		t.Errorf("expected ErrDetached, got %v", err)
	}
}
