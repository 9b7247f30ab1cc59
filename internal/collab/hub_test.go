package collab

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/docmodel/internal/config"
	"github.com/dshills/docmodel/internal/model"
	"github.com/dshills/docmodel/internal/model/devutil"
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
	"github.com/dshills/docmodel/internal/store"
)

func setup(markup string) func(doc *model.Document) error {
	return func(doc *model.Document) error {
		return devutil.Parse(doc.Root("main"), markup)
	}
}

func join(t *testing.T, h *Hub, markup string, names ...string) []*Client {
	t.Helper()
	var clients []*Client
	for _, name := range names {
		c, err := h.Join(name, setup(markup))
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		clients = append(clients, c)
	}
	return clients
}

func at(c *Client, path ...int) tree.Position {
	return tree.NewPosition(c.Document().Root("main"), path)
}

func insertText(t *testing.T, c *Client, text string, path ...int) *model.Batch {
	t.Helper()
	batch, err := c.Change(func(w *model.Writer) error {
		return w.InsertText(at(c, path...), text, nil)
	})
	if err != nil {
		t.Fatalf("%s: insert %q: %v", c.Name, text, err)
	}
	return batch
}

func syncRound(t *testing.T, h *Hub) {
	t.Helper()
	if err := h.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
}

func expectData(t *testing.T, want string, clients ...*Client) {
	t.Helper()
	version := clients[0].Document().Version()
	for _, c := range clients {
		if got := c.Data("main"); got != want {
			t.Errorf("%s: got %q, want %q", c.Name, got, want)
		}
		if v := c.Document().Version(); v != version {
			t.Errorf("%s: version %d, %s has %d", c.Name, v, clients[0].Name, version)
		}
	}
}

// Convergence Tests

func TestSyncConverges(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		john   func(t *testing.T, c *Client)
		kate   func(t *testing.T, c *Client)
		want   string
	}{
		{
			name:   "inserts at different offsets",
			markup: "<p>abc</p>",
			john:   func(t *testing.T, c *Client) { insertText(t, c, "X", 0, 1) },
			kate:   func(t *testing.T, c *Client) { insertText(t, c, "Y", 0, 2) },
			want:   "<p>aXbYc</p>",
		},
		{
			name:   "inserts at the same offset",
			markup: "<p>abc</p>",
			john:   func(t *testing.T, c *Client) { insertText(t, c, "X", 0, 1) },
			kate:   func(t *testing.T, c *Client) { insertText(t, c, "Y", 0, 1) },
			want:   "<p>aXYbc</p>",
		},
		{
			name:   "attribute over a concurrent insert",
			markup: "<p>abc</p>",
			john: func(t *testing.T, c *Client) {
				if _, err := c.Change(func(w *model.Writer) error {
					r := tree.NewRange(at(c, 0, 0), at(c, 0, 3))
					return w.SetAttribute(r, "bold", true)
				}); err != nil {
					t.Fatalf("set attribute: %v", err)
				}
			},
			kate: func(t *testing.T, c *Client) { insertText(t, c, "X", 0, 1) },
			want: `<p><$text bold="true">a</$text>X<$text bold="true">bc</$text></p>`,
		},
		{
			name:   "rename and insert",
			markup: "<p>ab</p>",
			john: func(t *testing.T, c *Client) {
				if _, err := c.Change(func(w *model.Writer) error {
					return w.Rename(c.Document().Root("main").Child(0).(*tree.Element), "h")
				}); err != nil {
					t.Fatalf("rename: %v", err)
				}
			},
			kate: func(t *testing.T, c *Client) { insertText(t, c, "c", 0, 2) },
			want: "<h>abc</h>",
		},
		{
			name:   "only one side edits",
			markup: "<p>ab</p>",
			john:   func(*testing.T, *Client) {},
			kate:   func(t *testing.T, c *Client) { insertText(t, c, "Z", 0, 0) },
			want:   "<p>Zab</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub()
			clients := join(t, h, tt.markup, "john", "kate")
			tt.john(t, clients[0])
			tt.kate(t, clients[1])
			syncRound(t, h)
			expectData(t, tt.want, clients...)
		})
	}
}

func TestSyncThreeClients(t *testing.T) {
	h := NewHub()
	clients := join(t, h, "<p>a</p><p>b</p><p>c</p>", "john", "kate", "mike")
	for i, c := range clients {
		insertText(t, c, "X", i, 1)
	}
	syncRound(t, h)
	expectData(t, "<p>aX</p><p>bX</p><p>cX</p>", clients...)
	for _, c := range clients {
		if c.SyncedVersion() != 3 {
			t.Errorf("%s: synced version %d, want 3", c.Name, c.SyncedVersion())
		}
	}
}

func TestSyncRounds(t *testing.T) {
	h := NewHub()
	clients := join(t, h, "<p>ab</p>", "john", "kate")
	john, kate := clients[0], clients[1]

	insertText(t, john, "1", 0, 0)
	syncRound(t, h)
	if pending, _ := kate.Pending(); len(pending) != 0 {
		t.Errorf("remote operations were buffered as local: %d", len(pending))
	}

	insertText(t, kate, "2", 0, 3)
	undone := insertText(t, john, "3", 0, 1)
	if _, err := john.Undo(undone); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if pending, err := john.Pending(); err != nil || len(pending) != 2 {
		t.Fatalf("expected the edit and its undo to be pending, got %d (%v)", len(pending), err)
	}
	syncRound(t, h)
	expectData(t, "<p>1ab2</p>", clients...)

	// Nothing to do.
	v := john.Document().Version()
	syncRound(t, h)
	if john.Document().Version() != v {
		t.Error("an empty round changed the document")
	}
}

func TestLeave(t *testing.T) {
	h := NewHub()
	clients := join(t, h, "<p>a</p>", "john", "kate")
	h.Leave(clients[1])
	if got := h.Clients(); len(got) != 1 || got[0] != clients[0] {
		t.Fatalf("unexpected clients %v", got)
	}
	insertText(t, clients[1], "x", 0, 0)
	syncRound(t, h)
	if got := clients[0].Data("main"); got != "<p>a</p>" {
		t.Errorf("left client's edit was delivered: %q", got)
	}
}

func TestJoinSetupError(t *testing.T) {
	h := NewHub()
	if _, err := h.Join("john", setup("<p>unclosed")); !errors.Is(err, devutil.ErrMarkup) {
		t.Errorf("expected ErrMarkup, got %v", err)
	}
	if len(h.Clients()) != 0 {
		t.Error("a failed join must not add a client")
	}
}

// Persistence Tests

func TestSyncPersistsLog(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	h := NewHub(
		WithStore(s, "doc"),
		WithDocument(config.DocumentConfig{InitialVersion: 5, Roots: []string{"main"}}),
	)
	clients := join(t, h, "<p>abc</p>", "john", "kate")
	insertText(t, clients[0], "X", 0, 1)
	insertText(t, clients[1], "Y", 0, 2)
	syncRound(t, h)

	insertText(t, clients[1], "Z", 0, 0)
	syncRound(t, h)
	expectData(t, "<p>ZaXbYc</p>", clients...)

	records, err := s.Load(ctx, "doc", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	replica := model.New(model.WithRoots("main"))
	if err := devutil.Parse(replica.Root("main"), "<p>abc</p>"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i, rec := range records {
		if v, _ := store.BaseVersion(rec); v != i {
			t.Errorf("record %d: base version %d", i, v)
		}
		op, err := operation.FromJSON(rec, replica)
		if err != nil {
			t.Fatalf("decode record %d: %v", i, err)
		}
		if err := replica.ApplyOperation(op); err != nil {
			t.Fatalf("apply record %d: %v", i, err)
		}
	}
	if got := devutil.Stringify(replica.Root("main").AsElement()); got != "<p>ZaXbYc</p>" {
		t.Errorf("replayed log: got %q", got)
	}
}
