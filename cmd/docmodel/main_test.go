package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/docmodel/internal/model"
	"github.com/dshills/docmodel/internal/model/devutil"
	"github.com/dshills/docmodel/internal/model/tree"
)

const fixture = "<paragraph>foo</paragraph>"

// recordOps edits a copy of the fixture and returns the operations as a
// JSON array.
func recordOps(t *testing.T, edit func(w *model.Writer, root *tree.RootElement) error) []byte {
	t.Helper()
	doc := model.New(model.WithRoots("main"))
	root := doc.Root("main")
	if err := devutil.Parse(root, fixture); err != nil {
		t.Fatalf("parse: %v", err)
	}
	batch, err := doc.Change(func(w *model.Writer) error { return edit(w, root) })
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	data, err := json.Marshal(batch.Operations())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestReplay(t *testing.T) {
	ops := recordOps(t, func(w *model.Writer, root *tree.RootElement) error {
		if err := w.InsertText(tree.NewPosition(root, []int{0, 3}), "bar", nil); err != nil {
			return err
		}
		return w.Split(tree.NewPosition(root, []int{0, 3}))
	})
	path := filepath.Join(t.TempDir(), "ops.json")
	if err := os.WriteFile(path, ops, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name: "from file",
			args: []string{"replay", "-data", fixture, "-ops", path, "-log-level", "error"},
			want: "main: <paragraph>foo</paragraph><paragraph>bar</paragraph>\n",
		},
		{
			name:  "from stdin",
			stdin: string(ops),
			args:  []string{"-data", fixture, "-ops", "-", "-log-level", "error", "-graveyard"},
			want:  "main: <paragraph>foo</paragraph><paragraph>bar</paragraph>\n$graveyard: \n",
		},
		{
			name: "without operations",
			args: []string{"replay", "-data", fixture, "-log-level", "error"},
			want: "main: " + fixture + "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.stdin, tt.args...)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, stderr)
			}
			if stdout != tt.want {
				t.Errorf("got %q, want %q", stdout, tt.want)
			}
		})
	}
}

func TestReplayConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "docmodel.yaml")
	if err := os.WriteFile(cfgPath, []byte("document:\n  roots: [title, body]\nlogging:\n  level: error\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, stdout, stderr := runCLI(t, "", "-c", cfgPath, "-root", "body", "-data", "<p>x</p>", "-save", "notes")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if want := "title: \nbody: <p>x</p>\n"; stdout != want {
		t.Errorf("got %q, want %q", stdout, want)
	}
}

func TestReplayErrors(t *testing.T) {
	stale := `[{"type":"rename","baseVersion":4,"position":{"root":"main","path":[0]},"oldName":"paragraph","newName":"h"}]`

	tests := []struct {
		name  string
		stdin string
		args  []string
		code  int
		msg   string
	}{
		{"exclusive sources", "", []string{"-ops", "x.json", "-doc", "d"}, 2, "mutually exclusive"},
		{"bad log level", "", []string{"-log-level", "loud"}, 2, "invalid log level"},
		{"extra arguments", "", []string{"replay", "file"}, 2, "unexpected arguments"},
		{"unknown root", "", []string{"-root", "nope", "-log-level", "error"}, 2, "unknown root"},
		{"bad markup", "", []string{"-data", "<p>", "-log-level", "error"}, 1, "parsing -data"},
		{"not an array", `{"type":"noop"}`, []string{"-ops", "-", "-log-level", "error"}, 1, "expected an array"},
		{"version mismatch", stale, []string{"-data", fixture, "-ops", "-", "-log-level", "error"}, 1, "version"},
		{"missing file", "", []string{"-ops", "does-not-exist.json", "-log-level", "error"}, 1, "reading operations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.stdin, tt.args...)
			if code != tt.code {
				t.Errorf("exit %d, want %d (%s)", code, tt.code, stderr)
			}
			if !strings.Contains(stderr, tt.msg) {
				t.Errorf("stderr %q does not mention %q", stderr, tt.msg)
			}
		})
	}
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "-version")
	if code != 0 || !strings.HasPrefix(stdout, "docmodel dev") {
		t.Errorf("exit %d, output %q", code, stdout)
	}
}
