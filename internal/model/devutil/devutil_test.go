package devutil

import (
	"errors"
	"testing"

	"github.com/dshills/docmodel/internal/model/tree"
)

func TestRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"<p>abc</p>",
		"<p>ab<$text bold=\"true\">cd</$text></p><p></p>",
		"<blockquote><p>x</p><p>y</p></blockquote>",
		"<p align=\"left\" level=\"2\">a</p>",
		"<p><$text bold=\"true\" italic=\"true\">ab</$text><$text bold=\"true\">c</$text></p>",
		"<p>a &amp; b</p>",
	}

	for _, markup := range tests {
		t.Run(markup, func(t *testing.T) {
			root, err := NewRoot("main", markup)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := Stringify(root.AsElement()); got != markup {
				t.Errorf("got %q, want %q", got, markup)
			}
		})
	}
}

func TestParseDecodesScalars(t *testing.T) {
	root, err := NewRoot("main", `<p a="true" b="1.5" c="text" d="7">x</p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := root.Child(0).(*tree.Element)

	want := map[string]any{"a": true, "b": 1.5, "c": "text", "d": 7.0}
	for k, v := range want {
		got, ok := p.Attribute(k)
		if !ok {
			t.Errorf("missing attribute %s", k)
			continue
		}
		if got != v {
			t.Errorf("%s: got %#v, want %#v", k, got, v)
		}
	}
}

func TestParseTextNodes(t *testing.T) {
	root, err := NewRoot("main", `<p>a<$text bold="true">bc</$text></p>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := root.Child(0).(*tree.Element)
	if p.ChildCount() != 3 {
		t.Fatalf("expected 3 characters, got %d", p.ChildCount())
	}
	if _, ok := p.Child(0).Attribute("bold"); ok {
		t.Errorf("expected plain first character")
	}
	for i := 1; i < 3; i++ {
		if v, _ := p.Child(i).Attribute("bold"); v != true {
			t.Errorf("character %d: expected bold, got %v", i, v)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"<p>abc",
		"<p>abc</h>",
		"abc</p>",
		"<p><$text bold=\"true\">a</p>",
		"</$text>",
	}

	for _, markup := range tests {
		t.Run(markup, func(t *testing.T) {
			_, err := NewRoot("main", markup)
			if !errors.Is(err, ErrMarkup) {
				t.Errorf("expected ErrMarkup, got %v", err)
			}
		})
	}
}

func TestParseNodes(t *testing.T) {
	nodes, err := ParseNodes("<p>a</p>bc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	for i, n := range nodes {
		if n.Parent() != nil {
			t.Errorf("node %d is still attached", i)
		}
	}
	if got, want := StringifyNodes(nodes), "<p>a</p>bc"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
