// Package devutil converts model trees to and from a compact markup form used
// by tests and tools:
//
//	<paragraph>foo<$text bold="true">bar</$text></paragraph>
//
// Element tags map to elements. The pseudo tag $text wraps characters that
// carry attributes. Attribute values that parse as JSON scalars (true, 1.5,
// null) are decoded as such; anything else is kept as a string. Tag and
// attribute names are read case-insensitively and stored in lower case.
package devutil

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/html"

	"github.com/dshills/docmodel/internal/model/tree"
)

const (
	textTag = "$text"

	// The tokenizer only starts a tag on a letter, so $text is renamed
	// before tokenizing.
	tokenTextTag = "x-model-text"
)

var textTagReplacer = strings.NewReplacer("<"+textTag, "<"+tokenTextTag, "</"+textTag, "</"+tokenTextTag)

// ErrMarkup indicates markup that cannot be turned into a tree.
var ErrMarkup = errors.New("invalid model markup")

// Parse appends the nodes described by markup to the end of root.
func Parse(root *tree.RootElement, markup string) error {
	z := html.NewTokenizer(strings.NewReader(textTagReplacer.Replace(markup)))
	stack := []*tree.Element{root.AsElement()}
	var textAttrs []tree.Attributes

	appendNodes := func(nodes ...tree.Node) error {
		parent := stack[len(stack)-1]
		return tree.Insert(tree.NewPositionAt(parent, parent.MaxOffset()), nodes)
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				if len(stack) > 1 || len(textAttrs) > 0 {
					return fmt.Errorf("%w: unclosed tag", ErrMarkup)
				}
				return nil
			}
			return fmt.Errorf("%w: %w", ErrMarkup, z.Err())

		case html.TextToken:
			var attrs tree.Attributes
			if len(textAttrs) > 0 {
				attrs = textAttrs[len(textAttrs)-1]
			}
			if err := appendNodes(tree.NodesFromText(string(z.Text()), attrs)...); err != nil {
				return err
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			nameBytes, hasAttr := z.TagName()
			name := string(nameBytes)
			attrs := tree.Attributes{}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				attrs[string(key)] = decodeValue(string(val))
			}
			if name == tokenTextTag {
				if tt == html.StartTagToken {
					textAttrs = append(textAttrs, attrs)
				}
				continue
			}
			el := tree.NewElement(name, attrs)
			if err := appendNodes(el); err != nil {
				return err
			}
			if tt == html.StartTagToken {
				stack = append(stack, el)
			}

		case html.EndTagToken:
			nameBytes, _ := z.TagName()
			name := string(nameBytes)
			if name == tokenTextTag {
				if len(textAttrs) == 0 {
					return fmt.Errorf("%w: unexpected </%s>", ErrMarkup, textTag)
				}
				textAttrs = textAttrs[:len(textAttrs)-1]
				continue
			}
			top := stack[len(stack)-1]
			if len(stack) == 1 || top.Name() != name {
				return fmt.Errorf("%w: unexpected </%s>", ErrMarkup, name)
			}
			stack = stack[:len(stack)-1]
		}
	}
}

// NewRoot creates a root named name holding the nodes described by markup.
func NewRoot(name, markup string) (*tree.RootElement, error) {
	root := tree.NewRootElement(name)
	if err := Parse(root, markup); err != nil {
		return nil, err
	}
	return root, nil
}

// ParseNodes returns detached nodes described by markup.
func ParseNodes(markup string) ([]tree.Node, error) {
	root, err := NewRoot("$scratch", markup)
	if err != nil {
		return nil, err
	}
	return tree.Remove(tree.NewPosition(root, []int{0}), root.MaxOffset())
}

func decodeValue(v string) any {
	if v != "" && gjson.Valid(v) {
		switch parsed := gjson.Parse(v); parsed.Type {
		case gjson.True, gjson.False, gjson.Number, gjson.Null:
			return parsed.Value()
		}
	}
	return v
}

// Stringify renders the children of e.
func Stringify(e *tree.Element) string {
	var b strings.Builder
	writeNodes(&b, e.Children())
	return b.String()
}

// StringifyNodes renders a list of nodes.
func StringifyNodes(nodes []tree.Node) string {
	var b strings.Builder
	writeNodes(&b, nodes)
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []tree.Node) {
	for i := 0; i < len(nodes); {
		switch n := nodes[i].(type) {
		case *tree.Element:
			b.WriteString("<" + n.Name())
			writeAttrs(b, n.Attributes())
			b.WriteString(">")
			writeNodes(b, n.Children())
			b.WriteString("</" + n.Name() + ">")
			i++
		case *tree.Text:
			attrs := n.Attributes()
			var run strings.Builder
			for i < len(nodes) {
				t, ok := nodes[i].(*tree.Text)
				if !ok || !t.Attributes().Equal(attrs) {
					break
				}
				run.WriteString(t.Data())
				i++
			}
			text := html.EscapeString(run.String())
			if len(attrs) == 0 {
				b.WriteString(text)
				continue
			}
			b.WriteString("<" + textTag)
			writeAttrs(b, attrs)
			b.WriteString(">" + text + "</" + textTag + ">")
		}
	}
}

func writeAttrs(b *strings.Builder, attrs tree.Attributes) {
	for _, k := range attrs.Keys() {
		fmt.Fprintf(b, " %s=\"%s\"", k, html.EscapeString(formatValue(attrs[k])))
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
