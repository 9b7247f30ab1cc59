package tree

import (
	"maps"
	"slices"
	"unicode/utf8"
)

// GraveyardName is the name of the root holding removed content.
const GraveyardName = "$graveyard"

// RootElementName is the element name given to every root.
const RootElementName = "$root"

// Attributes is a set of node attributes. A nil value never appears in the
// map; removing an attribute deletes its key.
type Attributes map[string]any

// Clone returns a copy of the attributes.
func (a Attributes) Clone() Attributes {
	if len(a) == 0 {
		return Attributes{}
	}
	return maps.Clone(a)
}

// Equal reports whether both sets hold the same keys and values.
func (a Attributes) Equal(other Attributes) bool {
	if len(a) != len(other) {
		return false
	}
	for k, v := range a {
		ov, ok := other[k]
		if !ok || !ValuesEqual(v, ov) {
			return false
		}
	}
	return true
}

// Keys returns the attribute keys in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ValuesEqual compares two attribute values. Values are JSON scalars; numbers
// are compared as float64 so that decoded and constructed values match.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// Node is a child of an element: either an *Element or a *Text.
type Node interface {
	// Parent returns the element containing the node, or nil when detached.
	Parent() *Element

	// Index returns the offset of the node in its parent, or -1 when detached.
	Index() int

	// Attributes returns a copy of the node attributes.
	Attributes() Attributes

	// Attribute returns the value of an attribute.
	Attribute(key string) (any, bool)

	// SetAttribute sets or, for a nil value, removes an attribute.
	SetAttribute(key string, value any)

	// Clone returns a detached copy of the node. Elements are copied with
	// their children when deep is true.
	Clone(deep bool) Node

	setParent(parent *Element)
}

type nodeBase struct {
	parent *Element
	attrs  Attributes
}

func (n *nodeBase) Parent() *Element { return n.parent }

func (n *nodeBase) Attributes() Attributes { return n.attrs.Clone() }

func (n *nodeBase) Attribute(key string) (any, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

func (n *nodeBase) SetAttribute(key string, value any) {
	if value == nil {
		delete(n.attrs, key)
		return
	}
	if n.attrs == nil {
		n.attrs = Attributes{}
	}
	n.attrs[key] = value
}

func (n *nodeBase) setParent(parent *Element) { n.parent = parent }

// Text is a single character with attributes.
type Text struct {
	nodeBase
	data string
}

// NewText creates a text node holding one character.
func NewText(ch rune, attrs Attributes) *Text {
	return &Text{nodeBase: nodeBase{attrs: attrs.Clone()}, data: string(ch)}
}

// NodesFromText splits s into one text node per character.
func NodesFromText(s string, attrs Attributes) []Node {
	nodes := make([]Node, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		nodes = append(nodes, NewText(r, attrs))
	}
	return nodes
}

// Data returns the character held by the node.
func (t *Text) Data() string { return t.data }

// Index returns the offset of the node in its parent.
func (t *Text) Index() int {
	if t.parent == nil {
		return -1
	}
	return t.parent.ChildIndex(t)
}

// Clone returns a detached copy of the text node.
func (t *Text) Clone(bool) Node {
	return &Text{nodeBase: nodeBase{attrs: t.attrs.Clone()}, data: t.data}
}

// Element is a named node with attributes and children.
type Element struct {
	nodeBase
	name     string
	children []Node
	root     *RootElement
}

// NewElement creates an element with the given children.
func NewElement(name string, attrs Attributes, children ...Node) *Element {
	e := &Element{nodeBase: nodeBase{attrs: attrs.Clone()}, name: name}
	e.insertChildren(0, children)
	return e
}

// Name returns the element name.
func (e *Element) Name() string { return e.name }

// SetName renames the element.
func (e *Element) SetName(name string) { e.name = name }

// Index returns the offset of the element in its parent.
func (e *Element) Index() int {
	if e.parent == nil {
		return -1
	}
	return e.parent.ChildIndex(e)
}

// ChildCount returns the number of children.
func (e *Element) ChildCount() int { return len(e.children) }

// MaxOffset returns the offset after the last child.
func (e *Element) MaxOffset() int { return len(e.children) }

// IsEmpty reports whether the element has no children.
func (e *Element) IsEmpty() bool { return len(e.children) == 0 }

// Child returns the child at index, or nil when out of range.
func (e *Element) Child(index int) Node {
	if index < 0 || index >= len(e.children) {
		return nil
	}
	return e.children[index]
}

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	return slices.Clone(e.children)
}

// ChildIndex returns the index of child, or -1.
func (e *Element) ChildIndex(child Node) int {
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

// Root returns the root the element is attached to, or nil.
func (e *Element) Root() *RootElement {
	cur := e
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur.root
}

// Path returns the offsets leading from the root to the element.
func (e *Element) Path() []int {
	var path []int
	for cur := e; cur.parent != nil; cur = cur.parent {
		path = append(path, cur.Index())
	}
	slices.Reverse(path)
	return path
}

// Clone returns a detached copy of the element.
func (e *Element) Clone(deep bool) Node {
	c := &Element{nodeBase: nodeBase{attrs: e.attrs.Clone()}, name: e.name}
	if deep {
		kids := make([]Node, len(e.children))
		for i, child := range e.children {
			kids[i] = child.Clone(true)
		}
		c.insertChildren(0, kids)
	}
	return c
}

func (e *Element) insertChildren(index int, nodes []Node) {
	for _, n := range nodes {
		n.setParent(e)
	}
	e.children = slices.Insert(e.children, index, nodes...)
}

func (e *Element) removeChildren(index, howMany int) []Node {
	removed := slices.Clone(e.children[index : index+howMany])
	e.children = slices.Delete(e.children, index, index+howMany)
	for _, n := range removed {
		n.setParent(nil)
	}
	return removed
}

// RootElement is a top-level element with a unique name.
type RootElement struct {
	Element
	rootName string
}

// NewRootElement creates an empty root.
func NewRootElement(rootName string) *RootElement {
	r := &RootElement{rootName: rootName}
	r.name = RootElementName
	r.attrs = Attributes{}
	r.Element.root = r
	return r
}

// NewGraveyard creates the root holding removed content.
func NewGraveyard() *RootElement {
	return NewRootElement(GraveyardName)
}

// RootName returns the unique root name.
func (r *RootElement) RootName() string { return r.rootName }

// IsGraveyard reports whether the root holds removed content.
func (r *RootElement) IsGraveyard() bool { return r.rootName == GraveyardName }

// AsElement returns the root as a plain element.
func (r *RootElement) AsElement() *Element { return &r.Element }
