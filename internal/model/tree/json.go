package tree

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RootResolver finds roots by name when decoding serialized coordinates.
type RootResolver interface {
	Root(name string) *RootElement
}

// PositionJSON is the wire form of a position.
type PositionJSON struct {
	Root       string `json:"root"`
	Path       []int  `json:"path"`
	Stickiness string `json:"stickiness"`
}

// RangeJSON is the wire form of a range.
type RangeJSON struct {
	Start PositionJSON `json:"start"`
	End   PositionJSON `json:"end"`
}

// ToJSON converts p to its wire form.
func (p Position) ToJSON() PositionJSON {
	return PositionJSON{Root: rootName(p.Root), Path: clonePath(p.Path), Stickiness: p.Stickiness.String()}
}

// MarshalJSON implements json.Marshaler.
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToJSON())
}

// ToJSON converts r to its wire form.
func (r Range) ToJSON() RangeJSON {
	return RangeJSON{Start: r.Start.ToJSON(), End: r.End.ToJSON()}
}

// MarshalJSON implements json.Marshaler.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToJSON())
}

// Position decodes the wire form, resolving the root by name.
func (j PositionJSON) Position(roots RootResolver) (Position, error) {
	root := roots.Root(j.Root)
	if root == nil {
		return Position{}, fmt.Errorf("%w: %q", ErrUnknownRoot, j.Root)
	}
	if len(j.Path) == 0 {
		return Position{}, &PositionError{Root: j.Root, Reason: "empty path"}
	}
	for _, off := range j.Path {
		if off < 0 {
			return Position{}, &PositionError{Root: j.Root, Path: j.Path, Reason: "negative offset"}
		}
	}
	st, err := ParseStickiness(j.Stickiness)
	if err != nil {
		return Position{}, err
	}
	return Position{Root: root, Path: clonePath(j.Path), Stickiness: st}, nil
}

// Range decodes the wire form. Boundary stickiness is taken from the wire.
func (j RangeJSON) Range(roots RootResolver) (Range, error) {
	start, err := j.Start.Position(roots)
	if err != nil {
		return Range{}, err
	}
	end, err := j.End.Position(roots)
	if err != nil {
		return Range{}, err
	}
	if _, err := NewCheckedRange(start, end); err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// NodeJSON is the wire form of a node. Consecutive characters with equal
// attributes are stored as one text entry.
type NodeJSON struct {
	Name       string         `json:"name,omitempty"`
	Data       string         `json:"data,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Children   []NodeJSON     `json:"children,omitempty"`
}

// NodesToJSON converts nodes to their wire form.
func NodesToJSON(nodes []Node) []NodeJSON {
	out := make([]NodeJSON, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case *Text:
			if len(out) > 0 {
				last := &out[len(out)-1]
				if last.Name == "" && Attributes(last.Attributes).Equal(v.attrs) {
					last.Data += v.data
					continue
				}
			}
			out = append(out, NodeJSON{Data: v.data, Attributes: jsonAttrs(v.attrs)})
		case *Element:
			out = append(out, NodeJSON{
				Name:       v.name,
				Attributes: jsonAttrs(v.attrs),
				Children:   NodesToJSON(v.children),
			})
		}
	}
	return out
}

func jsonAttrs(a Attributes) map[string]any {
	if len(a) == 0 {
		return nil
	}
	return a.Clone()
}

// NodesFromJSON rebuilds detached nodes from their wire form.
func NodesFromJSON(items []NodeJSON) ([]Node, error) {
	var out []Node
	for _, item := range items {
		if item.Name == "" {
			if item.Data == "" {
				return nil, fmt.Errorf("%w: node has neither name nor data", ErrInvalidNode)
			}
			out = append(out, NodesFromText(item.Data, item.Attributes)...)
			continue
		}
		if strings.HasPrefix(item.Name, "$") {
			return nil, fmt.Errorf("%w: reserved element name %q", ErrInvalidNode, item.Name)
		}
		children, err := NodesFromJSON(item.Children)
		if err != nil {
			return nil, err
		}
		out = append(out, NewElement(item.Name, item.Attributes, children...))
	}
	return out, nil
}
