package tree

import "fmt"

// The functions below are the only code paths that change the shape of the
// tree. Operations call them after validating their own preconditions.

// Insert places nodes at p. The nodes must be detached.
func Insert(p Position, nodes []Node) error {
	parent, err := p.Parent()
	if err != nil {
		return err
	}
	off := p.Offset()
	if off < 0 || off > parent.MaxOffset() {
		return positionError(p, "insertion offset out of bounds")
	}
	for _, n := range nodes {
		if n.Parent() != nil {
			return fmt.Errorf("%w: node is already attached", ErrInvalidPosition)
		}
	}
	parent.insertChildren(off, nodes)
	return nil
}

// Remove detaches howMany nodes starting at p and returns them.
func Remove(p Position, howMany int) ([]Node, error) {
	parent, err := p.Parent()
	if err != nil {
		return nil, err
	}
	off := p.Offset()
	if off < 0 || howMany < 0 || off+howMany > parent.MaxOffset() {
		return nil, positionError(p, fmt.Sprintf("cannot remove %d nodes", howMany))
	}
	return parent.removeChildren(off, howMany), nil
}

// Move relocates howMany nodes from source to target. The target is given in
// the coordinates of the tree before the move.
func Move(source Position, howMany int, target Position) error {
	adjusted, ok := target.TransformedByDeletion(source, howMany)
	if !ok {
		return positionError(target, "target is inside the moved content")
	}
	nodes, err := Remove(source, howMany)
	if err != nil {
		return err
	}
	return Insert(adjusted, nodes)
}

// SetAttribute sets key on every node of a flat range. A nil value removes
// the attribute.
func SetAttribute(r Range, key string, value any) error {
	if !r.IsFlat() {
		return fmt.Errorf("%w: attribute range %s is not flat", ErrInvalidRange, r)
	}
	parent, err := r.Start.Parent()
	if err != nil {
		return err
	}
	if r.End.Offset() > parent.MaxOffset() {
		return positionError(r.End, "range end out of bounds")
	}
	for i := r.Start.Offset(); i < r.End.Offset(); i++ {
		parent.Child(i).SetAttribute(key, value)
	}
	return nil
}

// NodesIn returns the nodes covered by a flat range.
func NodesIn(r Range) ([]Node, error) {
	if !r.IsFlat() {
		return nil, fmt.Errorf("%w: range %s is not flat", ErrInvalidRange, r)
	}
	parent, err := r.Start.Parent()
	if err != nil {
		return nil, err
	}
	if r.End.Offset() > parent.MaxOffset() {
		return nil, positionError(r.End, "range end out of bounds")
	}
	out := make([]Node, 0, r.End.Offset()-r.Start.Offset())
	for i := r.Start.Offset(); i < r.End.Offset(); i++ {
		out = append(out, parent.Child(i))
	}
	return out, nil
}
