package operation

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/docmodel/internal/model/tree"
)

type decoder interface {
	decode(roots tree.RootResolver) (Operation, error)
}

// FromJSON rebuilds an operation from its serialized form. Roots are
// resolved by name.
func FromJSON(data []byte, roots tree.RootResolver) (Operation, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidOperation)
	}
	typ := gjson.GetBytes(data, "type").String()
	var target decoder
	switch typ {
	case "insert":
		target = &insertJSON{}
	case "move", "remove", "reinsert":
		target = &moveJSON{}
	case "attribute":
		target = &attributeJSON{}
	case "rename":
		target = &renameJSON{}
	case "split":
		target = &splitJSON{}
	case "merge":
		target = &mergeJSON{}
	case "marker":
		target = &markerJSON{}
	case "rootattribute":
		target = &rootAttributeJSON{}
	case "noop":
		target = &noOpJSON{}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidOperation, typ)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidOperation, typ, err)
	}
	op, err := target.decode(roots)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidOperation, typ, err)
	}
	return op, nil
}

// ListFromJSON rebuilds a JSON array of operations.
func ListFromJSON(data []byte, roots tree.RootResolver) ([]Operation, error) {
	list := gjson.ParseBytes(data)
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of operations", ErrInvalidOperation)
	}
	var ops []Operation
	var err error
	list.ForEach(func(_, item gjson.Result) bool {
		var op Operation
		op, err = FromJSON([]byte(item.Raw), roots)
		if err != nil {
			return false
		}
		ops = append(ops, op)
		return true
	})
	if err != nil {
		return nil, err
	}
	return ops, nil
}
