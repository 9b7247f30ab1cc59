package delta

import (
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/ot"
)

// Result holds both transformed delta sequences. Every input delta keeps its
// slot, even when all of its operations turned into no-ops.
type Result struct {
	A []*Delta
	B []*Delta
}

// Transform returns a rewritten so that it applies after b. When aIsStrong
// is false, b wins ties.
func Transform(a, b *Delta, aIsStrong bool) (*Delta, error) {
	if aIsStrong {
		res, err := TransformSets([]*Delta{a}, []*Delta{b}, ot.Options{})
		if err != nil {
			return nil, err
		}
		return res.A[0], nil
	}
	res, err := TransformSets([]*Delta{b}, []*Delta{a}, ot.Options{})
	if err != nil {
		return nil, err
	}
	return res.B[0], nil
}

// TransformSets transforms two delta sequences created against the same
// version. Operations are transformed with ot.TransformSets and put back into
// the delta they came from. Padding no-ops go to the last delta.
func TransformSets(a, b []*Delta, opts ot.Options) (Result, error) {
	opsA, ownerA := flatten(a)
	opsB, ownerB := flatten(b)
	res, err := ot.TransformSets(opsA, opsB, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{
		A: regroup(a, res.A, ownerA, res.OriginalOperations),
		B: regroup(b, res.B, ownerB, res.OriginalOperations),
	}, nil
}

func flatten(deltas []*Delta) ([]operation.Operation, map[operation.Operation]int) {
	owner := make(map[operation.Operation]int)
	var ops []operation.Operation
	for i, d := range deltas {
		for _, op := range d.Operations {
			owner[op] = i
			ops = append(ops, op)
		}
	}
	return ops, owner
}

func regroup(deltas []*Delta, ops []operation.Operation, owner map[operation.Operation]int,
	original map[operation.Operation]operation.Operation) []*Delta {
	out := make([]*Delta, len(deltas))
	for i, d := range deltas {
		out[i] = &Delta{Type: d.Type}
	}
	if len(out) == 0 {
		return out
	}
	last := len(out) - 1
	for _, op := range ops {
		idx := last
		if orig, ok := original[op]; ok {
			if i, ok := owner[orig]; ok {
				idx = i
			}
		}
		out[idx].Operations = append(out[idx].Operations, op)
	}
	return out
}
