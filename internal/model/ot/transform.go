package ot

import (
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

// rule transforms a, which it may modify, by b.
type rule func(a, b operation.Operation, ctx Context) []operation.Operation

var rules [operation.NumKinds][operation.NumKinds]rule

func setRule(a, b operation.Kind, r rule) {
	rules[a][b] = r
}

// typed adapts a rule written for concrete operation types.
func typed[A, B operation.Operation](f func(a A, b B, ctx Context) []operation.Operation) rule {
	return func(a, b operation.Operation, ctx Context) []operation.Operation {
		return f(a.(A), b.(B), ctx)
	}
}

func identity(a, _ operation.Operation, _ Context) []operation.Operation {
	return []operation.Operation{a}
}

func setIdentity(a operation.Kind, bs ...operation.Kind) {
	for _, b := range bs {
		setRule(a, b, identity)
	}
}

func init() {
	setRule(operation.KindAttribute, operation.KindAttribute, typed(attributeByAttribute))
	setRule(operation.KindAttribute, operation.KindInsert, typed(attributeByInsert))
	setRule(operation.KindAttribute, operation.KindMerge, typed(attributeByMerge))
	setRule(operation.KindAttribute, operation.KindMove, typed(attributeByMove))
	setRule(operation.KindAttribute, operation.KindSplit, typed(attributeBySplit))
	setIdentity(operation.KindAttribute,
		operation.KindRename, operation.KindMarker, operation.KindRootAttribute, operation.KindNoOp)

	setRule(operation.KindInsert, operation.KindAttribute, typed(insertByAttribute))
	setRule(operation.KindInsert, operation.KindInsert, typed(insertByInsert))
	setRule(operation.KindInsert, operation.KindMove, typed(insertByMove))
	setRule(operation.KindInsert, operation.KindSplit, typed(insertBySplit))
	setRule(operation.KindInsert, operation.KindMerge, typed(insertByMerge))
	setIdentity(operation.KindInsert,
		operation.KindRename, operation.KindMarker, operation.KindRootAttribute, operation.KindNoOp)

	setRule(operation.KindMarker, operation.KindInsert, typed(markerByInsert))
	setRule(operation.KindMarker, operation.KindMarker, typed(markerByMarker))
	setRule(operation.KindMarker, operation.KindMerge, typed(markerByMerge))
	setRule(operation.KindMarker, operation.KindMove, typed(markerByMove))
	setRule(operation.KindMarker, operation.KindSplit, typed(markerBySplit))
	setIdentity(operation.KindMarker,
		operation.KindAttribute, operation.KindRename, operation.KindRootAttribute, operation.KindNoOp)

	setRule(operation.KindMerge, operation.KindInsert, typed(mergeByInsert))
	setRule(operation.KindMerge, operation.KindMerge, typed(mergeByMerge))
	setRule(operation.KindMerge, operation.KindMove, typed(mergeByMove))
	setRule(operation.KindMerge, operation.KindSplit, typed(mergeBySplit))
	setIdentity(operation.KindMerge,
		operation.KindAttribute, operation.KindRename, operation.KindMarker, operation.KindRootAttribute, operation.KindNoOp)

	setRule(operation.KindMove, operation.KindInsert, typed(moveByInsert))
	setRule(operation.KindMove, operation.KindMove, typed(moveByMove))
	setRule(operation.KindMove, operation.KindSplit, typed(moveBySplit))
	setRule(operation.KindMove, operation.KindMerge, typed(moveByMerge))
	setIdentity(operation.KindMove,
		operation.KindAttribute, operation.KindRename, operation.KindMarker, operation.KindRootAttribute, operation.KindNoOp)

	setRule(operation.KindRename, operation.KindInsert, typed(renameByInsert))
	setRule(operation.KindRename, operation.KindMerge, typed(renameByMerge))
	setRule(operation.KindRename, operation.KindMove, typed(renameByMove))
	setRule(operation.KindRename, operation.KindRename, typed(renameByRename))
	setRule(operation.KindRename, operation.KindSplit, typed(renameBySplit))
	setIdentity(operation.KindRename,
		operation.KindAttribute, operation.KindMarker, operation.KindRootAttribute, operation.KindNoOp)

	setRule(operation.KindRootAttribute, operation.KindRootAttribute, typed(rootAttributeByRootAttribute))
	setIdentity(operation.KindRootAttribute,
		operation.KindInsert, operation.KindMove, operation.KindAttribute, operation.KindRename,
		operation.KindSplit, operation.KindMerge, operation.KindMarker, operation.KindNoOp)

	setRule(operation.KindSplit, operation.KindInsert, typed(splitByInsert))
	setRule(operation.KindSplit, operation.KindMerge, typed(splitByMerge))
	setRule(operation.KindSplit, operation.KindMove, typed(splitByMove))
	setRule(operation.KindSplit, operation.KindSplit, typed(splitBySplit))
	setIdentity(operation.KindSplit,
		operation.KindAttribute, operation.KindRename, operation.KindMarker, operation.KindRootAttribute, operation.KindNoOp)

	setIdentity(operation.KindNoOp, operation.Kinds()...)
}

func lookup(a, b operation.Kind) (rule, error) {
	if a < 0 || a >= operation.NumKinds || b < 0 || b >= operation.NumKinds || rules[a][b] == nil {
		return nil, &UnhandledPairError{A: a, B: b}
	}
	return rules[a][b], nil
}

// Transform returns a rewritten so that it applies after b. The input
// operations are not modified. The results carry consecutive base versions
// starting at the base version of a.
func Transform(a, b operation.Operation, ctx Context) ([]operation.Operation, error) {
	r, err := lookup(a.Kind(), b.Kind())
	if err != nil {
		return nil, err
	}
	var out []operation.Operation
	switch {
	case inPlaceMove(b):
		out = one(a.Clone())
	case inPlaceMove(a):
		out = noop()
	default:
		out = r(a.Clone(), b, ctx)
	}
	for i, op := range out {
		op.SetBaseVersion(a.BaseVersion() + i)
	}
	return out, nil
}

func one(op operation.Operation) []operation.Operation {
	return []operation.Operation{op}
}

func noop() []operation.Operation {
	return []operation.Operation{operation.NewNoOp(0)}
}

// inPlaceMove reports whether op is a move that leaves its nodes where they
// are. Such a move changes nothing, so it neither affects nor survives
// concurrent operations.
func inPlaceMove(op operation.Operation) bool {
	m, ok := op.(*operation.Move)
	if !ok || m.SourcePosition.Root != m.TargetPosition.Root {
		return false
	}
	return m.MovedRangeStart().IsEqual(m.SourcePosition)
}

// makeMoves turns ranges into moves to target. Each move shifts the ranges
// and the target that follow it.
func makeMoves(ranges []tree.Range, target tree.Position) []operation.Operation {
	ranges = append([]tree.Range(nil), ranges...)
	out := make([]operation.Operation, 0, len(ranges))
	for i, r := range ranges {
		op := operation.NewMove(r.Start, r.End.Offset()-r.Start.Offset(), target, 0)
		out = append(out, op)
		for j := i + 1; j < len(ranges); j++ {
			ranges[j] = ranges[j].TransformedByMove(op.SourcePosition, op.TargetPosition, op.HowMany, false)[0]
		}
		target = op.MovedRangeStart().ShiftedBy(op.HowMany)
	}
	return out
}
