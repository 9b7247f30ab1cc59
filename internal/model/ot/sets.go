package ot

import (
	"slices"

	"github.com/dshills/docmodel/internal/model/operation"
)

// Options configures TransformSets.
type Options struct {
	// UseContext enables relations recorded against undone operations.
	// It requires Undo.
	UseContext bool

	// PadWithNoOps appends no-ops so that both results advance the document
	// by the same number of versions.
	PadWithNoOps bool

	// UndoMode makes removals weak.
	UndoMode bool

	// Undo answers which operations were undone. May be nil.
	Undo UndoLog
}

// Result holds both transformed sequences.
type Result struct {
	// A is the first sequence transformed so it applies after the second.
	A []operation.Operation

	// B is the second sequence transformed so it applies after the first.
	B []operation.Operation

	// OriginalOperations maps every operation in A and B, transformed or
	// not, to the input operation it comes from.
	OriginalOperations map[operation.Operation]operation.Operation
}

// TransformSets transforms two sequences created against the same version
// against each other. Operations in a are strong. The input slices and
// operations are not modified.
//
// Base versions are restamped: A continues after the last operation of b
// and B continues after the last operation of a.
func TransformSets(a, b []operation.Operation, opts Options) (Result, error) {
	f := newContextFactory(opts.Undo, opts.UseContext, opts.UndoMode)
	opsA := f.cloneInputs(a)
	opsB := f.cloneInputs(b)

	if len(opsA) == 0 || len(opsB) == 0 {
		return Result{A: opsA, B: opsB, OriginalOperations: f.original}, nil
	}

	nextBaseVersionA := opsA[len(opsA)-1].BaseVersion() + 1
	nextBaseVersionB := opsB[len(opsB)-1].BaseVersion() + 1
	originalACount, originalBCount := len(opsA), len(opsB)

	// nextB holds, for each operation in opsA, the index in opsB it has to
	// be transformed by next.
	nextB := make(map[operation.Operation]int, len(opsA))
	for _, op := range opsA {
		nextB[op] = 0
	}

	for i := 0; i < len(opsA); {
		opA := opsA[i]
		indexB := nextB[opA]
		if indexB == len(opsB) {
			i++
			continue
		}
		opB := opsB[indexB]

		newA, err := Transform(opA, opB, f.context(opA, opB, true))
		if err != nil {
			return Result{}, err
		}
		newB, err := Transform(opB, opA, f.context(opB, opA, false))
		if err != nil {
			return Result{}, err
		}
		f.updateRelation(opA, opB)
		f.setOriginal(newA, opA)
		f.setOriginal(newB, opB)

		for _, op := range newA {
			nextB[op] = indexB + len(newB)
		}
		opsA = slices.Replace(opsA, i, i+1, newA...)
		opsB = slices.Replace(opsB, indexB, indexB+1, newB...)
	}

	if opts.PadWithNoOps {
		brokenA := len(opsA) - originalACount
		brokenB := len(opsB) - originalBCount
		opsA = padWithNoOps(opsA, brokenB-brokenA)
		opsB = padWithNoOps(opsB, brokenA-brokenB)
	}

	restamp(opsA, nextBaseVersionB)
	restamp(opsB, nextBaseVersionA)
	return Result{A: opsA, B: opsB, OriginalOperations: f.original}, nil
}

// cloneInputs copies the input operations so that restamping never touches
// them, and maps each copy back to its input.
func (f *contextFactory) cloneInputs(ops []operation.Operation) []operation.Operation {
	out := make([]operation.Operation, len(ops))
	for i, op := range ops {
		out[i] = op.Clone()
		f.original[out[i]] = op
	}
	return out
}

func padWithNoOps(ops []operation.Operation, n int) []operation.Operation {
	for range n {
		ops = append(ops, operation.NewNoOp(0))
	}
	return ops
}

func restamp(ops []operation.Operation, baseVersion int) {
	for i, op := range ops {
		op.SetBaseVersion(baseVersion + i)
	}
}
