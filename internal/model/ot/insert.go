package ot

import "github.com/dshills/docmodel/internal/model/operation"

func insertByAttribute(a *operation.Insert, b *operation.Attribute, _ Context) []operation.Operation {
	out := one(a)
	if a.ShouldReceiveAttributes && a.Position.HasSameParentAs(b.Range.Start) && b.Range.ContainsPosition(a.Position) {
		if op := complementaryAttribute(a, b.Key, b.NewValue); op != nil {
			out = append(out, op)
		}
	}
	return out
}

func insertByInsert(a, b *operation.Insert, ctx Context) []operation.Operation {
	if a.Position.IsEqual(b.Position) && ctx.AIsStrong {
		return one(a)
	}
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}

func insertByMove(a *operation.Insert, b *operation.Move, _ Context) []operation.Operation {
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}

func insertBySplit(a *operation.Insert, b *operation.Split, _ Context) []operation.Operation {
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}

func insertByMerge(a *operation.Insert, b *operation.Merge, _ Context) []operation.Operation {
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}
