package ot

import (
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/tree"
)

func renameByInsert(a *operation.Rename, b *operation.Insert, _ Context) []operation.Operation {
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}

func renameByMove(a *operation.Rename, b *operation.Move, _ Context) []operation.Operation {
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}

func renameByMerge(a *operation.Rename, b *operation.Merge, _ Context) []operation.Operation {
	// The renamed element was merged and now sits in the graveyard.
	if a.Position.IsEqual(b.DeletionPosition()) {
		a.Position = b.GraveyardPosition.WithStickiness(tree.StickToNext)
		return one(a)
	}
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}

func renameByRename(a, b *operation.Rename, ctx Context) []operation.Operation {
	if !a.Position.IsEqual(b.Position) {
		return one(a)
	}
	if !ctx.AIsStrong {
		return noop()
	}
	a.OldName = b.NewName
	return one(a)
}

func renameBySplit(a *operation.Rename, b *operation.Split, _ Context) []operation.Operation {
	// The renamed element was split: rename the new half as well.
	if rel, _ := tree.ComparePaths(a.Position.Path, b.SplitPosition.ParentPath()); rel == tree.PathSame &&
		a.Position.Root == b.SplitPosition.Root && !b.HasGraveyard() {
		extra := operation.NewRename(a.Position.ShiftedBy(1), a.OldName, a.NewName, 0)
		return []operation.Operation{a, extra}
	}
	a.Position = operation.TransformPosition(a.Position, b)
	return one(a)
}

func rootAttributeByRootAttribute(a, b *operation.RootAttribute, ctx Context) []operation.Operation {
	if a.Root != b.Root || a.Key != b.Key {
		return one(a)
	}
	if !ctx.AIsStrong || tree.ValuesEqual(a.NewValue, b.NewValue) {
		return noop()
	}
	a.OldValue = b.NewValue
	return one(a)
}
