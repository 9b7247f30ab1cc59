// Package collab keeps replicas of a document converged.
//
// Each Client owns a model.Document. Local edits go through Client.Change
// and are buffered in serialized form. Hub.Sync delivers every client's
// buffer to every other client, where the operations are rebuilt against
// the receiving document, transformed against the receiver's own edits
// since the last sync and applied in a transparent batch:
//
//	hub := collab.NewHub(collab.WithTransform(cfg.Transform))
//	a, _ := hub.Join("a", setup)
//	b, _ := hub.Join("b", setup)
//	a.Change(func(w *model.Writer) error { ... })
//	b.Change(func(w *model.Writer) error { ... })
//	hub.Sync(ctx)
//
// Clients that joined earlier win ties: their operations are the strong
// side of the transformation.
package collab
