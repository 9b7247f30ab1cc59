package collab

import (
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/docmodel/internal/model"
	"github.com/dshills/docmodel/internal/model/devutil"
	"github.com/dshills/docmodel/internal/model/operation"
)

// Client is one replica taking part in synchronisation.
type Client struct {
	ID          uuid.UUID
	Name        string
	OrderNumber int

	doc *model.Document
	sub model.Subscription

	mu     sync.Mutex
	synced int
	buffer []json.RawMessage
	err    error
	remote *model.Batch
}

func newClient(name string, order int, doc *model.Document) *Client {
	c := &Client{
		ID:          uuid.New(),
		Name:        name,
		OrderNumber: order,
		doc:         doc,
		synced:      doc.Version(),
	}
	c.sub = doc.Subscribe(model.SubscriberFunc(c.record), model.WithPriority(model.PriorityHigh))
	return c
}

// record buffers every operation that was not delivered by the hub.
func (c *Client) record(ev model.ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote != nil && ev.Batch == c.remote {
		return
	}
	data, err := json.Marshal(ev.Operation)
	if err != nil {
		c.err = err
		return
	}
	c.buffer = append(c.buffer, data)
}

// Document returns the client's replica.
func (c *Client) Document() *model.Document { return c.doc }

// SyncedVersion returns the document version at the end of the last sync.
func (c *Client) SyncedVersion() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.synced
}

// Pending returns the serialized local operations not yet synced, or the
// error that stopped buffering.
func (c *Client) Pending() ([]json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.buffer), c.err
}

// Change runs a local edit.
func (c *Client) Change(fn func(w *model.Writer) error) (*model.Batch, error) {
	return c.doc.Change(fn)
}

// Undo reverts a batch made by this client.
func (c *Client) Undo(batch *model.Batch) (*model.Batch, error) {
	return c.doc.Undo(batch)
}

// Data renders the named root as model markup.
func (c *Client) Data(rootName string) string {
	root := c.doc.Root(rootName)
	if root == nil {
		return ""
	}
	return devutil.Stringify(root.AsElement())
}

// localSince returns the operations applied since the last sync.
func (c *Client) localSince() []operation.Operation {
	return slices.Collect(c.doc.History().Operations(c.SyncedVersion()))
}

// applyRemote applies already transformed operations in a transparent batch.
func (c *Client) applyRemote(ops []operation.Operation) error {
	batch := model.NewBatch(model.BatchTransparent)
	c.mu.Lock()
	c.remote = batch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.remote = nil
		c.mu.Unlock()
	}()

	return c.doc.ChangeIn(batch, func(w *model.Writer) error {
		for _, op := range ops {
			if err := w.AddOperation(op); err != nil {
				return err
			}
		}
		return nil
	})
}

// finishRound marks everything applied so far as synced.
func (c *Client) finishRound() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.synced = c.doc.Version()
	c.buffer = nil
}

func (c *Client) close() {
	c.sub.Cancel()
}
