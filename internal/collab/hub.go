package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/docmodel/internal/config"
	"github.com/dshills/docmodel/internal/logging"
	"github.com/dshills/docmodel/internal/model"
	"github.com/dshills/docmodel/internal/model/operation"
	"github.com/dshills/docmodel/internal/model/ot"
	"github.com/dshills/docmodel/internal/store"
)

// Hub connects clients editing the same document.
type Hub struct {
	mu      sync.Mutex
	clients []*Client

	transform config.TransformConfig
	document  config.DocumentConfig

	store store.Store
	docID string

	log *logging.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithTransform sets the options used to transform remote operations.
func WithTransform(cfg config.TransformConfig) HubOption {
	return func(h *Hub) {
		h.transform = cfg
	}
}

// WithDocument sets the roots and starting version of client documents.
func WithDocument(cfg config.DocumentConfig) HubOption {
	return func(h *Hub) {
		h.document = cfg
	}
}

// WithStore persists the converged operation log under docID.
func WithStore(s store.Store, docID string) HubOption {
	return func(h *Hub) {
		h.store = s
		h.docID = docID
	}
}

// WithLogger sets the hub logger.
func WithLogger(l *logging.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.log = l.WithComponent("collab")
		}
	}
}

// NewHub creates a hub with the default transform and document settings.
func NewHub(opts ...HubOption) *Hub {
	def := config.Default()
	h := &Hub{
		transform: def.Transform,
		document:  def.Document,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Join adds a client. Its document is created with the configured roots and
// version and then passed to setup, which must build the same content for
// every client.
func (h *Hub) Join(name string, setup func(doc *model.Document) error) (*Client, error) {
	doc := model.New(
		model.WithVersion(h.document.InitialVersion),
		model.WithRoots(h.document.Roots...),
		model.WithLogger(h.log.WithField("client", name)),
	)
	if setup != nil {
		if err := setup(doc); err != nil {
			return nil, fmt.Errorf("setting up client %s: %w", name, err)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	c := newClient(name, len(h.clients), doc)
	h.clients = append(h.clients, c)
	h.log.WithField("client", name).Debug("joined as %s", c.ID)
	return c, nil
}

// Clients returns the joined clients in join order.
func (h *Hub) Clients() []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.clients)
}

// Leave removes a client from future sync rounds.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i := slices.Index(h.clients, c); i >= 0 {
		h.clients = slices.Delete(h.clients, i, i+1)
		c.close()
	}
}

// Sync runs one round: every client receives the operations every other
// client made since the previous round. All clients end at the same version.
func (h *Hub) Sync(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	pending := make(map[*Client][]json.RawMessage, len(h.clients))
	for _, c := range h.clients {
		buf, err := c.Pending()
		if err != nil {
			return fmt.Errorf("client %s: %w", c.Name, err)
		}
		pending[c] = buf
	}

	for _, local := range h.clients {
		for _, remote := range h.clients {
			if remote == local || len(pending[remote]) == 0 {
				continue
			}
			if err := h.deliver(remote, local, pending[remote]); err != nil {
				return &SyncError{From: remote.Name, To: local.Name, Err: err}
			}
		}
	}

	version := -1
	for _, c := range h.clients {
		c.finishRound()
		v := c.SyncedVersion()
		if version >= 0 && v != version {
			return fmt.Errorf("%w: %s at %d, expected %d", ErrNotConverged, c.Name, v, version)
		}
		version = v
	}
	h.log.WithField("version", version).Info("sync round finished for %d clients", len(h.clients))

	return h.persist(ctx)
}

// deliver rebuilds remote's operations against local's document, transforms
// them against local's unsynced operations and applies them.
func (h *Hub) deliver(remote, local *Client, records []json.RawMessage) error {
	remoteOps := make([]operation.Operation, 0, len(records))
	for _, rec := range records {
		op, err := operation.FromJSON(rec, local.doc)
		if err != nil {
			return err
		}
		remoteOps = append(remoteOps, op)
	}
	localOps := local.localSince()

	opts := ot.Options{
		UseContext:   h.transform.UseContext,
		PadWithNoOps: h.transform.PadWithNoOps,
	}
	if opts.UseContext {
		opts.Undo = local.doc.History()
	}

	var transformed []operation.Operation
	if local.OrderNumber < remote.OrderNumber {
		res, err := ot.TransformSets(localOps, remoteOps, opts)
		if err != nil {
			return err
		}
		transformed = res.B
	} else {
		res, err := ot.TransformSets(remoteOps, localOps, opts)
		if err != nil {
			return err
		}
		transformed = res.A
	}
	if len(localOps) == 0 {
		restampFrom(transformed, local.doc.Version())
	}

	h.log.WithFields(map[string]any{"from": remote.Name, "to": local.Name}).
		Debug("applying %d remote operations over %d local", len(transformed), len(localOps))
	return local.applyRemote(transformed)
}

// restampFrom renumbers ops that TransformSets returned untouched.
func restampFrom(ops []operation.Operation, version int) {
	for i, op := range ops {
		op.SetBaseVersion(version + i)
	}
}

// persist appends the operations of the first client that the store does
// not hold yet. Log positions count from the document's initial version.
func (h *Hub) persist(ctx context.Context) error {
	if h.store == nil || len(h.clients) == 0 {
		return nil
	}
	logVersion, err := h.store.Version(ctx, h.docID)
	if err != nil {
		return err
	}
	canonical := h.clients[0]
	var records [][]byte
	for op := range canonical.doc.History().Operations(h.document.InitialVersion + logVersion) {
		data, err := json.Marshal(op)
		if err != nil {
			return err
		}
		data, err = store.Restamp(data, logVersion+len(records))
		if err != nil {
			return err
		}
		records = append(records, data)
	}
	if len(records) == 0 {
		return nil
	}
	if err := h.store.Append(ctx, h.docID, records...); err != nil {
		return fmt.Errorf("persisting %d operations: %w", len(records), err)
	}
	h.log.WithField("doc", h.docID).Debug("persisted %d operations", len(records))
	return nil
}
