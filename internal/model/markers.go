package model

import (
	"maps"
	"slices"
	"sync"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Marker is a named range that follows the document.
type Marker struct {
	name        string
	live        *LiveRange
	managed     bool
	affectsData bool
}

// Name returns the marker name.
func (m *Marker) Name() string { return m.name }

// Range returns the current range. It fails with ErrDetached once the
// marker was removed.
func (m *Marker) Range() (tree.Range, error) { return m.live.Range() }

// ManagedUsingOperations reports whether the marker is changed by marker
// operations. Such markers are part of the history and are transformed
// during collaboration.
func (m *Marker) ManagedUsingOperations() bool { return m.managed }

// AffectsData reports whether changes of the marker count as data changes.
func (m *Marker) AffectsData() bool { return m.affectsData }

// MarkerUpdate describes a marker change. OldRange is nil for a new marker
// and NewRange is nil for a removed one.
type MarkerUpdate struct {
	Name     string
	OldRange *tree.Range
	NewRange *tree.Range
}

// MarkerCollection holds the markers of a document. It is the target of
// marker operations.
type MarkerCollection struct {
	doc      *Document
	mu       sync.Mutex
	markers  map[string]*Marker
	onUpdate []func(MarkerUpdate)
	pending  []MarkerUpdate
}

func newMarkerCollection(doc *Document) *MarkerCollection {
	return &MarkerCollection{doc: doc, markers: make(map[string]*Marker)}
}

// Get returns the marker with the given name.
func (c *MarkerCollection) Get(name string) (*Marker, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.markers[name]
	return m, ok
}

// Has reports whether a marker exists.
func (c *MarkerCollection) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Names returns the marker names in sorted order.
func (c *MarkerCollection) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.markers))
}

// OnUpdate registers fn for marker changes, including range changes caused
// by other operations.
func (c *MarkerCollection) OnUpdate(fn func(MarkerUpdate)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = append(c.onUpdate, fn)
}

// Set adds or updates a marker that is not managed using operations.
func (c *MarkerCollection) Set(name string, r tree.Range) *Marker {
	m := c.set(name, r, false, false)
	c.flush()
	return m
}

// Remove removes a marker. It reports whether the marker existed.
func (c *MarkerCollection) Remove(name string) bool {
	ok := c.remove(name)
	c.flush()
	return ok
}

// SetMarker is called by marker operations.
func (c *MarkerCollection) SetMarker(name string, r tree.Range, affectsData bool) {
	c.set(name, r, true, affectsData)
}

// RemoveMarker is called by marker operations.
func (c *MarkerCollection) RemoveMarker(name string) {
	c.remove(name)
}

func (c *MarkerCollection) set(name string, r tree.Range, managed, affectsData bool) *Marker {
	c.mu.Lock()
	defer c.mu.Unlock()

	nr := r.Clone()
	if m, ok := c.markers[name]; ok {
		old, _ := m.live.Range()
		m.live.set(r)
		m.managed = managed
		m.affectsData = affectsData
		c.pending = append(c.pending, MarkerUpdate{Name: name, OldRange: &old, NewRange: &nr})
		return m
	}

	m := &Marker{
		name:        name,
		live:        NewLiveRange(c.doc, r),
		managed:     managed,
		affectsData: affectsData,
	}
	m.live.OnChangeRange(func(old tree.Range, _ *tree.Position) {
		cur, err := m.live.Range()
		if err != nil {
			return
		}
		c.emit(MarkerUpdate{Name: name, OldRange: &old, NewRange: &cur})
	})
	c.markers[name] = m
	c.pending = append(c.pending, MarkerUpdate{Name: name, NewRange: &nr})
	return m
}

func (c *MarkerCollection) remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.markers[name]
	if !ok {
		return false
	}
	old, _ := m.live.Range()
	m.live.Detach()
	delete(c.markers, name)
	c.pending = append(c.pending, MarkerUpdate{Name: name, OldRange: &old})
	return true
}

// flush delivers the updates queued by set and remove.
func (c *MarkerCollection) flush() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, u := range pending {
		c.emit(u)
	}
}

func (c *MarkerCollection) emit(u MarkerUpdate) {
	c.mu.Lock()
	handlers := slices.Clone(c.onUpdate)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(u)
	}
}
