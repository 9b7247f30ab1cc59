package model

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/docmodel/internal/model/operation"
)

// Priority orders subscribers. Lower values run first.
type Priority int

const (
	// PriorityHigh runs before the default subscribers.
	PriorityHigh Priority = 100

	// PriorityNormal is the default.
	PriorityNormal Priority = 200

	// PriorityLow runs last. Live ranges, live positions and markers use it
	// so that they see the tree after every other subscriber reacted.
	PriorityLow Priority = 300
)

// ChangeEvent is published after an operation was applied.
type ChangeEvent struct {
	// Operation is the applied operation.
	Operation operation.Operation

	// Batch is the batch the operation was applied in. It is nil for
	// operations applied directly with ApplyOperation.
	Batch *Batch

	// Version is the document version after the operation.
	Version int
}

// Subscriber receives applied operations.
type Subscriber interface {
	OnOperation(ev ChangeEvent)
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(ev ChangeEvent)

// OnOperation calls f.
func (f SubscriberFunc) OnOperation(ev ChangeEvent) { f(ev) }

// FilterFunc decides whether an event is delivered.
type FilterFunc func(ev ChangeEvent) bool

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionStateActive means the subscription is receiving events.
	SubscriptionStateActive SubscriptionState = iota

	// SubscriptionStateCancelled means the subscription has been permanently cancelled.
	SubscriptionStateCancelled
)

// String returns a human-readable state name.
func (s SubscriptionState) String() string {
	switch s {
	case SubscriptionStateActive:
		return "active"
	case SubscriptionStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Subscription is a registered subscriber.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// State returns the current subscription state.
	State() SubscriptionState

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Cancel stops delivery. It is safe to call more than once and from
	// inside a subscriber.
	Cancel()
}

// SubscriptionConfig contains configuration for a subscription.
type SubscriptionConfig struct {
	// Priority determines execution order (lower values execute first).
	Priority Priority

	// Filter is an optional predicate. Events are only delivered if it
	// returns true.
	Filter FilterFunc

	// Once cancels the subscription after the first delivered event.
	Once bool
}

// DefaultSubscriptionConfig returns a default subscription configuration.
func DefaultSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{Priority: PriorityNormal}
}

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*SubscriptionConfig)

// WithPriority sets the subscription priority.
func WithPriority(p Priority) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Priority = p
	}
}

// WithFilter sets a filter predicate.
func WithFilter(f FilterFunc) SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Filter = f
	}
}

// WithOnce cancels the subscription after the first event.
func WithOnce() SubscriptionOption {
	return func(c *SubscriptionConfig) {
		c.Once = true
	}
}

type subscription struct {
	id         string
	seq        uint64
	subscriber Subscriber
	config     SubscriptionConfig
	state      atomic.Int32
	publisher  *publisher
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

func (s *subscription) IsActive() bool {
	return s.State() == SubscriptionStateActive
}

func (s *subscription) Cancel() {
	if s.state.CompareAndSwap(int32(SubscriptionStateActive), int32(SubscriptionStateCancelled)) {
		s.publisher.remove(s)
	}
}

// publisher delivers change events synchronously, ordered by priority and
// then by registration order.
type publisher struct {
	mu   sync.Mutex
	subs []*subscription
	seq  uint64

	// queue holds events published while another event is being delivered.
	queue      []ChangeEvent
	delivering bool
}

func (p *publisher) subscribe(sub Subscriber, opts ...SubscriptionOption) *subscription {
	config := DefaultSubscriptionConfig()
	for _, opt := range opts {
		opt(&config)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	s := &subscription{
		id:         uuid.NewString(),
		seq:        p.seq,
		subscriber: sub,
		config:     config,
		publisher:  p,
	}
	s.state.Store(int32(SubscriptionStateActive))

	i, _ := slices.BinarySearchFunc(p.subs, s, func(a, b *subscription) int {
		if a.config.Priority != b.config.Priority {
			return int(a.config.Priority - b.config.Priority)
		}
		return int(a.seq) - int(b.seq)
	})
	p.subs = slices.Insert(p.subs, i, s)
	return s
}

func (p *publisher) remove(s *subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = slices.DeleteFunc(p.subs, func(x *subscription) bool { return x == s })
}

func (p *publisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// publish delivers ev. Subscriptions added during delivery receive the next
// event, cancelled ones are skipped immediately.
//
// An event published from inside a subscriber is queued and delivered once
// every subscriber has seen the current one, so each subscriber sees events
// in version order.
func (p *publisher) publish(ev ChangeEvent) {
	p.mu.Lock()
	p.queue = append(p.queue, ev)
	if p.delivering {
		p.mu.Unlock()
		return
	}
	p.delivering = true
	for len(p.queue) > 0 {
		next := p.queue[0]
		p.queue = p.queue[1:]
		subs := slices.Clone(p.subs)
		p.mu.Unlock()
		p.deliver(subs, next)
		p.mu.Lock()
	}
	p.delivering = false
	p.mu.Unlock()
}

func (p *publisher) deliver(subs []*subscription, ev ChangeEvent) {
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		if s.config.Filter != nil && !s.config.Filter(ev) {
			continue
		}
		if s.config.Once {
			s.Cancel()
		}
		s.subscriber.OnOperation(ev)
	}
}
