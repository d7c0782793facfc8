package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoSnapshot is returned when no snapshot source was configured.
var ErrNoSnapshot = errors.New("snapshot source not configured")

// SnapshotFunc returns the full current contents of one partition.
type SnapshotFunc func(kind catalog.Kind, partition catalog.Partition) []*catalog.Item

// Hub fans events out to attached subscribers. Delivery is best effort: a
// subscriber whose buffer is full misses the event and must resync with a
// snapshot.
type Hub struct {
	mu       sync.RWMutex
	subs     map[*Subscription]struct{}
	buffer   int
	bus      Bus
	origin   string
	snapshot SnapshotFunc
	now      func() time.Time
	logger   *zap.Logger
}

// NewHub creates a hub. bus may be nil.
func NewHub(cfg Config, bus Bus, logger *zap.Logger) *Hub {
	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		bus:    bus,
		origin: uuid.NewString(),
		now:    time.Now,
		logger: logger,
	}
}

// SetSnapshotSource wires the function answering snapshot requests.
func (h *Hub) SetSnapshotSource(fn SnapshotFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = fn
}

// Origin identifies this process on the bus.
func (h *Hub) Origin() string {
	return h.origin
}

// Publish emits a change for one item.
func (h *Hub) Publish(ctx context.Context, kind EventKind, partition catalog.Partition, item *catalog.Item) {
	ev := h.newEvent(kind)
	ev.Partition = partition
	if item != nil {
		ev.Kind = item.Kind
		ev.Item = item.Clone()
	}
	h.emit(ctx, ev)
}

// PublishControl emits an event that carries no item.
func (h *Hub) PublishControl(ctx context.Context, kind EventKind, itemKind catalog.Kind) {
	ev := h.newEvent(kind)
	ev.Kind = itemKind
	h.emit(ctx, ev)
}

func (h *Hub) newEvent(kind EventKind) Event {
	return Event{ID: uuid.NewString(), EventKind: kind, Origin: h.origin, At: h.now().UTC()}
}

func (h *Hub) emit(ctx context.Context, ev Event) {
	h.deliver(ev)
	if h.bus == nil {
		return
	}
	if err := h.bus.Publish(ctx, ev); err != nil {
		h.logger.Warn("Failed to forward event to bus", zap.String("event_id", ev.ID), zap.Error(err))
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.accepts(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			metrics.NotifierDropped.Inc()
			h.logger.Debug("Subscriber buffer full, dropping event",
				zap.String("subscriber", sub.id),
				zap.String("event_id", ev.ID),
			)
		}
	}
}

// Run forwards events published by other instances until ctx is done.
// Without a bus it just waits for ctx.
func (h *Hub) Run(ctx context.Context) error {
	if h.bus != nil {
		err := h.bus.StartForwarder(ctx, func(ev Event) {
			if ev.Origin == h.origin {
				return
			}
			h.deliver(ev)
		})
		if err != nil {
			return err
		}
	}
	<-ctx.Done()
	return nil
}

// Subscribe attaches a subscriber. An empty kinds list receives every kind.
func (h *Hub) Subscribe(kinds ...catalog.Kind) *Subscription {
	sub := &Subscription{
		id:  uuid.NewString(),
		hub: h,
		ch:  make(chan Event, h.buffer),
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[catalog.Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	metrics.NotifierSubscribers.Set(float64(n))
	h.logger.Debug("Subscriber attached", zap.String("subscriber", sub.id), zap.Int("subscribers", n))
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	close(sub.ch)
	n := len(h.subs)
	h.mu.Unlock()
	metrics.NotifierSubscribers.Set(float64(n))
}

// Subscribers returns the number of attached subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close detaches every subscriber and closes the bus.
func (h *Hub) Close() error {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		s.Close()
	}
	if h.bus != nil {
		return h.bus.Close()
	}
	return nil
}

// Subscription receives events until closed.
type Subscription struct {
	id    string
	hub   *Hub
	ch    chan Event
	kinds map[catalog.Kind]bool
	once  sync.Once
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() string {
	return s.id
}

// Events returns the delivery channel. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Snapshot returns the full contents of one partition, used to correct drift
// after missed events.
func (s *Subscription) Snapshot(kind catalog.Kind, partition catalog.Partition) ([]*catalog.Item, error) {
	s.hub.mu.RLock()
	fn := s.hub.snapshot
	s.hub.mu.RUnlock()
	if fn == nil {
		return nil, ErrNoSnapshot
	}
	return fn(kind, partition), nil
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}

func (s *Subscription) accepts(ev Event) bool {
	return s.kinds == nil || ev.Kind == "" || s.kinds[ev.Kind]
}
