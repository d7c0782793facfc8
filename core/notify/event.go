package notify

import (
	"context"
	"time"

	"collection-sync/core/catalog"
)

// EventKind classifies a change event.
type EventKind string

const (
	Added   EventKind = "added"
	Updated EventKind = "updated"
	Removed EventKind = "removed"

	// SyncStarted is sent when a kind's first cycle starts with an empty cache.
	SyncStarted EventKind = "sync_started"
	// CacheCleared is sent after the cache was rebuilt from the Document Store.
	CacheCleared EventKind = "cache_cleared"
)

// Event is one change pushed to subscribers.
type Event struct {
	ID        string            `json:"id"`
	EventKind EventKind         `json:"eventKind"`
	Kind      catalog.Kind      `json:"kind,omitempty"`
	Partition catalog.Partition `json:"partition,omitempty"`
	Item      *catalog.Item     `json:"item,omitempty"`
	Origin    string            `json:"origin"`
	At        time.Time         `json:"at"`
}

// Publisher is the reconciler's view of the notifier.
type Publisher interface {
	Publish(ctx context.Context, kind EventKind, partition catalog.Partition, item *catalog.Item)
	PublishControl(ctx context.Context, kind EventKind, itemKind catalog.Kind)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, EventKind, catalog.Partition, *catalog.Item) {}
func (Nop) PublishControl(context.Context, EventKind, catalog.Kind)              {}
