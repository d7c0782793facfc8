package library

import (
	"context"
	"fmt"

	"collection-sync/core/cache"
	"collection-sync/core/catalog"
	"collection-sync/core/notify"
	"collection-sync/core/scheduler"

	"go.uber.org/zap"
)

// Syncer starts cycles on demand and reports job status.
type Syncer interface {
	Trigger(kind catalog.Kind) error
	Status() []scheduler.JobStatus
}

// Counts holds the size of both partitions of one kind.
type Counts struct {
	Collection int `json:"collection"`
	Wishlist   int `json:"wishlist"`
}

// Service answers read queries from the cache and forwards admin actions.
type Service struct {
	cache  *cache.Store
	hub    *notify.Hub
	syncer Syncer
	logger *zap.Logger
}

// NewService creates a new library service.
func NewService(store *cache.Store, hub *notify.Hub, syncer Syncer, logger *zap.Logger) *Service {
	return &Service{
		cache:  store,
		hub:    hub,
		syncer: syncer,
		logger: logger,
	}
}

// Items returns one partition of a kind, sorted by title.
func (s *Service) Items(kind catalog.Kind, partition catalog.Partition) []*catalog.Item {
	return s.cache.GetAll(kind, partition)
}

// Item looks an item up in either partition.
func (s *Service) Item(kind catalog.Kind, id string) (*catalog.Item, bool) {
	item, _, ok := s.cache.GetByID(kind, id)
	return item, ok
}

// Counts returns per-kind partition sizes.
func (s *Service) Counts() map[catalog.Kind]Counts {
	out := make(map[catalog.Kind]Counts, len(catalog.Kinds))
	for _, k := range catalog.Kinds {
		out[k] = Counts{
			Collection: s.cache.Count(k, catalog.Collection),
			Wishlist:   s.cache.Count(k, catalog.Wishlist),
		}
	}
	return out
}

// RefreshCache reloads every kind from the Document Store and tells
// subscribers to resync.
func (s *Service) RefreshCache(ctx context.Context) (map[catalog.Kind]Counts, error) {
	if err := s.cache.ReloadAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to refresh cache: %w", err)
	}
	s.hub.PublishControl(ctx, notify.CacheCleared, "")
	counts := s.Counts()
	s.logger.Info("Cache refreshed", zap.Any("counts", counts))
	return counts, nil
}

// Sync starts a cycle for kind in the background.
func (s *Service) Sync(kind catalog.Kind) error {
	return s.syncer.Trigger(kind)
}

// Status reports the scheduler jobs.
func (s *Service) Status() []scheduler.JobStatus {
	return s.syncer.Status()
}

// Subscribe attaches a change subscriber.
func (s *Service) Subscribe(kinds ...catalog.Kind) *notify.Subscription {
	return s.hub.Subscribe(kinds...)
}

// Subscribers returns the number of attached change subscribers.
func (s *Service) Subscribers() int {
	return s.hub.Subscribers()
}
