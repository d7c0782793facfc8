package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"collection-sync/core/catalog"
	"collection-sync/core/docstore"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

type partitions map[catalog.Partition]map[string]*catalog.Item

func newPartitions() partitions {
	return partitions{
		catalog.Collection: make(map[string]*catalog.Item),
		catalog.Wishlist:   make(map[string]*catalog.Item),
	}
}

// Store is the per-kind collection/wishlist cache.
type Store struct {
	mu     sync.RWMutex
	kinds  map[catalog.Kind]partitions
	docs   docstore.Store
	group  singleflight.Group
	logger *zap.Logger
}

// New creates an empty cache backed by docs.
func New(docs docstore.Store, logger *zap.Logger) *Store {
	s := &Store{
		kinds:  make(map[catalog.Kind]partitions, len(catalog.Kinds)),
		docs:   docs,
		logger: logger,
	}
	for _, k := range catalog.Kinds {
		s.kinds[k] = newPartitions()
	}
	return s
}

func (s *Store) kind(k catalog.Kind) partitions {
	p, ok := s.kinds[k]
	if !ok {
		p = newPartitions()
		s.kinds[k] = p
	}
	return p
}

// GetAll returns copies of every item in a partition, sorted by sort title then id.
func (s *Store) GetAll(kind catalog.Kind, partition catalog.Partition) []*catalog.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.kinds[kind][partition]
	items := make([]*catalog.Item, 0, len(m))
	for _, item := range m {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortTitle != items[j].SortTitle {
			return items[i].SortTitle < items[j].SortTitle
		}
		return items[i].ID < items[j].ID
	})
	return items
}

// GetIDs returns the ids held in a partition.
func (s *Store) GetIDs(kind catalog.Kind, partition catalog.Partition) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.kinds[kind][partition]
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetByID looks an id up in both partitions.
func (s *Store) GetByID(kind catalog.Kind, id string) (*catalog.Item, catalog.Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range catalog.Partitions {
		if item, ok := s.kinds[kind][p][id]; ok {
			return item.Clone(), p, true
		}
	}
	return nil, "", false
}

// Count returns the number of items in a partition.
func (s *Store) Count(kind catalog.Kind, partition catalog.Partition) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kinds[kind][partition])
}

// Upsert stores a copy of item in the partition matching item.InWishlist and
// evicts it from the other one. It reports whether the item changed partition.
func (s *Store) Upsert(item *catalog.Item) (moved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := s.kind(item.Kind)
	target := item.Partition()
	if _, ok := parts[target.Other()][item.ID]; ok {
		delete(parts[target.Other()], item.ID)
		moved = true
	}
	parts[target][item.ID] = item.Clone()
	return moved
}

// Remove deletes id from whichever partition holds it and returns the removed item.
func (s *Store) Remove(kind catalog.Kind, id string) (*catalog.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range catalog.Partitions {
		if item, ok := s.kinds[kind][p][id]; ok {
			delete(s.kinds[kind][p], id)
			return item, true
		}
	}
	return nil, false
}

// ReloadAll rebuilds every kind from the Document Store.
func (s *Store) ReloadAll(ctx context.Context) error {
	_, err, shared := s.group.Do("reload", func() (interface{}, error) {
		return nil, s.reload(ctx)
	})
	if shared {
		s.logger.Debug("Joined in-flight cache reload")
	}
	return err
}

func (s *Store) reload(ctx context.Context) error {
	loaded := make([]partitions, len(catalog.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range catalog.Kinds {
		g.Go(func() error {
			items, err := s.docs.Find(gctx, kind, docstore.Query{})
			if err != nil {
				return fmt.Errorf("failed to load %s cache: %w", kind, err)
			}
			parts := newPartitions()
			for _, item := range items {
				item.Kind = kind
				parts[item.Partition()][item.ID] = item
			}
			loaded[i] = parts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	for i, kind := range catalog.Kinds {
		s.kinds[kind] = loaded[i]
	}
	s.mu.Unlock()

	for i, kind := range catalog.Kinds {
		s.logger.Info("Cache loaded",
			zap.String("kind", string(kind)),
			zap.Int("collection", len(loaded[i][catalog.Collection])),
			zap.Int("wishlist", len(loaded[i][catalog.Wishlist])),
		)
	}
	return nil
}
