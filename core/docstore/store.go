package docstore

import (
	"context"
	"errors"
	"fmt"

	"collection-sync/core/catalog"
	"collection-sync/core/database"

	"go.uber.org/zap"
)

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("document not found")

// ErrMissingID is returned by Upsert for items without an id.
var ErrMissingID = errors.New("document id is required")

// Query filters documents. Zero fields are ignored.
type Query struct {
	ID             string
	InWishlist     *bool
	Title          string
	ArtistOrAuthor string
}

// ByID matches a single id.
func ByID(id string) Query {
	return Query{ID: id}
}

// InPartition matches every item of one partition.
func InPartition(p catalog.Partition) Query {
	w := p == catalog.Wishlist
	return Query{InWishlist: &w}
}

// Store is the persistence contract for canonical items.
type Store interface {
	Find(ctx context.Context, kind catalog.Kind, q Query) ([]*catalog.Item, error)
	FindOne(ctx context.Context, kind catalog.Kind, q Query) (*catalog.Item, error)
	Upsert(ctx context.Context, kind catalog.Kind, item *catalog.Item) error
	DeleteByID(ctx context.Context, kind catalog.Kind, id string) error
	DropCollection(ctx context.Context, kind catalog.Kind) error
	Close(ctx context.Context) error
}

// CollectionName returns the table or collection holding kind.
func CollectionName(prefix string, kind catalog.Kind) string {
	return prefix + string(kind) + "s"
}

// Open connects the backend selected by cfg.Driver and prepares every kind's collection.
func Open(ctx context.Context, cfg database.Config, logger *zap.Logger) (Store, error) {
	if cfg.Driver == "mongo" {
		s, err := NewMongoStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Document store ready", zap.String("driver", "mongo"))
		return s, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	s := NewGormStore(db, cfg.TablePrefix)
	if err := s.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate document tables: %w", err)
	}
	logger.Info("Document store ready", zap.String("driver", db.Dialector.Name()))
	return s, nil
}
