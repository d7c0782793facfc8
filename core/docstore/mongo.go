package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps documents in one mongo collection per kind.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	prefix string
}

// NewMongoStore connects to cfg.URI and verifies the connection.
func NewMongoStore(ctx context.Context, cfg database.Config) (*MongoStore, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoStore{client: client, db: client.Database(cfg.Name), prefix: cfg.TablePrefix}, nil
}

func (s *MongoStore) collection(kind catalog.Kind) *mongo.Collection {
	return s.db.Collection(CollectionName(s.prefix, kind))
}

// mongoFilter translates a Query into a bson filter.
func mongoFilter(q Query) bson.M {
	filter := bson.M{}
	if q.ID != "" {
		filter["_id"] = q.ID
	}
	if q.InWishlist != nil {
		filter["inWishlist"] = *q.InWishlist
	}
	if q.Title != "" {
		filter["title"] = q.Title
	}
	if q.ArtistOrAuthor != "" {
		filter["artistOrAuthor"] = q.ArtistOrAuthor
	}
	return filter
}

// Find returns every matching item ordered by id.
func (s *MongoStore) Find(ctx context.Context, kind catalog.Kind, q Query) ([]*catalog.Item, error) {
	cur, err := s.collection(kind).Find(ctx, mongoFilter(q), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find %s documents: %w", kind, err)
	}
	items := []*catalog.Item{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s documents: %w", kind, err)
	}
	return items, nil
}

// FindOne returns the first matching item or ErrNotFound.
func (s *MongoStore) FindOne(ctx context.Context, kind catalog.Kind, q Query) (*catalog.Item, error) {
	item := &catalog.Item{}
	err := s.collection(kind).FindOne(ctx, mongoFilter(q)).Decode(item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s document: %w", kind, err)
	}
	return item, nil
}

// Upsert replaces the document with the item's id, inserting it if absent.
func (s *MongoStore) Upsert(ctx context.Context, kind catalog.Kind, item *catalog.Item) error {
	if item == nil || item.ID == "" {
		return ErrMissingID
	}
	_, err := s.collection(kind).ReplaceOne(ctx, bson.M{"_id": item.ID}, item, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", item.ID, err)
	}
	return nil
}

// DeleteByID removes one document.
func (s *MongoStore) DeleteByID(ctx context.Context, kind catalog.Kind, id string) error {
	if _, err := s.collection(kind).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// DropCollection drops the kind's collection.
func (s *MongoStore) DropCollection(ctx context.Context, kind catalog.Kind) error {
	if err := s.collection(kind).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop %s: %w", CollectionName(s.prefix, kind), err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
