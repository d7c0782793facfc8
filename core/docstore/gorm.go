package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collection-sync/core/catalog"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// document is the row layout shared by every per-kind table.
type document struct {
	ID             string `gorm:"primaryKey;size:191"`
	InWishlist     bool   `gorm:"index"`
	Title          string `gorm:"size:512"`
	ArtistOrAuthor string `gorm:"size:512"`
	Body           string `gorm:"type:text"`
	UpdatedAt      time.Time
}

// DocumentColumns lists the columns every table must expose.
var DocumentColumns = []string{"id", "in_wishlist", "title", "artist_or_author", "body", "updated_at"}

// GormStore keeps documents in SQL tables.
type GormStore struct {
	db     *gorm.DB
	prefix string
}

// NewGormStore wraps an open gorm connection. Call Migrate before first use.
func NewGormStore(db *gorm.DB, prefix string) *GormStore {
	return &GormStore{db: db, prefix: prefix}
}

// DB exposes the underlying connection.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// Table returns the table name for kind.
func (s *GormStore) Table(kind catalog.Kind) string {
	return CollectionName(s.prefix, kind)
}

// Migrate creates or updates every kind's table.
func (s *GormStore) Migrate(ctx context.Context) error {
	for _, kind := range catalog.Kinds {
		if err := s.migrate(ctx, kind); err != nil {
			return err
		}
	}
	return nil
}

func (s *GormStore) migrate(ctx context.Context, kind catalog.Kind) error {
	if err := s.db.WithContext(ctx).Table(s.Table(kind)).AutoMigrate(&document{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", s.Table(kind), err)
	}
	return nil
}

func (s *GormStore) scoped(ctx context.Context, kind catalog.Kind, q Query) *gorm.DB {
	tx := s.db.WithContext(ctx).Table(s.Table(kind))
	if q.ID != "" {
		tx = tx.Where("id = ?", q.ID)
	}
	if q.InWishlist != nil {
		tx = tx.Where("in_wishlist = ?", *q.InWishlist)
	}
	if q.Title != "" {
		tx = tx.Where("title = ?", q.Title)
	}
	if q.ArtistOrAuthor != "" {
		tx = tx.Where("artist_or_author = ?", q.ArtistOrAuthor)
	}
	return tx
}

// Find returns every matching item ordered by id.
func (s *GormStore) Find(ctx context.Context, kind catalog.Kind, q Query) ([]*catalog.Item, error) {
	var rows []document
	if err := s.scoped(ctx, kind, q).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find %s documents: %w", kind, err)
	}

	items := make([]*catalog.Item, 0, len(rows))
	for _, row := range rows {
		item, err := decode(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// FindOne returns the first matching item or ErrNotFound.
func (s *GormStore) FindOne(ctx context.Context, kind catalog.Kind, q Query) (*catalog.Item, error) {
	var row document
	err := s.scoped(ctx, kind, q).Order("id").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s document: %w", kind, err)
	}
	return decode(row)
}

// Upsert inserts the item or replaces the stored document with the same id.
func (s *GormStore) Upsert(ctx context.Context, kind catalog.Kind, item *catalog.Item) error {
	if item == nil || item.ID == "" {
		return ErrMissingID
	}
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", item.ID, err)
	}

	row := document{
		ID:             item.ID,
		InWishlist:     item.InWishlist,
		Title:          item.Title,
		ArtistOrAuthor: item.ArtistOrAuthor,
		Body:           string(body),
		UpdatedAt:      time.Now().UTC(),
	}
	err = s.db.WithContext(ctx).Table(s.Table(kind)).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", item.ID, err)
	}
	return nil
}

// DeleteByID removes one document. Deleting a missing id is not an error.
func (s *GormStore) DeleteByID(ctx context.Context, kind catalog.Kind, id string) error {
	err := s.db.WithContext(ctx).Table(s.Table(kind)).Where("id = ?", id).Delete(&document{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	return nil
}

// DropCollection drops the kind's table and recreates it empty.
func (s *GormStore) DropCollection(ctx context.Context, kind catalog.Kind) error {
	if err := s.db.WithContext(ctx).Migrator().DropTable(s.Table(kind)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", s.Table(kind), err)
	}
	return s.migrate(ctx, kind)
}

// Close releases the connection pool.
func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func decode(row document) (*catalog.Item, error) {
	item := &catalog.Item{}
	if err := json.Unmarshal([]byte(row.Body), item); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", row.ID, err)
	}
	return item, nil
}
