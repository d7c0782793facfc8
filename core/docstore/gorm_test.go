package docstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/database"
	"collection-sync/core/docstore"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *docstore.GormStore {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	s := docstore.NewGormStore(db, "")
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestGormStore(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	added := time.Date(2021, 5, 1, 12, 0, 0, 0, time.UTC)
	owned := &catalog.Item{ID: "record482", Kind: catalog.KindRecord, Title: "Untitled Masterwork", ArtistOrAuthor: "Someone", Rating: 4, AddedOn: added}
	wanted := &catalog.Item{ID: "record7", Kind: catalog.KindRecord, Title: "Wanted", ArtistOrAuthor: "Other", Rating: catalog.Unrated, InWishlist: true}

	require.NoError(t, s.Upsert(ctx, catalog.KindRecord, owned))
	require.NoError(t, s.Upsert(ctx, catalog.KindRecord, wanted))

	t.Run("FindAll", func(t *testing.T) {
		items, err := s.Find(ctx, catalog.KindRecord, docstore.Query{})
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "record482", items[0].ID)
		assert.Equal(t, added, items[0].AddedOn.UTC())
	})

	t.Run("FindByPartition", func(t *testing.T) {
		items, err := s.Find(ctx, catalog.KindRecord, docstore.InPartition(catalog.Wishlist))
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "record7", items[0].ID)
	})

	t.Run("FindOneComposite", func(t *testing.T) {
		item, err := s.FindOne(ctx, catalog.KindRecord, docstore.Query{Title: "Untitled Masterwork", ArtistOrAuthor: "Someone"})
		require.NoError(t, err)
		assert.Equal(t, "record482", item.ID)
	})

	t.Run("FindOneMissing", func(t *testing.T) {
		_, err := s.FindOne(ctx, catalog.KindRecord, docstore.ByID("record0"))
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("UpsertReplaces", func(t *testing.T) {
		moved := owned.Clone()
		moved.InWishlist = true
		require.NoError(t, s.Upsert(ctx, catalog.KindRecord, moved))

		items, err := s.Find(ctx, catalog.KindRecord, docstore.InPartition(catalog.Wishlist))
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("UpsertRequiresID", func(t *testing.T) {
		err := s.Upsert(ctx, catalog.KindRecord, &catalog.Item{Title: "No id"})
		assert.ErrorIs(t, err, docstore.ErrMissingID)
	})

	t.Run("KindsAreIsolated", func(t *testing.T) {
		items, err := s.Find(ctx, catalog.KindBook, docstore.Query{})
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("DeleteByID", func(t *testing.T) {
		require.NoError(t, s.DeleteByID(ctx, catalog.KindRecord, "record7"))
		require.NoError(t, s.DeleteByID(ctx, catalog.KindRecord, "record7"))
		_, err := s.FindOne(ctx, catalog.KindRecord, docstore.ByID("record7"))
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("DropCollection", func(t *testing.T) {
		require.NoError(t, s.DropCollection(ctx, catalog.KindRecord))
		items, err := s.Find(ctx, catalog.KindRecord, docstore.Query{})
		require.NoError(t, err)
		assert.Empty(t, items)

		columns, err := database.GetTableColumns(s.DB(), s.Table(catalog.KindRecord))
		require.NoError(t, err)
		assert.Empty(t, database.MissingColumns(columns, docstore.DocumentColumns...))
	})
}

func TestGormStoreErrors(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	s := docstore.NewGormStore(db, "test_")
	ctx := context.Background()

	t.Run("FindFails", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM `test_books`").WillReturnError(errors.New("connection reset"))

		_, err := s.Find(ctx, catalog.KindBook, docstore.Query{})
		assert.ErrorContains(t, err, "failed to find book documents")
	})

	t.Run("UpsertFails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `test_books`").WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		err := s.Upsert(ctx, catalog.KindBook, &catalog.Item{ID: "book1"})
		assert.ErrorContains(t, err, "failed to upsert book1")
	})

	t.Run("DeleteFails", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `test_books`").WillReturnError(errors.New("lock wait timeout"))
		mock.ExpectRollback()

		err := s.DeleteByID(ctx, catalog.KindBook, "book1")
		assert.ErrorContains(t, err, "failed to delete book1")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
