package cache_test

import (
	"context"
	"errors"
	"testing"

	"collection-sync/core/cache"
	"collection-sync/core/catalog"
	"collection-sync/core/docstore"
	"collection-sync/core/docstore/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func record(id string, wishlist bool) *catalog.Item {
	return &catalog.Item{ID: id, Kind: catalog.KindRecord, Title: id, SortTitle: catalog.SortText(id), InWishlist: wishlist}
}

func TestUpsertRouting(t *testing.T) {
	s := cache.New(&mocks.Store{}, zap.NewNop())

	moved := s.Upsert(record("record1", false))
	assert.False(t, moved)
	assert.Equal(t, []string{"record1"}, s.GetIDs(catalog.KindRecord, catalog.Collection))

	moved = s.Upsert(record("record1", true))
	assert.True(t, moved)
	assert.Empty(t, s.GetIDs(catalog.KindRecord, catalog.Collection))
	assert.Equal(t, []string{"record1"}, s.GetIDs(catalog.KindRecord, catalog.Wishlist))

	item, p, ok := s.GetByID(catalog.KindRecord, "record1")
	require.True(t, ok)
	assert.Equal(t, catalog.Wishlist, p)
	assert.True(t, item.InWishlist)
}

func TestReadsReturnCopies(t *testing.T) {
	s := cache.New(&mocks.Store{}, zap.NewNop())
	original := record("record1", false)
	s.Upsert(original)
	original.Title = "mutated after upsert"

	item, _, _ := s.GetByID(catalog.KindRecord, "record1")
	assert.Equal(t, "record1", item.Title)

	item.Title = "mutated after read"
	all := s.GetAll(catalog.KindRecord, catalog.Collection)
	require.Len(t, all, 1)
	assert.Equal(t, "record1", all[0].Title)
}

func TestRemove(t *testing.T) {
	s := cache.New(&mocks.Store{}, zap.NewNop())
	s.Upsert(record("record1", true))

	removed, ok := s.Remove(catalog.KindRecord, "record1")
	require.True(t, ok)
	assert.Equal(t, "record1", removed.ID)

	_, ok = s.Remove(catalog.KindRecord, "record1")
	assert.False(t, ok)
	_, _, ok = s.GetByID(catalog.KindRecord, "record1")
	assert.False(t, ok)
}

func TestGetAllSorted(t *testing.T) {
	s := cache.New(&mocks.Store{}, zap.NewNop())
	for _, id := range []string{"The Zebra", "apple", "Mango"} {
		s.Upsert(&catalog.Item{ID: id, Kind: catalog.KindBook, SortTitle: catalog.SortText(id)})
	}

	var titles []string
	for _, item := range s.GetAll(catalog.KindBook, catalog.Collection) {
		titles = append(titles, item.ID)
	}
	assert.Equal(t, []string{"apple", "Mango", "The Zebra"}, titles)
	assert.Equal(t, 3, s.Count(catalog.KindBook, catalog.Collection))
}

func TestReloadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		docs := &mocks.Store{}
		docs.On("Find", mock.Anything, catalog.KindRecord, docstore.Query{}).
			Return([]*catalog.Item{record("record1", false), record("record2", true)}, nil)
		docs.On("Find", mock.Anything, catalog.KindBoardGame, docstore.Query{}).Return([]*catalog.Item{}, nil)
		docs.On("Find", mock.Anything, catalog.KindBook, docstore.Query{}).Return([]*catalog.Item{}, nil)

		s := cache.New(docs, zap.NewNop())
		s.Upsert(record("record9", false))

		require.NoError(t, s.ReloadAll(ctx))
		assert.Equal(t, []string{"record1"}, s.GetIDs(catalog.KindRecord, catalog.Collection))
		assert.Equal(t, []string{"record2"}, s.GetIDs(catalog.KindRecord, catalog.Wishlist))
		docs.AssertExpectations(t)
	})

	t.Run("FailureKeepsPreviousState", func(t *testing.T) {
		docs := &mocks.Store{}
		docs.On("Find", mock.Anything, catalog.KindRecord, docstore.Query{}).Return([]*catalog.Item{}, nil)
		docs.On("Find", mock.Anything, catalog.KindBoardGame, docstore.Query{}).Return(nil, errors.New("db down"))
		docs.On("Find", mock.Anything, catalog.KindBook, docstore.Query{}).Return([]*catalog.Item{}, nil)

		s := cache.New(docs, zap.NewNop())
		s.Upsert(record("record9", false))

		err := s.ReloadAll(ctx)
		assert.ErrorContains(t, err, "failed to load boardgame cache")
		assert.Equal(t, []string{"record9"}, s.GetIDs(catalog.KindRecord, catalog.Collection))
	})
}
