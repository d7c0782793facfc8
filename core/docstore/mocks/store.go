package mocks

import (
	"context"

	"collection-sync/core/catalog"
	"collection-sync/core/docstore"

	"github.com/stretchr/testify/mock"
)

// Store is a mock implementation of docstore.Store
type Store struct {
	mock.Mock
}

func (m *Store) Find(ctx context.Context, kind catalog.Kind, q docstore.Query) ([]*catalog.Item, error) {
	args := m.Called(ctx, kind, q)
	if items, ok := args.Get(0).([]*catalog.Item); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) FindOne(ctx context.Context, kind catalog.Kind, q docstore.Query) (*catalog.Item, error) {
	args := m.Called(ctx, kind, q)
	if item, ok := args.Get(0).(*catalog.Item); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Upsert(ctx context.Context, kind catalog.Kind, item *catalog.Item) error {
	args := m.Called(ctx, kind, item)
	return args.Error(0)
}

func (m *Store) DeleteByID(ctx context.Context, kind catalog.Kind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *Store) DropCollection(ctx context.Context, kind catalog.Kind) error {
	args := m.Called(ctx, kind)
	return args.Error(0)
}

func (m *Store) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
