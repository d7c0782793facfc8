package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"testing"
	"time"

	"collection-sync/core/cache"
	"collection-sync/core/catalog"
	"collection-sync/core/database"
	"collection-sync/core/docstore"
	"collection-sync/core/notify"
	"collection-sync/core/ratelimit"
	"collection-sync/core/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAdapter serves fixed pages of items per partition.
type mockAdapter struct {
	pages     map[catalog.Partition][][]*catalog.Item
	fetchFunc func(ctx context.Context, partition catalog.Partition, page int) (*Page, error)
	buildFunc func(raw RawItem, partition catalog.Partition) (*catalog.Item, error)

	mu    sync.Mutex
	calls int
}

func (m *mockAdapter) Kind() catalog.Kind { return catalog.KindRecord }

func (m *mockAdapter) FetchPage(ctx context.Context, partition catalog.Partition, page int) (*Page, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, partition, page)
	}
	pages := m.pages[partition]
	if len(pages) == 0 {
		return &Page{}, nil
	}
	raw := make([]RawItem, 0, len(pages[page-1]))
	for _, item := range pages[page-1] {
		raw = append(raw, item)
	}
	return &Page{Items: raw, TotalPages: len(pages)}, nil
}

func (m *mockAdapter) Build(raw RawItem, partition catalog.Partition) (*catalog.Item, error) {
	if m.buildFunc != nil {
		return m.buildFunc(raw, partition)
	}
	item := raw.(*catalog.Item).Clone()
	item.InWishlist = partition == catalog.Wishlist
	return item, nil
}

// keyedAdapter matches records by title and artist.
type keyedAdapter struct{ *mockAdapter }

func (keyedAdapter) IdentityKey(item *catalog.Item) string {
	return item.Title + "|" + item.ArtistOrAuthor
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, kind notify.EventKind, partition catalog.Partition, item *catalog.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, notify.Event{EventKind: kind, Kind: item.Kind, Partition: partition, Item: item.Clone()})
}

func (p *recordingPublisher) PublishControl(_ context.Context, kind notify.EventKind, itemKind catalog.Kind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, notify.Event{EventKind: kind, Kind: itemKind})
}

func (p *recordingPublisher) take() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	events := p.events
	p.events = nil
	return events
}

type fakeFetcher struct {
	err       error
	downloads []string
}

func (f *fakeFetcher) Download(_ context.Context, url string, _ map[string]string, destDir, filename string, _ int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.downloads = append(f.downloads, url)
	return path.Join("/images", destDir, filename), nil
}

type fixture struct {
	docs      *docstore.GormStore
	cache     *cache.Store
	publisher *recordingPublisher
	fetcher   *fakeFetcher
	r         *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	docs := docstore.NewGormStore(db, "")
	require.NoError(t, docs.Migrate(context.Background()))

	f := &fixture{
		docs:      docs,
		cache:     cache.New(docs, zap.NewNop()),
		publisher: &recordingPublisher{},
		fetcher:   &fakeFetcher{},
	}
	f.r = New(f.cache, docs, f.publisher, f.fetcher, nil, zap.NewNop(), Options{
		PendingDelay:    time.Millisecond,
		RetryDelay:      time.Millisecond,
		MaxFetchRetries: 2,
	})
	return f
}

func (f *fixture) seed(t *testing.T, items ...*catalog.Item) {
	t.Helper()
	for _, item := range items {
		require.NoError(t, f.docs.Upsert(context.Background(), item.Kind, item))
		f.cache.Upsert(item)
	}
}

func masterwork(rating float64) *catalog.Item {
	return &catalog.Item{
		ID:              "record482",
		Kind:            catalog.KindRecord,
		Title:           "Untitled Masterwork",
		ArtistOrAuthor:  "Some Artist",
		Rating:          rating,
		PrimaryImageURL: "https://img.example/482.jpg",
	}
}

func TestRunCycle_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	collection := &mockAdapter{pages: map[catalog.Partition][][]*catalog.Item{
		catalog.Collection: {{masterwork(4)}},
	}}

	// First run creates the item.
	report, err := f.r.RunCycle(ctx, collection)
	require.NoError(t, err)
	assert.True(t, report.Complete)
	assert.Equal(t, Stats{New: 1}, report.Stats())

	events := f.publisher.take()
	require.Len(t, events, 2)
	assert.Equal(t, notify.SyncStarted, events[0].EventKind)
	assert.Equal(t, notify.Added, events[1].EventKind)
	assert.Equal(t, catalog.Collection, events[1].Partition)

	stored, err := f.docs.FindOne(ctx, catalog.KindRecord, docstore.ByID("record482"))
	require.NoError(t, err)
	assert.Equal(t, "/images/record/record482/cover-art.jpg", stored.PrimaryImageLocalPath)
	assert.False(t, stored.AddedOn.IsZero())
	addedOn := stored.AddedOn

	// Second run with identical data changes nothing.
	report, err = f.r.RunCycle(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, Stats{Known: 1}, report.Stats())
	assert.Empty(t, f.publisher.take())
	assert.Len(t, f.fetcher.downloads, 1)

	// Moving to the wishlist is an update, not a removal.
	wishlist := &mockAdapter{pages: map[catalog.Partition][][]*catalog.Item{
		catalog.Wishlist: {{masterwork(catalog.Unrated)}},
	}}
	report, err = f.r.RunCycle(ctx, wishlist)
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1}, report.Stats())

	events = f.publisher.take()
	require.Len(t, events, 1)
	assert.Equal(t, notify.Updated, events[0].EventKind)
	assert.Equal(t, catalog.Wishlist, events[0].Partition)

	item, partition, ok := f.cache.GetByID(catalog.KindRecord, "record482")
	require.True(t, ok)
	assert.Equal(t, catalog.Wishlist, partition)
	assert.Equal(t, catalog.Unrated, item.Rating)
	assert.Equal(t, "Untitled Masterwork", item.Title)
	assert.True(t, item.AddedOn.Equal(addedOn))

	// Vanishing from the provider removes it.
	report, err = f.r.RunCycle(ctx, &mockAdapter{})
	require.NoError(t, err)
	assert.Equal(t, Stats{Removed: 1}, report.Stats())

	events = f.publisher.take()
	require.Len(t, events, 1)
	assert.Equal(t, notify.Removed, events[0].EventKind)
	assert.Equal(t, catalog.Wishlist, events[0].Partition)

	_, err = f.docs.FindOne(ctx, catalog.KindRecord, docstore.ByID("record482"))
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Zero(t, f.cache.Count(catalog.KindRecord, catalog.Wishlist))
}

func TestRunCycle_Pagination(t *testing.T) {
	tests := []struct {
		name      string
		fetch     func(page int) *Page
		wantCalls int
	}{
		{
			name: "total pages known",
			fetch: func(page int) *Page {
				return &Page{Items: []RawItem{&catalog.Item{ID: fmt.Sprintf("record%d", page)}}, TotalPages: 3}
			},
			wantCalls: 3,
		},
		{
			name: "has more flag",
			fetch: func(page int) *Page {
				return &Page{Items: []RawItem{&catalog.Item{ID: fmt.Sprintf("record%d", page)}}, HasMore: page < 2}
			},
			wantCalls: 2,
		},
		{
			name:      "empty listing",
			fetch:     func(int) *Page { return &Page{} },
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var calls int
			adapter := &mockAdapter{fetchFunc: func(_ context.Context, p catalog.Partition, page int) (*Page, error) {
				if p != catalog.Collection {
					return &Page{}, nil
				}
				calls++
				return tt.fetch(page), nil
			}}

			report, err := f.r.RunCycle(context.Background(), adapter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantCalls, report.Passes[0].Pages)
		})
	}
}

func TestRunCycle_AccessPending(t *testing.T) {
	t.Run("gives up after bound", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t, masterwork(4))
		f.r.opts.MaxPendingRetries = 2

		adapter := &mockAdapter{fetchFunc: func(context.Context, catalog.Partition, int) (*Page, error) {
			return &Page{Pending: true}, nil
		}}
		report, err := f.r.RunCycle(context.Background(), adapter)
		assert.ErrorIs(t, err, ErrAccessPending)
		assert.False(t, report.Complete)
		assert.Equal(t, 3, adapter.calls)

		// No sweep after an aborted pass.
		_, _, ok := f.cache.GetByID(catalog.KindRecord, "record482")
		assert.True(t, ok)
		assert.Empty(t, f.publisher.take())
	})

	t.Run("retries same page", func(t *testing.T) {
		f := newFixture(t)
		var pages []int
		pending := true
		adapter := &mockAdapter{fetchFunc: func(_ context.Context, p catalog.Partition, page int) (*Page, error) {
			if p != catalog.Collection {
				return &Page{}, nil
			}
			pages = append(pages, page)
			if pending {
				pending = false
				return &Page{Pending: true}, nil
			}
			return &Page{Items: []RawItem{masterwork(4)}, TotalPages: 1}, nil
		}}
		report, err := f.r.RunCycle(context.Background(), adapter)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 1}, pages)
		assert.Equal(t, 1, report.Stats().New)
	})
}

func TestRunCycle_FetchErrors(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		expectErr error
		wantCalls int
	}{
		{
			name:      "transient then success",
			errs:      []error{upstream.ErrTransient},
			wantCalls: 3, // failed + retried collection page, wishlist page
		},
		{
			name:      "transient exhausted",
			errs:      []error{upstream.ErrTransient, upstream.ErrTransient, upstream.ErrTransient},
			expectErr: upstream.ErrTransient,
			wantCalls: 3,
		},
		{
			name:      "throttled body exhausted",
			errs:      []error{ratelimit.ErrTooManyRequests, ratelimit.ErrTooManyRequests, ratelimit.ErrTooManyRequests},
			expectErr: ratelimit.ErrTooManyRequests,
			wantCalls: 3,
		},
		{
			name:      "limiter gave up",
			errs:      []error{fmt.Errorf("discogs after 4 attempts: %w", ratelimit.ErrRetriesExhausted)},
			expectErr: ratelimit.ErrRetriesExhausted,
			wantCalls: 1,
		},
		{
			name:      "malformed listing",
			errs:      []error{fmt.Errorf("discogs collection page 1: no pagination: %w", ErrMalformedPage)},
			expectErr: ErrMalformedPage,
			wantCalls: 1,
		},
		{
			name:      "not retried",
			errs:      []error{&upstream.StatusError{URL: "https://api.example", StatusCode: 404}},
			expectErr: &upstream.StatusError{},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, masterwork(4))
			errs := tt.errs
			adapter := &mockAdapter{fetchFunc: func(_ context.Context, p catalog.Partition, _ int) (*Page, error) {
				if len(errs) > 0 {
					err := errs[0]
					errs = errs[1:]
					return nil, err
				}
				if p == catalog.Collection {
					return &Page{Items: []RawItem{masterwork(4)}, TotalPages: 1}, nil
				}
				return &Page{}, nil
			}}

			report, err := f.r.RunCycle(context.Background(), adapter)
			assert.Equal(t, tt.wantCalls, adapter.calls)
			if tt.expectErr == nil {
				require.NoError(t, err)
				assert.True(t, report.Complete)
				assert.Equal(t, Stats{Known: 1}, report.Stats())
				return
			}
			require.Error(t, err)
			var statusErr *upstream.StatusError
			if errors.As(tt.expectErr, &statusErr) {
				assert.ErrorAs(t, err, &statusErr)
			} else {
				assert.ErrorIs(t, err, tt.expectErr)
			}
			assert.False(t, report.Complete)
			assert.Zero(t, report.Stats().Removed)
			assert.Equal(t, 1, f.cache.Count(catalog.KindRecord, catalog.Collection))
			stored, err := f.docs.Find(context.Background(), catalog.KindRecord, docstore.Query{})
			require.NoError(t, err)
			assert.Len(t, stored, 1)
		})
	}
}

func TestRunCycle_ListedInBothPartitions(t *testing.T) {
	ctx := context.Background()
	both := &mockAdapter{pages: map[catalog.Partition][][]*catalog.Item{
		catalog.Collection: {{masterwork(4)}},
		catalog.Wishlist:   {{masterwork(4)}},
	}}

	t.Run("CollectionWins", func(t *testing.T) {
		f := newFixture(t)

		report, err := f.r.RunCycle(ctx, both)
		require.NoError(t, err)
		assert.Equal(t, Stats{New: 1}, report.Passes[0].Stats)
		assert.Equal(t, Stats{Known: 1}, report.Passes[1].Stats)
		assert.Equal(t, []string{"record482"}, f.cache.GetIDs(catalog.KindRecord, catalog.Collection))
		assert.Empty(t, f.cache.GetIDs(catalog.KindRecord, catalog.Wishlist))
		f.publisher.take()

		for run := 0; run < 2; run++ {
			report, err = f.r.RunCycle(ctx, both)
			require.NoError(t, err)
			assert.Equal(t, Stats{Known: 2}, report.Stats(), "run %d", run)
			assert.Empty(t, f.publisher.take(), "run %d", run)
		}
	})

	t.Run("WishlistedItemMovesOnce", func(t *testing.T) {
		f := newFixture(t)
		wanted := masterwork(4)
		wanted.InWishlist = true
		f.seed(t, wanted)

		report, err := f.r.RunCycle(ctx, both)
		require.NoError(t, err)
		assert.Equal(t, Stats{Updated: 1, Known: 1}, report.Stats())

		events := f.publisher.take()
		require.Len(t, events, 1)
		assert.Equal(t, notify.Updated, events[0].EventKind)
		assert.Equal(t, catalog.Collection, events[0].Partition)

		_, p, ok := f.cache.GetByID(catalog.KindRecord, "record482")
		require.True(t, ok)
		assert.Equal(t, catalog.Collection, p)
	})
}

func TestRunCycle_SkippedItemIsNotSwept(t *testing.T) {
	f := newFixture(t)
	f.seed(t, masterwork(4))

	adapter := &mockAdapter{
		pages: map[catalog.Partition][][]*catalog.Item{
			catalog.Collection: {{masterwork(4)}},
		},
		buildFunc: func(raw RawItem, _ catalog.Partition) (*catalog.Item, error) {
			return &catalog.Item{ID: raw.(*catalog.Item).ID}, fmt.Errorf("artist: %w", catalog.ErrMissingField)
		},
	}

	report, err := f.r.RunCycle(context.Background(), adapter)
	require.NoError(t, err)
	assert.Equal(t, Stats{Skipped: 1}, report.Stats())
	assert.Equal(t, ErrKindNormalize, report.Passes[0].Results[0].ErrKind)
	assert.Equal(t, 1, f.cache.Count(catalog.KindRecord, catalog.Collection))
}

func TestRunCycle_AssetFailureUsesPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = errors.New("boom")

	adapter := &mockAdapter{pages: map[catalog.Partition][][]*catalog.Item{
		catalog.Collection: {{masterwork(4)}},
	}}
	report, err := f.r.RunCycle(context.Background(), adapter)
	require.NoError(t, err)

	res := report.Passes[0].Results[0]
	assert.Equal(t, ActionNew, res.Action)
	assert.Equal(t, ErrKindAsset, res.ErrKind)

	item, _, ok := f.cache.GetByID(catalog.KindRecord, "record482")
	require.True(t, ok)
	assert.Equal(t, "/images/record/UNTITLED/missing-artwork.png", item.PrimaryImageLocalPath)
}

func TestRunCycle_IdentityKey(t *testing.T) {
	f := newFixture(t)
	f.seed(t, masterwork(4))

	pressing := masterwork(2)
	pressing.ID = "record999"
	adapter := keyedAdapter{&mockAdapter{pages: map[catalog.Partition][][]*catalog.Item{
		catalog.Collection: {{pressing}},
	}}}

	report, err := f.r.RunCycle(context.Background(), adapter)
	require.NoError(t, err)
	assert.Equal(t, Stats{Known: 1}, report.Stats())
	assert.Empty(t, f.publisher.take())

	stored, partition, ok := f.cache.GetByID(catalog.KindRecord, "record482")
	require.True(t, ok)
	assert.Equal(t, 4.0, stored.Rating)
	assert.Equal(t, catalog.Collection, partition)
	_, _, ok = f.cache.GetByID(catalog.KindRecord, "record999")
	assert.False(t, ok)
}

func TestRunCycle_DryRun(t *testing.T) {
	f := newFixture(t)
	f.seed(t, &catalog.Item{ID: "record1", Kind: catalog.KindRecord, Title: "Gone"})

	adapter := &mockAdapter{pages: map[catalog.Partition][][]*catalog.Item{
		catalog.Collection: {{masterwork(4)}},
	}}
	report, err := f.r.WithDryRun().RunCycle(context.Background(), adapter)
	require.NoError(t, err)
	assert.Equal(t, Stats{New: 1, Removed: 1}, report.Stats())

	assert.Empty(t, f.publisher.take())
	assert.Empty(t, f.fetcher.downloads)
	_, _, ok := f.cache.GetByID(catalog.KindRecord, "record1")
	assert.True(t, ok)
	_, err = f.docs.FindOne(context.Background(), catalog.KindRecord, docstore.ByID("record482"))
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	plan := BuildPlan(report, nil)
	assert.True(t, plan.DryRun)
	assert.Empty(t, plan.Error)
	require.Len(t, plan.Actions, 2)
	assert.Equal(t, ActionNew, plan.Actions[0].Action)
	assert.Equal(t, ActionRemoved, plan.Actions[1].Action)
	assert.Equal(t, "record1", plan.Actions[1].ID)
}

func TestRunCycle_Shutdown(t *testing.T) {
	f := newFixture(t)
	f.seed(t, masterwork(4))

	ctx, cancel := context.WithCancel(context.Background())
	adapter := &mockAdapter{fetchFunc: func(_ context.Context, _ catalog.Partition, page int) (*Page, error) {
		cancel()
		return &Page{Items: []RawItem{&catalog.Item{ID: "record1"}}, TotalPages: 2}, nil
	}}

	report, err := f.r.RunCycle(ctx, adapter)
	assert.ErrorIs(t, err, ErrShutdown)
	assert.False(t, report.Complete)
	assert.Equal(t, 1, adapter.calls)
	assert.Equal(t, 1, f.cache.Count(catalog.KindRecord, catalog.Collection))
	assert.Equal(t, StateIdle, f.r.State(catalog.KindRecord, catalog.Collection))
}
