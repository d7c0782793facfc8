package cmd

import (
	"context"
	"fmt"

	"collection-sync/core/assets"
	"collection-sync/core/cache"
	"collection-sync/core/catalog"
	"collection-sync/core/config"
	"collection-sync/core/docstore"
	"collection-sync/core/notify"
	"collection-sync/core/ratelimit"
	"collection-sync/core/reconcile"
	"collection-sync/core/storage"
	"collection-sync/core/upstream"
	"collection-sync/feature/boardgames"
	"collection-sync/feature/books"
	"collection-sync/feature/records"

	"go.uber.org/zap"
)

// runtime groups the components shared by the server and the one-shot commands.
type runtime struct {
	cfg        *config.Config
	logger     *zap.Logger
	docs       docstore.Store
	cache      *cache.Store
	hub        *notify.Hub
	limiter    *ratelimit.Registry
	mirror     storage.Client
	fetcher    *assets.HTTPFetcher
	reconciler *reconcile.Reconciler
	adapters   map[catalog.Kind]reconcile.Adapter
}

// bootstrap connects the Document Store and builds every enabled provider.
// The cache is not loaded.
func bootstrap(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*runtime, error) {
	docs, err := docstore.Open(ctx, cfg.Database, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	overrides, err := catalog.LoadOverrides(cfg.OverridesFile)
	if err != nil {
		_ = docs.Close(ctx)
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logg,
		docs:     docs,
		cache:    cache.New(docs, logg),
		limiter:  ratelimit.NewRegistry(logg),
		adapters: make(map[catalog.Kind]reconcile.Adapter),
	}

	var bus notify.Bus
	if cfg.Notify.RedisEnabled {
		if bus, err = notify.NewRedisBus(cfg.Notify, logg); err != nil {
			logg.Warn("Redis event bus unavailable, notifying local subscribers only", zap.Error(err))
			bus = nil
		}
	}
	rt.hub = notify.NewHub(cfg.Notify, bus, logg)
	rt.hub.SetSnapshotSource(rt.cache.GetAll)

	if cfg.Assets.Mirror {
		client, err := storage.NewClient(cfg.Storage)
		if err == nil {
			err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
		}
		if err != nil {
			logg.Warn("Artwork mirror unavailable, keeping images local only", zap.Error(err))
		} else {
			rt.mirror = client
		}
	}
	rt.fetcher = assets.NewHTTPFetcher(cfg.Assets, rt.mirror, cfg.Storage.Bucket, logg)

	if cfg.Records.Enabled {
		client := upstream.New("discogs", cfg.Upstream, rt.limiter, logg)
		rt.adapters[catalog.KindRecord] = records.NewAdapter(cfg.Records, client, rt.limiter, overrides.Records, cfg.Assets.MaxDimension, logg)
	}
	if cfg.BoardGames.Enabled {
		client := upstream.New("boardgamegeek", cfg.Upstream, rt.limiter, logg)
		rt.adapters[catalog.KindBoardGame] = boardgames.NewAdapter(cfg.BoardGames, client, rt.limiter, overrides.BoardGames, rt.fetcher.LocalFile, logg)
	}
	if cfg.Books.Enabled {
		client := upstream.New("goodreads", cfg.Upstream, rt.limiter, logg)
		rt.adapters[catalog.KindBook] = books.NewAdapter(cfg.Books, client, rt.limiter, overrides.Books, logg)
	}

	rt.reconciler = reconcile.New(rt.cache, docs, rt.hub, rt.fetcher, rt.limiter, logg, cfg.Sync.Options(cfg.Assets.MaxDimension))
	return rt, nil
}

// adaptersFor returns the adapters of the named kinds, or every enabled one.
func (rt *runtime) adaptersFor(names []string) ([]reconcile.Adapter, error) {
	if len(names) == 0 {
		out := make([]reconcile.Adapter, 0, len(rt.adapters))
		for _, k := range catalog.Kinds {
			if a, ok := rt.adapters[k]; ok {
				out = append(out, a)
			}
		}
		return out, nil
	}

	out := make([]reconcile.Adapter, 0, len(names))
	for _, name := range names {
		kind, err := catalog.ParseKind(name)
		if err != nil {
			return nil, err
		}
		a, ok := rt.adapters[kind]
		if !ok {
			return nil, fmt.Errorf("provider for %s is not enabled", kind)
		}
		out = append(out, a)
	}
	return out, nil
}

func (rt *runtime) close(ctx context.Context) {
	if err := rt.hub.Close(); err != nil {
		rt.logger.Warn("Failed to close event bus", zap.Error(err))
	}
	if err := rt.docs.Close(ctx); err != nil {
		rt.logger.Warn("Failed to close document store", zap.Error(err))
	}
}
