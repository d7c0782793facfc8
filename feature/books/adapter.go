package books

import (
	"context"
	"fmt"
	"strings"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/ratelimit"
	"collection-sync/core/reconcile"
	"collection-sync/core/upstream"

	"go.uber.org/zap"
)

const coverArtFile = "book-cover-art.jpg"

// Adapter mirrors the Goodreads owned books and to-read shelf.
type Adapter struct {
	cfg       Config
	client    *upstream.Client
	limiter   *ratelimit.Registry
	overrides catalog.KindOverrides
	logger    *zap.Logger
}

// NewAdapter creates the books adapter.
func NewAdapter(cfg Config, client *upstream.Client, limiter *ratelimit.Registry, overrides catalog.KindOverrides, logger *zap.Logger) *Adapter {
	if cfg.CallsPerMinute > 0 {
		limiter.Register(TagGoodreads, ratelimit.NewCountPolicy(cfg.CallsPerMinute, time.Minute))
	}
	if cfg.OpenLibraryCallsPerMinute > 0 {
		limiter.Register(TagOpenLibrary, ratelimit.NewCountPolicy(cfg.OpenLibraryCallsPerMinute, time.Minute))
	}
	return &Adapter{cfg: cfg, client: client, limiter: limiter, overrides: overrides, logger: logger}
}

// Kind implements reconcile.Adapter.
func (a *Adapter) Kind() catalog.Kind {
	return catalog.KindBook
}

// FetchPage implements reconcile.Adapter. Owned books carry no page count,
// so the listing ends at the first empty page. The shelf reports numpages.
func (a *Adapter) FetchPage(ctx context.Context, partition catalog.Partition, page int) (*reconcile.Page, error) {
	if partition == catalog.Wishlist {
		books, numPages, err := a.fetchShelf(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("goodreads to-read page %d: %w", page, err)
		}
		if len(books) == 0 {
			return &reconcile.Page{}, nil
		}
		return &reconcile.Page{Items: toRaw(books), TotalPages: numPages}, nil
	}

	books, err := a.fetchOwned(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("goodreads owned books page %d: %w", page, err)
	}
	return &reconcile.Page{Items: toRaw(books), HasMore: len(books) > 0}, nil
}

func toRaw(books []raw) []reconcile.RawItem {
	out := make([]reconcile.RawItem, len(books))
	for i := range books {
		out[i] = &books[i]
	}
	return out
}

// Build implements reconcile.Adapter.
func (a *Adapter) Build(r reconcile.RawItem, partition catalog.Partition) (*catalog.Item, error) {
	b, ok := r.(*raw)
	if !ok {
		return nil, fmt.Errorf("unexpected raw book %T", r)
	}
	return build(b, partition, a.overrides)
}

// Assets implements reconcile.AssetPlanner.
func (a *Adapter) Assets(item *catalog.Item) []reconcile.AssetRequest {
	if item.PrimaryImageURL == "" {
		return nil
	}
	req := reconcile.AssetRequest{URL: item.PrimaryImageURL, Filename: coverArtFile}
	if strings.Contains(item.PrimaryImageURL, "openlibrary.org") {
		req.RateTag = TagOpenLibrary
	}
	return []reconcile.AssetRequest{req}
}
