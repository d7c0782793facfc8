package reconcile

import (
	"context"

	"collection-sync/core/catalog"
)

// RawItem is one provider entry as returned by an adapter page. Its concrete
// type is private to the adapter that produced it.
type RawItem any

// Page is one page of provider results. Adapters normalize single-object
// responses into a one-element Items slice.
type Page struct {
	Items []RawItem
	// TotalPages is the provider's page count, or 0 when unknown.
	TotalPages int
	// HasMore is consulted only when TotalPages is unknown.
	HasMore bool
	// Pending means the provider is still preparing the listing; the same
	// page must be requested again shortly.
	Pending bool
}

// Adapter connects one provider to the reconciler.
type Adapter interface {
	// Kind returns the media kind produced by the adapter.
	Kind() catalog.Kind

	// FetchPage returns page (starting at 1) of a partition. Errors wrapping
	// upstream.ErrTransient or ratelimit.ErrTooManyRequests are retried.
	FetchPage(ctx context.Context, partition catalog.Partition, page int) (*Page, error)

	// Build normalizes a raw item. On failure it may still return an item
	// carrying only the ID so that a stored copy is not swept.
	Build(raw RawItem, partition catalog.Partition) (*catalog.Item, error)
}

// IdentityKeyer overrides id-based diffing. Items with the same identity key
// but different ids are treated as already known.
type IdentityKeyer interface {
	IdentityKey(item *catalog.Item) string
}

// Enricher completes a new item with data from secondary services before its
// assets are fetched.
type Enricher interface {
	Enrich(ctx context.Context, item *catalog.Item) error
}

// AssetRequest describes one image to download for a new item.
type AssetRequest struct {
	URL      string
	Headers  map[string]string
	Filename string
	// Secondary stores the result in SecondaryImageLocalPath.
	Secondary bool
	// RateTag, when set, is waited on in the rate limiter before downloading.
	RateTag string
}

// AssetPlanner chooses the images downloaded for a new item. Adapters that do
// not implement it get PrimaryImageURL stored as cover-art.jpg.
type AssetPlanner interface {
	Assets(item *catalog.Item) []AssetRequest
}

// Finisher runs after a new item's assets were fetched.
type Finisher interface {
	Finish(ctx context.Context, item *catalog.Item) error
}

func defaultAssets(item *catalog.Item) []AssetRequest {
	if item.PrimaryImageURL == "" {
		return nil
	}
	return []AssetRequest{{URL: item.PrimaryImageURL, Filename: "cover-art.jpg"}}
}
