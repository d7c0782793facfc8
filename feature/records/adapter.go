package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/ratelimit"
	"collection-sync/core/reconcile"
	"collection-sync/core/upstream"

	"go.uber.org/zap"
)

const (
	discogsArtFile = "discogs-album-art.jpg"
	itunesArtFile  = "itunes-album-art.jpg"
)

// Adapter mirrors a Discogs collection and wantlist.
type Adapter struct {
	cfg       Config
	client    *upstream.Client
	limiter   *ratelimit.Registry
	overrides catalog.KindOverrides
	artSize   int
	logger    *zap.Logger
}

// NewAdapter creates the records adapter and registers the Discogs and iTunes
// rate limit policies.
func NewAdapter(cfg Config, client *upstream.Client, limiter *ratelimit.Registry, overrides catalog.KindOverrides, artSize int, logger *zap.Logger) *Adapter {
	if cfg.PerPage <= 0 {
		cfg.PerPage = 100
	}
	if cfg.CooldownSeconds <= 0 {
		cfg.CooldownSeconds = 70
	}
	if cfg.ITunesCallsPerMinute <= 0 {
		cfg.ITunesCallsPerMinute = 20
	}
	limiter.Register(TagDiscogs, ratelimit.NewHeaderPolicy(1, time.Duration(cfg.CooldownSeconds)*time.Second,
		"X-Discogs-Ratelimit-Remaining", "X-Discogs-Ratelimit"))
	limiter.Register(TagITunes, ratelimit.NewCountPolicy(cfg.ITunesCallsPerMinute, time.Minute))

	return &Adapter{
		cfg:       cfg,
		client:    client,
		limiter:   limiter,
		overrides: overrides,
		artSize:   artSize,
		logger:    logger,
	}
}

// Kind implements reconcile.Adapter.
func (a *Adapter) Kind() catalog.Kind {
	return catalog.KindRecord
}

// FetchPage implements reconcile.Adapter.
func (a *Adapter) FetchPage(ctx context.Context, partition catalog.Partition, n int) (*reconcile.Page, error) {
	var p page
	if err := a.getJSON(ctx, TagDiscogs, a.pageURL(partition, n), a.authHeaders(), &p); err != nil {
		return nil, fmt.Errorf("discogs %s page %d: %w", partition, n, err)
	}

	if p.Pagination == nil {
		return nil, fmt.Errorf("discogs %s page %d: no pagination: %w", partition, n, reconcile.ErrMalformedPage)
	}

	entries := p.entries(partition)
	items := make([]reconcile.RawItem, 0, len(entries))
	for i := range entries {
		items = append(items, &entries[i])
	}
	return &reconcile.Page{Items: items, TotalPages: p.Pagination.Pages}, nil
}

// Build implements reconcile.Adapter.
func (a *Adapter) Build(raw reconcile.RawItem, partition catalog.Partition) (*catalog.Item, error) {
	r, ok := raw.(*release)
	if !ok {
		return nil, fmt.Errorf("unexpected raw record %T", raw)
	}
	return build(r, partition, a.overrides)
}

// IdentityKey treats pressings with the same normalized title and artist as
// one record.
func (a *Adapter) IdentityKey(item *catalog.Item) string {
	return catalog.SortText(item.Title) + "\x00" + catalog.SortText(item.ArtistOrAuthor)
}

// Enrich resolves the public Discogs page and looks up the iTunes artwork and
// original release year.
func (a *Adapter) Enrich(ctx context.Context, item *catalog.Item) error {
	var errs []error

	if item.ProviderURL != "" {
		if uri, err := a.publicURL(ctx, item.ProviderURL); err != nil {
			errs = append(errs, fmt.Errorf("discogs page: %w", err))
		} else if uri != "" {
			item.ProviderURL = uri
		}
	}

	m, err := a.searchITunes(ctx, item.Title, item.ArtistOrAuthor)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("itunes: %w", err))
	case m == nil:
		a.logger.Warn("No iTunes match", zap.String("title", item.Title), zap.String("artist", item.ArtistOrAuthor))
	default:
		item.SecondaryImageURL = m.ArtworkURL
		// Years after the pressing are reissue dates.
		if m.Year > 0 && m.Year <= item.YearOfRelease {
			item.YearOfOriginalRelease = m.Year
		}
	}
	return errors.Join(errs...)
}

// Assets implements reconcile.AssetPlanner.
func (a *Adapter) Assets(item *catalog.Item) []reconcile.AssetRequest {
	var reqs []reconcile.AssetRequest
	if item.PrimaryImageURL != "" {
		reqs = append(reqs, reconcile.AssetRequest{
			URL:      item.PrimaryImageURL,
			Headers:  a.authHeaders(),
			Filename: discogsArtFile,
			RateTag:  TagDiscogs,
		})
	}
	if item.SecondaryImageURL != "" {
		reqs = append(reqs, reconcile.AssetRequest{
			URL:       item.SecondaryImageURL,
			Filename:  itunesArtFile,
			Secondary: true,
		})
	}
	return reqs
}
