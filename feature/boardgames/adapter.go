package boardgames

import (
	"context"
	"fmt"
	"time"

	"collection-sync/core/assets"
	"collection-sync/core/catalog"
	"collection-sync/core/ratelimit"
	"collection-sync/core/reconcile"
	"collection-sync/core/upstream"

	"go.uber.org/zap"
)

const coverArtFile = "cover-art.jpg"

// Adapter mirrors a BoardGameGeek collection and wishlist.
type Adapter struct {
	cfg       Config
	client    *upstream.Client
	limiter   *ratelimit.Registry
	overrides catalog.KindOverrides
	// localFile maps a public image path to the file on disk.
	localFile func(publicPath string) string
	logger    *zap.Logger
}

// NewAdapter creates the board games adapter.
func NewAdapter(cfg Config, client *upstream.Client, limiter *ratelimit.Registry, overrides catalog.KindOverrides, localFile func(string) string, logger *zap.Logger) *Adapter {
	if cfg.CallsPerMinute > 0 {
		limiter.Register(TagBGG, ratelimit.NewCountPolicy(cfg.CallsPerMinute, time.Minute))
	}
	return &Adapter{cfg: cfg, client: client, limiter: limiter, overrides: overrides, localFile: localFile, logger: logger}
}

// Kind implements reconcile.Adapter.
func (a *Adapter) Kind() catalog.Kind {
	return catalog.KindBoardGame
}

// FetchPage implements reconcile.Adapter. BoardGameGeek does not paginate, so
// only page 1 exists.
func (a *Adapter) FetchPage(ctx context.Context, partition catalog.Partition, n int) (*reconcile.Page, error) {
	if n > 1 {
		return &reconcile.Page{}, nil
	}
	doc, pending, err := a.fetchCollection(ctx, partition)
	if err != nil {
		return nil, fmt.Errorf("boardgamegeek %s: %w", partition, err)
	}
	if pending {
		return &reconcile.Page{Pending: true}, nil
	}

	items := make([]reconcile.RawItem, 0, len(doc.Items))
	for i := range doc.Items {
		if keep(&doc.Items[i], partition) {
			items = append(items, &doc.Items[i])
		}
	}
	return &reconcile.Page{Items: items, TotalPages: 1}, nil
}

// Build implements reconcile.Adapter.
func (a *Adapter) Build(raw reconcile.RawItem, partition catalog.Partition) (*catalog.Item, error) {
	e, ok := raw.(*entry)
	if !ok {
		return nil, fmt.Errorf("unexpected raw board game %T", raw)
	}
	return build(e, partition, a.overrides)
}

// Finish records the dominant colour and aspect ratio of the downloaded cover.
func (a *Adapter) Finish(_ context.Context, item *catalog.Item) error {
	if a.localFile == nil || item.PrimaryImageLocalPath == catalog.PlaceholderImagePath(item.Kind) {
		return nil
	}
	info, err := assets.Describe(a.localFile(item.PrimaryImageLocalPath))
	if err != nil {
		return fmt.Errorf("failed to describe cover of %s: %w", item.ID, err)
	}
	item.PrimaryColor = info.PrimaryColor
	item.Ratio = info.Ratio
	return nil
}
