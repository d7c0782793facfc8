package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"collection-sync/core/assets"
	"collection-sync/core/cache"
	"collection-sync/core/catalog"
	"collection-sync/core/docstore"
	"collection-sync/core/metrics"
	"collection-sync/core/notify"
	"collection-sync/core/ratelimit"
	"collection-sync/core/upstream"

	"go.uber.org/zap"
)

var (
	// ErrAccessPending is returned when the provider kept answering "not ready"
	// beyond the retry bound.
	ErrAccessPending = errors.New("provider access still pending")
	// ErrShutdown is returned when a cycle stopped early because its context
	// was cancelled.
	ErrShutdown = errors.New("shutdown requested")
	// ErrMalformedPage is returned when an adapter produced no page and no error.
	ErrMalformedPage = errors.New("malformed page")
)

// Reconciler diffs provider listings against the cache and document store.
type Reconciler struct {
	cache     *cache.Store
	docs      docstore.Store
	publisher notify.Publisher
	fetcher   assets.Fetcher
	limiter   *ratelimit.Registry
	logger    *zap.Logger
	opts      Options

	mu     sync.RWMutex
	states map[string]State
}

// New creates a Reconciler. limiter may be nil when no adapter tags its
// asset requests.
func New(c *cache.Store, docs docstore.Store, publisher notify.Publisher, fetcher assets.Fetcher, limiter *ratelimit.Registry, logger *zap.Logger, opts Options) *Reconciler {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Reconciler{
		cache:     c,
		docs:      docs,
		publisher: publisher,
		fetcher:   fetcher,
		limiter:   limiter,
		logger:    logger,
		opts:      opts.withDefaults(),
		states:    make(map[string]State),
	}
}

// WithDryRun returns a copy of r that computes actions without side effects.
func (r *Reconciler) WithDryRun() *Reconciler {
	opts := r.opts
	opts.DryRun = true
	return New(r.cache, r.docs, r.publisher, r.fetcher, r.limiter, r.logger, opts)
}

// State returns the current state of a (kind, partition) pass.
func (r *Reconciler) State(kind catalog.Kind, partition catalog.Partition) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.states[stateKey(kind, partition)]; ok {
		return s
	}
	return StateIdle
}

func (r *Reconciler) setState(kind catalog.Kind, partition catalog.Partition, s State) {
	r.mu.Lock()
	r.states[stateKey(kind, partition)] = s
	r.mu.Unlock()
}

func stateKey(kind catalog.Kind, partition catalog.Partition) string {
	return string(kind) + "/" + string(partition)
}

// cycle holds the bookkeeping shared by both passes of a cycle.
type cycle struct {
	adapter Adapter
	kind    catalog.Kind
	// seen is the set of ids observed upstream across both passes.
	seen map[string]struct{}
	// owned is the set of stored ids matched by the collection pass. The
	// collection wins when an item is listed in both partitions.
	owned map[string]struct{}
	// identities maps identity keys to stored ids when the adapter is an
	// IdentityKeyer.
	identities map[string]string
	keyer      IdentityKeyer
}

// RunCycle runs the collection pass, then the wishlist pass, then removes
// stored items that neither pass observed. The removal sweep is skipped when
// a pass did not complete.
func (r *Reconciler) RunCycle(ctx context.Context, adapter Adapter) (*CycleReport, error) {
	kind := adapter.Kind()
	report := &CycleReport{Kind: kind, StartedAt: r.opts.Now(), DryRun: r.opts.DryRun}
	start := time.Now()
	logger := r.logger.With(zap.String("kind", string(kind)))

	previous := make(map[string]catalog.Partition)
	for _, p := range catalog.Partitions {
		for _, id := range r.cache.GetIDs(kind, p) {
			previous[id] = p
		}
	}

	c := &cycle{adapter: adapter, kind: kind, seen: make(map[string]struct{}), owned: make(map[string]struct{})}
	if k, ok := adapter.(IdentityKeyer); ok {
		c.keyer = k
		c.identities = r.identityIndex(kind, k)
	}

	if len(previous) == 0 && !r.opts.DryRun {
		r.publisher.PublishControl(ctx, notify.SyncStarted, kind)
	}

	err := r.runPasses(ctx, c, report)
	if err == nil {
		r.sweep(ctx, c, previous, report)
		report.Complete = true
	}

	for _, pass := range report.Passes {
		r.report(logger, kind, pass)
	}

	report.FinishedAt = r.opts.Now()
	if !r.opts.DryRun {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		metrics.SyncCycles.WithLabelValues(string(kind), outcome).Inc()
		metrics.SyncCycleDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}
	return report, err
}

func (r *Reconciler) runPasses(ctx context.Context, c *cycle, report *CycleReport) error {
	for _, p := range catalog.Partitions {
		pass := report.pass(p)
		err := r.runPass(ctx, c, pass)
		r.setState(c.kind, p, StateIdle)
		if err != nil {
			pass.Err = err
			return err
		}
	}
	return nil
}

func (r *Reconciler) identityIndex(kind catalog.Kind, keyer IdentityKeyer) map[string]string {
	idx := make(map[string]string)
	for _, p := range catalog.Partitions {
		for _, item := range r.cache.GetAll(kind, p) {
			idx[keyer.IdentityKey(item)] = item.ID
		}
	}
	return idx
}

func (r *Reconciler) runPass(ctx context.Context, c *cycle, pass *PassResult) error {
	logger := r.logger.With(zap.String("kind", string(c.kind)), zap.String("partition", string(pass.Partition)))
	pending := 0

	for page := 1; ; {
		if ctx.Err() != nil {
			return ErrShutdown
		}
		r.setState(c.kind, pass.Partition, StatePaginating)

		pg, err := r.fetchPage(ctx, c.adapter, pass.Partition, page, logger)
		if err != nil {
			return err
		}

		if pg.Pending {
			pending++
			if pending > r.opts.MaxPendingRetries {
				logger.Warn("Provider access still pending, giving up until next run",
					zap.Int("page", page),
					zap.Int("attempts", pending),
				)
				return ErrAccessPending
			}
			logger.Debug("Provider access pending, retrying page", zap.Int("page", page))
			if err := ratelimit.Sleep(ctx, r.opts.PendingDelay); err != nil {
				return ErrShutdown
			}
			continue
		}
		pending = 0

		r.setState(c.kind, pass.Partition, StateItemProcessing)
		for _, raw := range pg.Items {
			if ctx.Err() != nil {
				return ErrShutdown
			}
			pass.add(r.processItem(ctx, c, pass.Partition, raw, logger))
		}
		pass.Pages++

		if pg.TotalPages > 0 {
			if page >= pg.TotalPages {
				return nil
			}
		} else if !pg.HasMore {
			return nil
		}
		page++
	}
}

func (r *Reconciler) fetchPage(ctx context.Context, adapter Adapter, partition catalog.Partition, page int, logger *zap.Logger) (*Page, error) {
	for attempt := 0; ; attempt++ {
		pg, err := adapter.FetchPage(ctx, partition, page)
		if err == nil {
			if pg == nil {
				return nil, fmt.Errorf("page %d: %w", page, ErrMalformedPage)
			}
			return pg, nil
		}
		if ctx.Err() != nil {
			return nil, ErrShutdown
		}
		retryable := errors.Is(err, upstream.ErrTransient) || errors.Is(err, ratelimit.ErrTooManyRequests)
		if !retryable || attempt >= r.opts.MaxFetchRetries {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		logger.Warn("Transient error fetching page, retrying",
			zap.Int("page", page),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if err := ratelimit.Sleep(ctx, r.opts.RetryDelay*time.Duration(attempt+1)); err != nil {
			return nil, ErrShutdown
		}
	}
}

func (r *Reconciler) processItem(ctx context.Context, c *cycle, partition catalog.Partition, raw RawItem, logger *zap.Logger) ItemResult {
	item, err := c.adapter.Build(raw, partition)
	if err != nil {
		res := ItemResult{Partition: partition, Action: ActionSkipped, ErrKind: ErrKindNormalize, Err: err}
		if item != nil && item.ID != "" {
			c.seen[item.ID] = struct{}{}
			res.ID = item.ID
		}
		logger.Warn("Skipping item that could not be normalized", zap.String("id", res.ID), zap.Error(err))
		return res
	}
	item.Kind = c.kind
	c.seen[item.ID] = struct{}{}
	res := ItemResult{ID: item.ID, Title: item.Title, Partition: partition}

	existing, err := r.lookup(ctx, c, item)
	if err != nil {
		res.Action, res.ErrKind, res.Err = ActionFailed, ErrKindLookup, err
		logger.Error("Failed to look up stored item", zap.String("id", item.ID), zap.Error(err))
		return res
	}

	switch {
	case c.ownedElsewhere(partition, item, existing):
		// Listed in both partitions; the collection pass already placed it.
		if existing != nil {
			c.seen[existing.ID] = struct{}{}
		}
		res.Action = ActionKnown
	case existing == nil:
		r.create(ctx, c, item, &res, logger)
	case existing.ID != item.ID:
		// Same identity under another provider id, e.g. a second pressing.
		c.seen[existing.ID] = struct{}{}
		res.Action = ActionKnown
	case !catalog.ChangesDetected(item, existing):
		res.Action = ActionKnown
	default:
		r.update(ctx, item, existing, &res, logger)
	}

	if partition == catalog.Collection && res.Action != ActionFailed {
		c.owned[item.ID] = struct{}{}
		if existing != nil {
			c.owned[existing.ID] = struct{}{}
		}
	}

	if !r.opts.DryRun {
		metrics.SyncItems.WithLabelValues(string(c.kind), string(partition), string(res.Action)).Inc()
	}
	return res
}

// ownedElsewhere reports whether a wishlist entry refers to an item the
// collection pass of this cycle already matched.
func (c *cycle) ownedElsewhere(partition catalog.Partition, item, existing *catalog.Item) bool {
	if partition != catalog.Wishlist {
		return false
	}
	if _, ok := c.owned[item.ID]; ok {
		return true
	}
	if existing != nil {
		_, ok := c.owned[existing.ID]
		return ok
	}
	return false
}

func (r *Reconciler) lookup(ctx context.Context, c *cycle, item *catalog.Item) (*catalog.Item, error) {
	if c.keyer != nil {
		if id, ok := c.identities[c.keyer.IdentityKey(item)]; ok {
			if existing, _, found := r.cache.GetByID(c.kind, id); found {
				return existing, nil
			}
		}
	}
	if existing, _, found := r.cache.GetByID(c.kind, item.ID); found {
		return existing, nil
	}
	existing, err := r.docs.FindOne(context.WithoutCancel(ctx), c.kind, docstore.ByID(item.ID))
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *Reconciler) create(ctx context.Context, c *cycle, item *catalog.Item, res *ItemResult, logger *zap.Logger) {
	now := r.opts.Now()
	item.AddedOn = now
	item.UpdatedOn = now
	res.Action = ActionNew
	if r.opts.DryRun {
		return
	}
	work := context.WithoutCancel(ctx)

	var warnings []error
	if e, ok := c.adapter.(Enricher); ok {
		if err := e.Enrich(ctx, item); err != nil {
			res.ErrKind = ErrKindEnrich
			warnings = append(warnings, err)
			logger.Warn("Failed to enrich item", zap.String("id", item.ID), zap.Error(err))
		}
	}

	if err := r.fetchAssets(ctx, c.adapter, item, logger); err != nil {
		res.ErrKind = ErrKindAsset
		warnings = append(warnings, err)
	}

	if f, ok := c.adapter.(Finisher); ok {
		if err := f.Finish(work, item); err != nil {
			res.ErrKind = ErrKindAsset
			warnings = append(warnings, err)
			logger.Warn("Failed to finish item", zap.String("id", item.ID), zap.Error(err))
		}
	}
	res.Err = errors.Join(warnings...)

	if err := r.docs.Upsert(work, c.kind, item); err != nil {
		res.Action, res.ErrKind, res.Err = ActionFailed, ErrKindPersist, err
		logger.Error("Failed to store new item", zap.String("id", item.ID), zap.Error(err))
		return
	}
	r.cache.Upsert(item)
	if c.keyer != nil {
		c.identities[c.keyer.IdentityKey(item)] = item.ID
	}
	r.publisher.Publish(work, notify.Added, item.Partition(), item)
	logger.Debug("Added item", zap.String("id", item.ID), zap.String("title", item.Title))
}

// fetchAssets downloads the item's images. A failed primary download leaves
// the placeholder path in place.
func (r *Reconciler) fetchAssets(ctx context.Context, adapter Adapter, item *catalog.Item, logger *zap.Logger) error {
	item.PrimaryImageLocalPath = catalog.PlaceholderImagePath(item.Kind)

	var requests []AssetRequest
	if p, ok := adapter.(AssetPlanner); ok {
		requests = p.Assets(item)
	} else {
		requests = defaultAssets(item)
	}
	if len(requests) == 0 || r.fetcher == nil {
		return nil
	}

	destDir := string(item.Kind) + "/" + item.ID
	var errs []error
	for _, req := range requests {
		if req.RateTag != "" && r.limiter != nil {
			if err := r.limiter.Wait(ctx, req.RateTag); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", req.URL, err))
				continue
			}
			r.limiter.RecordCall(req.RateTag)
		}
		local, err := r.fetcher.Download(context.WithoutCancel(ctx), req.URL, req.Headers, destDir, req.Filename, r.opts.MaxDimension)
		if err != nil {
			logger.Warn("Failed to download artwork",
				zap.String("id", item.ID),
				zap.String("url", req.URL),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if req.Secondary {
			item.SecondaryImageLocalPath = local
		} else {
			item.PrimaryImageLocalPath = local
		}
	}
	return errors.Join(errs...)
}

func (r *Reconciler) update(ctx context.Context, fresh, existing *catalog.Item, res *ItemResult, logger *zap.Logger) {
	merged := catalog.Merge(fresh, existing, r.opts.Now())
	res.Action = ActionUpdated
	if r.opts.DryRun {
		return
	}
	work := context.WithoutCancel(ctx)
	if err := r.docs.Upsert(work, merged.Kind, merged); err != nil {
		res.Action, res.ErrKind, res.Err = ActionFailed, ErrKindPersist, err
		logger.Error("Failed to update item", zap.String("id", merged.ID), zap.Error(err))
		return
	}
	r.cache.Upsert(merged)
	r.publisher.Publish(work, notify.Updated, merged.Partition(), merged)
	logger.Debug("Updated item",
		zap.String("id", merged.ID),
		zap.Bool("inWishlist", merged.InWishlist),
		zap.Float64("rating", merged.Rating),
	)
}

// sweep deletes items that were stored when the cycle started but were not
// observed by either pass.
func (r *Reconciler) sweep(ctx context.Context, c *cycle, previous map[string]catalog.Partition, report *CycleReport) {
	ids := make([]string, 0, len(previous))
	for id := range previous {
		if _, ok := c.seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	work := context.WithoutCancel(ctx)
	for _, id := range ids {
		item, partition, ok := r.cache.GetByID(c.kind, id)
		if !ok {
			partition = previous[id]
		}
		pass := report.pass(partition)
		res := ItemResult{ID: id, Partition: partition, Action: ActionRemoved}
		if item != nil {
			res.Title = item.Title
		}

		if !r.opts.DryRun {
			if err := r.docs.DeleteByID(work, c.kind, id); err != nil && !errors.Is(err, docstore.ErrNotFound) {
				res.Action, res.ErrKind, res.Err = ActionFailed, ErrKindPersist, err
				r.logger.Error("Failed to remove item", zap.String("id", id), zap.Error(err))
				pass.add(res)
				continue
			}
			removed, _ := r.cache.Remove(c.kind, id)
			if removed == nil {
				removed = &catalog.Item{ID: id, Kind: c.kind}
			}
			r.publisher.Publish(work, notify.Removed, partition, removed)
			metrics.SyncItems.WithLabelValues(string(c.kind), string(partition), string(ActionRemoved)).Inc()
		}
		pass.add(res)
	}
}

func (r *Reconciler) report(logger *zap.Logger, kind catalog.Kind, pass *PassResult) {
	r.setState(kind, pass.Partition, StateReporting)
	defer r.setState(kind, pass.Partition, StateIdle)

	fields := []zap.Field{
		zap.String("partition", string(pass.Partition)),
		zap.Int("pages", pass.Pages),
		zap.Int("known", pass.Stats.Known),
		zap.Int("new", pass.Stats.New),
		zap.Int("updated", pass.Stats.Updated),
		zap.Int("removed", pass.Stats.Removed),
		zap.Int("skipped", pass.Stats.Skipped),
		zap.Int("failed", pass.Stats.Failed),
		zap.Bool("dryRun", r.opts.DryRun),
	}
	if pass.Err != nil {
		logger.Warn("Pass aborted", append(fields, zap.Error(pass.Err))...)
		return
	}
	if pass.Stats.Changed() {
		logger.Info("Changes detected", fields...)
		return
	}
	logger.Debug("No changes", fields...)
}
