// Package reconcile keeps the cache and the document store in line with a
// provider's collection and wishlist.
//
// A cycle runs two passes, collection then wishlist. Each pass moves through
// the states idle, paginating, item processing and reporting. Every raw item
// is normalized by the provider Adapter and diffed against the stored copy:
//
//   - unknown ids are enriched, get their artwork downloaded, are stored and
//     announced as "added"
//   - known ids whose wishlist flag or rating changed are merged (all other
//     stored fields are kept) and announced as "updated"
//   - everything else is counted as known
//
// Once both passes finished, ids that were stored when the cycle started and
// that neither pass observed are deleted and announced as "removed". Sweeping
// over the union of both partitions means an item moving between collection
// and wishlist is updated, never removed and re-added.
//
// Adapters opt into extra steps by implementing IdentityKeyer, Enricher,
// AssetPlanner or Finisher.
//
// # Shutdown
//
// Cancelling the context passed to RunCycle stops the cycle before the next
// page or item. Work already started on an item (downloads, writes) runs to
// completion.
//
// # Dry runs
//
//	r := reconcile.New(store, docs, hub, fetcher, limits, logger, opts).WithDryRun()
//	report, err := r.RunCycle(ctx, adapter)
//	plan := reconcile.BuildPlan(report, err)
package reconcile
