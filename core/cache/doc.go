// Package cache holds the in-memory read model of every kind.
//
// Each kind has two id->item maps, collection and wishlist. An id lives in at
// most one of them: Upsert routes an item by its InWishlist flag and removes it
// from the other map. The reconciler is the only writer; readers receive
// copies and never observe a half-applied upsert.
//
// # Reload
//
// ReloadAll rebuilds every map from the Document Store. Concurrent callers
// share a single in-flight reload through singleflight, and the kinds are
// loaded in parallel with an errgroup. The swap happens only once every kind
// has loaded, so a failed reload leaves the previous state untouched.
package cache
