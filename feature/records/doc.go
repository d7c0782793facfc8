// Package records mirrors a Discogs collection and wantlist.
//
// Releases are listed 100 per page and normalized into catalog items with id
// "record<discogs id>". Pressings sharing a title and artist are reconciled
// as one record. New records are enriched with their public Discogs page and
// with iTunes artwork and original release year; both images are stored next
// to each other, Discogs art as the primary image.
//
// Discogs budgets are read from the X-Discogs-Ratelimit-Remaining header;
// iTunes publishes none, so calls are counted against a per-minute budget.
package records
