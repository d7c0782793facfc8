// Package books mirrors Goodreads owned books (collection) and the to-read
// shelf (wishlist).
//
// Items are keyed by the Goodreads book id in both listings, so a book bought
// from the wishlist moves between partitions instead of being replaced.
// Covers Goodreads cannot expose are fetched from OpenLibrary by ISBN, paced
// under their own rate limit tag.
package books
