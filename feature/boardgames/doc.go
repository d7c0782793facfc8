// Package boardgames mirrors a BoardGameGeek collection and wishlist through
// the XML API 2.
//
// Both listings are single documents. While BoardGameGeek prepares an export
// it answers 202 (or a <message> asking to try again later); the adapter
// reports those as pending pages and the reconciler retries shortly after.
// Ratings are halved onto a five star scale. After a new game's cover is
// stored, its dominant colour and aspect ratio are recorded for the UI.
package boardgames
