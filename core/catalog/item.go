package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind identifies one media kind.
type Kind string

const (
	KindRecord    Kind = "record"
	KindBoardGame Kind = "boardgame"
	KindBook      Kind = "book"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindRecord, KindBoardGame, KindBook}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToLower(s) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Partition splits a kind's items into owned and wanted.
type Partition string

const (
	Collection Partition = "collection"
	Wishlist   Partition = "wishlist"
)

// Partitions lists both partitions in reconciliation order.
var Partitions = []Partition{Collection, Wishlist}

// ParsePartition validates a partition name.
func ParsePartition(s string) (Partition, error) {
	switch Partition(strings.ToLower(s)) {
	case Collection:
		return Collection, nil
	case Wishlist:
		return Wishlist, nil
	}
	return "", fmt.Errorf("unknown partition %q", s)
}

// PartitionOf returns the partition an item with the given wishlist flag belongs to.
func PartitionOf(inWishlist bool) Partition {
	if inWishlist {
		return Wishlist
	}
	return Collection
}

// Other returns the opposite partition.
func (p Partition) Other() Partition {
	if p == Wishlist {
		return Collection
	}
	return Wishlist
}

// Unrated marks an item without a user rating.
const Unrated = -1.0

// DefaultArtistOrAuthor is used when the provider does not name one.
const DefaultArtistOrAuthor = "Unknown"

// DefaultTitle is used when the provider does not supply a title.
const DefaultTitle = "Untitled"

// ErrMissingField is returned by builders when a required raw field is absent.
var ErrMissingField = errors.New("required field missing")

// Item is the canonical, storage-ready representation of one collection or wishlist entry.
type Item struct {
	ID               string `json:"id" bson:"_id"`
	Kind             Kind   `json:"kind" bson:"kind"`
	ProviderNativeID string `json:"providerNativeId" bson:"providerNativeId"`
	ProviderURL      string `json:"providerUrl" bson:"providerUrl"`

	Title              string `json:"title" bson:"title"`
	SortTitle          string `json:"sortTitle" bson:"sortTitle"`
	ShortenedTitle     string `json:"shortenedTitle,omitempty" bson:"shortenedTitle,omitempty"`
	ArtistOrAuthor     string `json:"artistOrAuthor,omitempty" bson:"artistOrAuthor,omitempty"`
	SortArtistOrAuthor string `json:"sortArtistOrAuthor,omitempty" bson:"sortArtistOrAuthor,omitempty"`

	PrimaryImageURL         string `json:"primaryImageUrl,omitempty" bson:"primaryImageUrl,omitempty"`
	SecondaryImageURL       string `json:"secondaryImageUrl,omitempty" bson:"secondaryImageUrl,omitempty"`
	PrimaryImageLocalPath   string `json:"primaryImageLocalPath" bson:"primaryImageLocalPath"`
	SecondaryImageLocalPath string `json:"secondaryImageLocalPath,omitempty" bson:"secondaryImageLocalPath,omitempty"`

	Rating     float64 `json:"rating" bson:"rating"`
	InWishlist bool    `json:"inWishlist" bson:"inWishlist"`

	YearOfRelease         int `json:"yearOfRelease,omitempty" bson:"yearOfRelease,omitempty"`
	YearOfOriginalRelease int `json:"yearOfOriginalRelease,omitempty" bson:"yearOfOriginalRelease,omitempty"`

	// Board games.
	PrimaryColor string  `json:"primaryColor,omitempty" bson:"primaryColor,omitempty"`
	Ratio        float64 `json:"ratio,omitempty" bson:"ratio,omitempty"`

	// Books.
	ISBN            string `json:"isbn,omitempty" bson:"isbn,omitempty"`
	ISBN13          string `json:"isbn13,omitempty" bson:"isbn13,omitempty"`
	Publisher       string `json:"publisher,omitempty" bson:"publisher,omitempty"`
	NumberOfPages   int    `json:"numberOfPages,omitempty" bson:"numberOfPages,omitempty"`
	PublicationDate string `json:"publicationDate,omitempty" bson:"publicationDate,omitempty"`

	AddedOn   time.Time `json:"addedOn" bson:"addedOn"`
	UpdatedOn time.Time `json:"updatedOn" bson:"updatedOn"`
}

// Partition returns the partition the item currently belongs to.
func (i *Item) Partition() Partition {
	return PartitionOf(i.InWishlist)
}

// Clone returns a copy of the item.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// ID builds a canonical id from a kind and a provider-native id.
func ID(kind Kind, nativeID string) string {
	return string(kind) + nativeID
}

// PlaceholderImagePath is the local path used when no artwork could be fetched.
func PlaceholderImagePath(kind Kind) string {
	return "/images/" + string(kind) + "/UNTITLED/missing-artwork.png"
}

// ChangesDetected reports whether any updatable field differs between a fresh
// build and the stored item.
func ChangesDetected(fresh, existing *Item) bool {
	return fresh.InWishlist != existing.InWishlist || fresh.Rating != existing.Rating
}

// Merge copies the updatable fields of fresh into a copy of existing. Every
// other field of existing is preserved.
func Merge(fresh, existing *Item, now time.Time) *Item {
	merged := existing.Clone()
	merged.InWishlist = fresh.InWishlist
	merged.Rating = fresh.Rating
	merged.UpdatedOn = now
	return merged
}
