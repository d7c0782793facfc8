package records

import (
	"fmt"
	"strconv"
	"strings"

	"collection-sync/core/catalog"
)

// build normalizes a Discogs release. Records without an artist are rejected
// but still carry their id.
func build(r *release, partition catalog.Partition, o catalog.KindOverrides) (*catalog.Item, error) {
	native := strconv.Itoa(r.ID)
	item := &catalog.Item{
		ID:               catalog.ID(catalog.KindRecord, native),
		Kind:             catalog.KindRecord,
		ProviderNativeID: native,
	}

	info := r.BasicInformation
	if len(info.Artists) == 0 || strings.TrimSpace(info.Artists[0].Name) == "" {
		return item, fmt.Errorf("record %s artist: %w", item.ID, catalog.ErrMissingField)
	}

	item.Title = catalog.Replace(o.Replacements.Titles, catalog.OrDefault(info.Title, catalog.DefaultTitle))
	item.SortTitle = catalog.SortText(item.Title)
	item.ArtistOrAuthor = catalog.Replace(o.Replacements.Artists, info.Artists[0].Name)
	item.SortArtistOrAuthor = catalog.SortText(item.ArtistOrAuthor)
	item.ProviderURL = info.ResourceURL
	item.YearOfRelease = info.Year
	item.YearOfOriginalRelease = info.Year
	item.InWishlist = partition == catalog.Wishlist

	if info.CoverImage != "" {
		item.PrimaryImageURL = info.CoverImage
	} else {
		item.PrimaryImageURL = info.Thumb
	}

	item.Rating = catalog.Unrated
	if r.Rating != 0 {
		item.Rating = r.Rating
	}
	return item, nil
}
