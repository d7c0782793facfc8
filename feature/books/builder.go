package books

import (
	"fmt"
	"strings"
	"time"

	"collection-sync/core/catalog"
	"collection-sync/core/utils"
)

const openLibraryCoverURL = "https://covers.openlibrary.org/b/ISBN/%s-L.jpg"

// coverURL picks the largest cover Goodreads offers. Goodreads serves a
// template image for covers it may not expose, so those go to OpenLibrary.
func coverURL(b *book) string {
	u := utils.FirstNonEmpty(b.LargeImageURL, b.ImageURL, b.SmallImageURL)
	if strings.Contains(u, "nophoto") {
		return fmt.Sprintf(openLibraryCoverURL, strings.TrimSpace(b.ISBN))
	}
	return upscale(u)
}

// upscale rewrites gr-assets size markers to request the large variant.
//
//	https://i.gr-assets.com/images/S/compressed.photo.goodreads.com/books/1/123._SX98_.jpg
//	https://images.gr-assets.com/books/1436292289m/5907.jpg
func upscale(u string) string {
	switch {
	case strings.Contains(u, "i.gr-assets.com"):
		if i := strings.LastIndex(u, "._S"); i >= 0 {
			return u[:i+3] + "Y475_.jpg"
		}
	case strings.Contains(u, "images.gr-assets.com"):
		if i := strings.LastIndex(u, "/") - 1; i > 0 {
			return u[:i] + "l" + u[i+1:]
		}
	}
	return u
}

func publicationDate(b *book) string {
	y, m, d := utils.ToInt(b.PublicationYear), utils.ToInt(b.PublicationMonth), utils.ToInt(b.PublicationDay)
	if y == 0 || m == 0 || d == 0 {
		return ""
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
}

func rating(b *book) float64 {
	if b.Review == nil {
		return catalog.Unrated
	}
	if v, ok := utils.ToFloat(b.Review.Rating); ok && v > 0 {
		return v
	}
	return catalog.Unrated
}

func build(r *raw, partition catalog.Partition, o catalog.KindOverrides) (*catalog.Item, error) {
	b := &r.book
	id := strings.TrimSpace(b.ID)
	if id == "" {
		return nil, fmt.Errorf("book id: %w", catalog.ErrMissingField)
	}
	item := &catalog.Item{
		ID:               catalog.ID(catalog.KindBook, id),
		Kind:             catalog.KindBook,
		ProviderNativeID: id,
		ProviderURL:      strings.TrimSpace(b.Link),
	}

	title := strings.ReplaceAll(catalog.DecodeHTML(strings.TrimSpace(b.Title)), "Â®", "")
	item.Title = catalog.Replace(o.Replacements.Titles, catalog.OrDefault(title, catalog.DefaultTitle))
	item.ShortenedTitle = catalog.MainPart(item.Title)
	item.SortTitle = catalog.SortText(item.ShortenedTitle)

	name := catalog.DefaultArtistOrAuthor
	if len(b.Authors) > 0 {
		name = catalog.OrDefault(catalog.DecodeHTML(strings.TrimSpace(b.Authors[0].Name)), name)
	}
	item.ArtistOrAuthor = catalog.MainPart(catalog.Replace(o.Replacements.Authors, name))
	item.SortArtistOrAuthor = catalog.SortText(item.ArtistOrAuthor)

	item.PrimaryImageURL = coverURL(b)
	item.ISBN = strings.TrimSpace(b.ISBN)
	item.ISBN13 = strings.TrimSpace(b.ISBN13)
	item.Publisher = strings.TrimSpace(b.Publisher)
	item.NumberOfPages = utils.ToInt(b.NumPages)
	item.PublicationDate = publicationDate(b)
	item.YearOfRelease = utils.ToInt(b.PublicationYear)
	item.Rating = rating(b)
	item.InWishlist = partition == catalog.Wishlist
	return item, nil
}
