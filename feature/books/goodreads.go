package books

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"collection-sync/core/catalog"
	"collection-sync/core/ratelimit"
	"collection-sync/core/reconcile"
	"collection-sync/core/upstream"
)

const (
	// TagGoodreads is the rate limit tag of the Goodreads API.
	TagGoodreads = "goodreads"
	// TagOpenLibrary is the rate limit tag of OpenLibrary cover downloads.
	TagOpenLibrary = "openlibrary"
)

type author struct {
	ID   string `xml:"id"`
	Name string `xml:"name"`
}

type review struct {
	Rating string `xml:"rating"`
}

// book is a Goodreads <book> element. Owned books nest it under <owned_book>.
type book struct {
	ID               string   `xml:"id"`
	Title            string   `xml:"title"`
	ISBN             string   `xml:"isbn"`
	ISBN13           string   `xml:"isbn13"`
	Link             string   `xml:"link"`
	NumPages         string   `xml:"num_pages"`
	Publisher        string   `xml:"publisher"`
	PublicationDay   string   `xml:"publication_day"`
	PublicationMonth string   `xml:"publication_month"`
	PublicationYear  string   `xml:"publication_year"`
	ImageURL         string   `xml:"image_url"`
	SmallImageURL    string   `xml:"small_image_url"`
	LargeImageURL    string   `xml:"large_image_url"`
	Authors          []author `xml:"authors>author"`
	Review           *review  `xml:"review"`
}

type ownedBook struct {
	ID     string  `xml:"id"`
	Book   book    `xml:"book"`
	Review *review `xml:"review"`
}

const responseRoot = "GoodreadsResponse"

type ownedBooksResponse struct {
	OwnedBooks *struct {
		Items []ownedBook `xml:"owned_book"`
	} `xml:"owned_books"`
}

type shelfResponse struct {
	Books *struct {
		NumPages string `xml:"numpages,attr"`
		Book     []book `xml:"book"`
	} `xml:"books"`
}

// document is the root element of any response.
type document struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

// raw is the unit handed to Build; the owned book review rating is lifted
// onto the nested book.
type raw struct {
	book book
}

func (a *Adapter) pageURL(partition catalog.Partition, page int) string {
	base := strings.TrimRight(a.cfg.BaseURL, "/")
	q := url.Values{}
	q.Set("key", a.cfg.Key)
	q.Set("page", strconv.Itoa(page))
	if partition == catalog.Wishlist {
		q.Set("v", "2")
		q.Set("shelf", "to-read")
		return fmt.Sprintf("%s/review/list/%s.xml?%s", base, url.PathEscape(a.cfg.UserID), q.Encode())
	}
	return fmt.Sprintf("%s/owned_books/user/%s.xml?%s", base, url.PathEscape(a.cfg.UserID), q.Encode())
}

func (a *Adapter) getXML(ctx context.Context, u string, out any) error {
	var resp *upstream.Response
	err := a.limiter.Retry(ctx, TagGoodreads, a.cfg.MaxRetries, func() error {
		var err error
		resp, err = a.client.Get(ctx, TagGoodreads, u, nil)
		if err != nil {
			return err
		}
		return checkRoot(resp.Body)
	})
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode goodreads response: %w", err)
	}
	return nil
}

// checkRoot accepts only <GoodreadsResponse> documents. Throttling notices
// map to ratelimit.ErrTooManyRequests; anything else is a malformed page.
func checkRoot(body []byte) error {
	var doc document
	err := xml.Unmarshal(body, &doc)
	if err == nil && doc.XMLName.Local == responseRoot {
		return nil
	}
	text := strings.TrimSpace(doc.Text)
	if err != nil {
		text = strings.TrimSpace(string(body))
	}
	if ratelimit.LimitMessage(text) {
		return fmt.Errorf("goodreads: %s: %w", text, ratelimit.ErrTooManyRequests)
	}
	if err != nil {
		return fmt.Errorf("failed to decode goodreads response: %v: %w", err, reconcile.ErrMalformedPage)
	}
	return fmt.Errorf("unexpected goodreads document <%s> %q: %w", doc.XMLName.Local, text, reconcile.ErrMalformedPage)
}

func (a *Adapter) fetchOwned(ctx context.Context, page int) ([]raw, error) {
	var doc ownedBooksResponse
	if err := a.getXML(ctx, a.pageURL(catalog.Collection, page), &doc); err != nil {
		return nil, err
	}
	if doc.OwnedBooks == nil {
		return nil, fmt.Errorf("no owned_books element: %w", reconcile.ErrMalformedPage)
	}
	out := make([]raw, 0, len(doc.OwnedBooks.Items))
	for _, ob := range doc.OwnedBooks.Items {
		b := ob.Book
		if b.Review == nil {
			b.Review = ob.Review
		}
		out = append(out, raw{book: b})
	}
	return out, nil
}

func (a *Adapter) fetchShelf(ctx context.Context, page int) ([]raw, int, error) {
	var doc shelfResponse
	if err := a.getXML(ctx, a.pageURL(catalog.Wishlist, page), &doc); err != nil {
		return nil, 0, err
	}
	if doc.Books == nil {
		return nil, 0, fmt.Errorf("no books element: %w", reconcile.ErrMalformedPage)
	}
	numPages, _ := strconv.Atoi(strings.TrimSpace(doc.Books.NumPages))
	out := make([]raw, 0, len(doc.Books.Book))
	for _, b := range doc.Books.Book {
		out = append(out, raw{book: b})
	}
	return out, numPages, nil
}
