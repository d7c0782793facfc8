package books

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"collection-sync/core/catalog"
	"collection-sync/core/ratelimit"
	"collection-sync/core/reconcile"
	"collection-sync/core/upstream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ownedPage1 = `<?xml version="1.0" encoding="UTF-8"?>
<GoodreadsResponse>
  <owned_books>
    <owned_book>
      <id>900</id>
      <book>
        <id type="integer">22328546</id>
        <isbn>0345816021</isbn>
        <isbn13>9780345816023</isbn13>
        <title>Station Eleven: A Novel</title>
        <image_url>https://images.gr-assets.com/books/1451446835m/22328546.jpg</image_url>
        <link>https://www.goodreads.com/book/show/22328546</link>
        <num_pages>333</num_pages>
        <publisher>Knopf</publisher>
        <publication_day>9</publication_day>
        <publication_month>9</publication_month>
        <publication_year>2014</publication_year>
        <authors><author><id>1</id><name>Emily St. John Mandel</name></author></authors>
      </book>
      <review><rating>5</rating></review>
    </owned_book>
    <owned_book>
      <id>901</id>
      <book>
        <id type="integer">77</id>
        <isbn>0131103628</isbn>
        <title>The C Programming LanguageÂ®</title>
        <image_url>https://s.gr-assets.com/assets/nophoto/book/111x148.png</image_url>
        <authors><author><id>2</id><name>Brian W. Kernighan</name></author></authors>
      </book>
      <review><rating>0</rating></review>
    </owned_book>
  </owned_books>
</GoodreadsResponse>`

const emptyOwned = `<?xml version="1.0" encoding="UTF-8"?>
<GoodreadsResponse>
  <owned_books>
</owned_books>
</GoodreadsResponse>`

const shelfPage = `<?xml version="1.0" encoding="UTF-8"?>
<GoodreadsResponse>
  <books start="1" end="1" total="2" numpages="2" currentpage="1">
    <book>
      <id type="integer">4214</id>
      <title>Life of Pi</title>
      <large_image_url>https://i.gr-assets.com/images/S/compressed.photo.goodreads.com/books/1/4214._SX98_.jpg</large_image_url>
      <authors><author><id>3</id><name>Yann Martel</name></author></authors>
    </book>
  </books>
</GoodreadsResponse>`

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	limiter := ratelimit.NewRegistry(zap.NewNop(), ratelimit.WithJitter(0))
	client := upstream.New("goodreads", upstream.Config{TimeoutSeconds: 5}, limiter, zap.NewNop())
	overrides := catalog.KindOverrides{
		Replacements: catalog.Replacements{
			Titles:  map[string]string{"Life of Pi": "Life of Pi (Illustrated)"},
			Authors: map[string]string{"Brian W. Kernighan": "Brian Kernighan"},
		},
	}
	return NewAdapter(Config{UserID: "42", Key: "k", BaseURL: srv.URL}, client, limiter, overrides, zap.NewNop())
}

func goodreadsHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/xml")
		switch r.URL.Path {
		case "/owned_books/user/42.xml":
			if page == "1" {
				_, _ = w.Write([]byte(ownedPage1))
				return
			}
			_, _ = w.Write([]byte(emptyOwned))
		case "/review/list/42.xml":
			assert.Equal(t, "to-read", r.URL.Query().Get("shelf"))
			if page == "3" {
				_, _ = w.Write([]byte(`<GoodreadsResponse><books numpages="2"></books></GoodreadsResponse>`))
				return
			}
			_, _ = w.Write([]byte(shelfPage))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestFetchPage(t *testing.T) {
	a := newTestAdapter(t, goodreadsHandler(t))
	ctx := context.Background()

	tests := []struct {
		name         string
		partition    catalog.Partition
		page         int
		expectItems  int
		expectMore   bool
		expectTotals int
	}{
		{name: "OwnedFirstPage", partition: catalog.Collection, page: 1, expectItems: 2, expectMore: true},
		{name: "OwnedEmptyPageEnds", partition: catalog.Collection, page: 2},
		{name: "ShelfReportsPages", partition: catalog.Wishlist, page: 1, expectItems: 1, expectTotals: 2},
		{name: "ShelfEmptyPage", partition: catalog.Wishlist, page: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := a.FetchPage(ctx, tt.partition, tt.page)
			require.NoError(t, err)
			assert.Len(t, page.Items, tt.expectItems)
			assert.Equal(t, tt.expectMore, page.HasMore)
			assert.Equal(t, tt.expectTotals, page.TotalPages)
		})
	}

	t.Run("UpstreamError", func(t *testing.T) {
		bad := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := bad.FetchPage(ctx, catalog.Collection, 1)
		var statusErr *upstream.StatusError
		assert.ErrorAs(t, err, &statusErr)
	})
}

func TestFetchPageRejectsUnexpectedDocuments(t *testing.T) {
	tests := []struct {
		name      string
		partition catalog.Partition
		body      string
		expectErr error
	}{
		{name: "ErrorRoot", partition: catalog.Collection, body: `<error>Invalid API key</error>`, expectErr: reconcile.ErrMalformedPage},
		{name: "MissingOwnedBooks", partition: catalog.Collection, body: `<GoodreadsResponse><Request></Request></GoodreadsResponse>`, expectErr: reconcile.ErrMalformedPage},
		{name: "MissingShelf", partition: catalog.Wishlist, body: `<GoodreadsResponse><Request></Request></GoodreadsResponse>`, expectErr: reconcile.ErrMalformedPage},
		{name: "NotXML", partition: catalog.Collection, body: `<html><body>maintenance`, expectErr: reconcile.ErrMalformedPage},
		{name: "ThrottledDocument", partition: catalog.Collection, body: `<error>Too many requests</error>`, expectErr: ratelimit.ErrRetriesExhausted},
		{name: "ThrottledText", partition: catalog.Wishlist, body: `Rate limit exceeded`, expectErr: ratelimit.ErrRetriesExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			page, err := a.FetchPage(context.Background(), tt.partition, 1)
			assert.ErrorIs(t, err, tt.expectErr)
			assert.Nil(t, page)
		})
	}
}

func TestFetchPageThrottledThenServed(t *testing.T) {
	calls := 0
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_, _ = w.Write([]byte(`<error>Too many requests</error>`))
			return
		}
		_, _ = w.Write([]byte(ownedPage1))
	})
	a.cfg.MaxRetries = 1

	page, err := a.FetchPage(context.Background(), catalog.Collection, 1)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, calls)
}

func TestBuild(t *testing.T) {
	a := newTestAdapter(t, goodreadsHandler(t))
	ctx := context.Background()

	owned, err := a.FetchPage(ctx, catalog.Collection, 1)
	require.NoError(t, err)
	wanted, err := a.FetchPage(ctx, catalog.Wishlist, 1)
	require.NoError(t, err)

	t.Run("OwnedBook", func(t *testing.T) {
		item, err := a.Build(owned.Items[0], catalog.Collection)
		require.NoError(t, err)
		assert.Equal(t, "book22328546", item.ID, "keyed by the book id, not the ownership id")
		assert.Equal(t, "Station Eleven: A Novel", item.Title)
		assert.Equal(t, "Station Eleven", item.ShortenedTitle)
		assert.Equal(t, "STATION ELEVEN", item.SortTitle)
		assert.Equal(t, "Emily St. John Mandel", item.ArtistOrAuthor)
		assert.Equal(t, "https://images.gr-assets.com/books/1451446835l/22328546.jpg", item.PrimaryImageURL)
		assert.Equal(t, "https://www.goodreads.com/book/show/22328546", item.ProviderURL)
		assert.Equal(t, "0345816021", item.ISBN)
		assert.Equal(t, "9780345816023", item.ISBN13)
		assert.Equal(t, "Knopf", item.Publisher)
		assert.Equal(t, 333, item.NumberOfPages)
		assert.Equal(t, "2014-09-09", item.PublicationDate)
		assert.Equal(t, 5.0, item.Rating)
		assert.False(t, item.InWishlist)
	})

	t.Run("NoPhotoFallsBackToOpenLibrary", func(t *testing.T) {
		item, err := a.Build(owned.Items[1], catalog.Collection)
		require.NoError(t, err)
		assert.Equal(t, "The C Programming Language", item.Title)
		assert.Equal(t, "C PROGRAMMING LANGUAGE", item.SortTitle)
		assert.Equal(t, "Brian Kernighan", item.ArtistOrAuthor)
		assert.Equal(t, "https://covers.openlibrary.org/b/ISBN/0131103628-L.jpg", item.PrimaryImageURL)
		assert.Equal(t, catalog.Unrated, item.Rating)
		assert.Empty(t, item.PublicationDate)

		assets := a.Assets(item)
		require.Len(t, assets, 1)
		assert.Equal(t, TagOpenLibrary, assets[0].RateTag)
		assert.Equal(t, "book-cover-art.jpg", assets[0].Filename)
	})

	t.Run("ShelfBook", func(t *testing.T) {
		item, err := a.Build(wanted.Items[0], catalog.Wishlist)
		require.NoError(t, err)
		assert.Equal(t, "book4214", item.ID)
		assert.Equal(t, "Life of Pi (Illustrated)", item.Title)
		assert.Equal(t, "Life of Pi", item.ShortenedTitle)
		assert.Equal(t, "https://i.gr-assets.com/images/S/compressed.photo.goodreads.com/books/1/4214._SY475_.jpg", item.PrimaryImageURL)
		assert.Equal(t, catalog.Unrated, item.Rating)
		assert.True(t, item.InWishlist)

		assets := a.Assets(item)
		require.Len(t, assets, 1)
		assert.Empty(t, assets[0].RateTag)
	})

	t.Run("MissingID", func(t *testing.T) {
		_, err := a.Build(&raw{book: book{Title: "Nameless"}}, catalog.Collection)
		assert.ErrorIs(t, err, catalog.ErrMissingField)
	})

	t.Run("DefaultAuthor", func(t *testing.T) {
		item, err := a.Build(&raw{book: book{ID: "5", Title: "Anonymous"}}, catalog.Collection)
		require.NoError(t, err)
		assert.Equal(t, catalog.DefaultArtistOrAuthor, item.ArtistOrAuthor)
	})
}

func TestInterfaces(t *testing.T) {
	a := newTestAdapter(t, goodreadsHandler(t))
	assert.Implements(t, (*reconcile.Adapter)(nil), a)
	assert.Implements(t, (*reconcile.AssetPlanner)(nil), a)
}
