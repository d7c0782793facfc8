package records

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"collection-sync/core/catalog"
	"collection-sync/core/ratelimit"
	"collection-sync/core/upstream"

	"github.com/goccy/go-json"
)

const (
	// TagDiscogs is the rate limit tag of the Discogs API.
	TagDiscogs = "discogs"
	// TagITunes is the rate limit tag of the iTunes Search API.
	TagITunes = "itunes"

	allRecordsFolderID = 0
)

type pagination struct {
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

type artist struct {
	Name string `json:"name"`
}

type basicInformation struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Year        int      `json:"year"`
	ResourceURL string   `json:"resource_url"`
	CoverImage  string   `json:"cover_image"`
	Thumb       string   `json:"thumb"`
	Artists     []artist `json:"artists"`
}

// release is one entry of the collection ("releases") or wantlist ("wants").
type release struct {
	ID               int              `json:"id"`
	Rating           float64          `json:"rating"`
	FolderID         *int             `json:"folder_id,omitempty"`
	DateAdded        string           `json:"date_added"`
	BasicInformation basicInformation `json:"basic_information"`
}

type page struct {
	Pagination *pagination `json:"pagination"`
	Releases   []release   `json:"releases"`
	Wants      []release   `json:"wants"`
}

func (p *page) entries(partition catalog.Partition) []release {
	if partition == catalog.Wishlist {
		return p.Wants
	}
	return p.Releases
}

func (a *Adapter) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Discogs token=" + a.cfg.Token}
}

func (a *Adapter) pageURL(partition catalog.Partition, n int) string {
	base := strings.TrimRight(a.cfg.BaseURL, "/")
	user := url.PathEscape(a.cfg.UserID)
	q := fmt.Sprintf("page=%d&per_page=%d", n, a.cfg.PerPage)
	if partition == catalog.Wishlist {
		return fmt.Sprintf("%s/users/%s/wants?%s", base, user, q)
	}
	return fmt.Sprintf("%s/users/%s/collection/folders/%d/releases?%s", base, user, allRecordsFolderID, q)
}

func (a *Adapter) getJSON(ctx context.Context, tag, rawURL string, headers map[string]string, out any) error {
	var resp *upstream.Response
	err := a.limiter.Retry(ctx, tag, a.cfg.MaxRetries, func() error {
		var err error
		resp, err = a.client.Get(ctx, tag, rawURL, headers)
		if err != nil {
			return err
		}
		return throttled(resp.Body)
	})
	if err != nil {
		return err
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, "json") && !strings.Contains(ct, "javascript") {
		return fmt.Errorf("unexpected content type %q from %s", ct, rawURL)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", rawURL, err)
	}
	return nil
}

// throttled maps a {"message": ...} throttling notice sent with a success
// status to ratelimit.ErrTooManyRequests.
func throttled(body []byte) error {
	var notice struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &notice); err != nil {
		return nil
	}
	if ratelimit.LimitMessage(notice.Message) {
		return fmt.Errorf("%s: %w", notice.Message, ratelimit.ErrTooManyRequests)
	}
	return nil
}

// publicURL resolves the release's resource URL to its page on discogs.com.
func (a *Adapter) publicURL(ctx context.Context, resourceURL string) (string, error) {
	var body struct {
		URI string `json:"uri"`
	}
	if err := a.getJSON(ctx, TagDiscogs, resourceURL, a.authHeaders(), &body); err != nil {
		return "", err
	}
	return body.URI, nil
}
