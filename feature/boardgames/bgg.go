package boardgames

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"collection-sync/core/catalog"
	"collection-sync/core/ratelimit"
)

// TagBGG is the rate limit tag of the BoardGameGeek XML API.
const TagBGG = "boardgamegeek"

const pendingMessage = "try again later"

// ErrProvider is returned when BoardGameGeek answers with an error document.
var ErrProvider = errors.New("boardgamegeek error")

type status struct {
	Own      int `xml:"own,attr"`
	Wishlist int `xml:"wishlist,attr"`
}

type rating struct {
	Value string `xml:"value,attr"`
}

type stats struct {
	Rating rating `xml:"rating"`
}

// entry is one <item> of a collection response.
type entry struct {
	ObjectID      string `xml:"objectid,attr"`
	Subtype       string `xml:"subtype,attr"`
	Name          string `xml:"name"`
	YearPublished string `xml:"yearpublished"`
	Image         string `xml:"image"`
	Thumbnail     string `xml:"thumbnail"`
	Stats         stats  `xml:"stats"`
	Status        status `xml:"status"`
}

type collection struct {
	XMLName    xml.Name
	TotalItems int     `xml:"totalitems,attr"`
	Items      []entry `xml:"item"`
	// <message> root, sent while the export is being prepared
	Text string `xml:",chardata"`
	// <errors><error><message>..</message></error></errors>
	Errors []string `xml:"error>message"`
	// <error><message>..</message></error>
	Message string `xml:"message"`
}

func (a *Adapter) collectionURL(partition catalog.Partition) string {
	q := url.Values{}
	q.Set("username", a.cfg.UserID)
	q.Set("stats", "1")
	if partition == catalog.Wishlist {
		q.Set("wishlist", "1")
	}
	return strings.TrimRight(a.cfg.BaseURL, "/") + "/xmlapi2/collection?" + q.Encode()
}

// fetchCollection returns the parsed document, or pending=true when the
// export is not ready yet. Rate limit notices are retried after a cooldown.
func (a *Adapter) fetchCollection(ctx context.Context, partition catalog.Partition) (doc *collection, pending bool, err error) {
	err = a.limiter.Retry(ctx, TagBGG, a.cfg.MaxRetries, func() error {
		resp, err := a.client.Get(ctx, TagBGG, a.collectionURL(partition), nil)
		if err != nil {
			return err
		}
		doc, pending, err = parseCollection(resp.StatusCode, resp.Body)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return doc, pending, nil
}

func parseCollection(statusCode int, body []byte) (*collection, bool, error) {
	if statusCode == http.StatusAccepted {
		return nil, true, nil
	}

	doc := &collection{}
	if err := xml.Unmarshal(body, doc); err != nil {
		return nil, false, fmt.Errorf("failed to decode collection: %w", err)
	}

	var text string
	switch doc.XMLName.Local {
	case "items":
		return doc, false, nil
	case "message":
		text = strings.TrimSpace(doc.Text)
	case "error":
		text = strings.TrimSpace(doc.Message)
	case "errors":
		text = strings.Join(doc.Errors, "; ")
	default:
		return nil, false, fmt.Errorf("unexpected document <%s>", doc.XMLName.Local)
	}

	switch {
	case ratelimit.LimitMessage(text):
		return nil, false, fmt.Errorf("%s: %w", text, ratelimit.ErrTooManyRequests)
	case doc.XMLName.Local == "message" && strings.Contains(strings.ToLower(text), pendingMessage):
		return nil, true, nil
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrProvider, text)
	}
}

// keep reports whether e belongs to partition. Both listings are requested
// unfiltered because filtering drops the rating from the response.
func keep(e *entry, partition catalog.Partition) bool {
	if e.Subtype != "boardgame" {
		return false
	}
	if partition == catalog.Wishlist {
		return e.Status.Own == 0
	}
	return e.Status.Own > 0
}
