package records

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Discogs disambiguates homonymous artists as "Name (2)".
var disambiguation = regexp.MustCompile(`\s+\(\d+\)$`)

type album struct {
	ArtistName     string `json:"artistName"`
	CollectionName string `json:"collectionName"`
	ArtworkURL100  string `json:"artworkUrl100"`
	ReleaseDate    string `json:"releaseDate"`
}

type searchResult struct {
	ResultCount int     `json:"resultCount"`
	Results     []album `json:"results"`
}

// match is the best iTunes album found for a record.
type match struct {
	ArtworkURL string
	Year       int
}

func (a *Adapter) searchURL(title, artistName string) string {
	term := strings.ReplaceAll(title+" "+artistName, " ", "+")
	return strings.TrimRight(a.cfg.ITunesURL, "/") + "/search?entity=album&limit=100&term=" +
		url.PathEscape(term)
}

// searchITunes looks the record up on iTunes. A nil match without error means
// iTunes had no convincing result.
func (a *Adapter) searchITunes(ctx context.Context, title, artistName string) (*match, error) {
	title = searchTerm(a.overrides.SearchAssistance.Titles, title)
	artistName = searchTerm(a.overrides.SearchAssistance.Artists, disambiguation.ReplaceAllString(artistName, ""))

	var res searchResult
	if err := a.getJSON(ctx, TagITunes, a.searchURL(title, artistName), nil, &res); err != nil {
		return nil, err
	}
	best, ok := bestAlbum(res.Results, title, artistName)
	if !ok {
		return nil, nil
	}

	m := &match{ArtworkURL: best.ArtworkURL100}
	if a.artSize > 0 {
		m.ArtworkURL = strings.Replace(best.ArtworkURL100, "100x100", sizeToken(a.artSize), 1)
	}
	if t, err := time.Parse(time.RFC3339, best.ReleaseDate); err == nil {
		m.Year = t.UTC().Year()
	}
	return m, nil
}

func searchTerm(aliases map[string]string, value string) string {
	if alias, ok := aliases[value]; ok && alias != "" {
		return alias
	}
	return value
}

func sizeToken(n int) string {
	s := strconv.Itoa(n)
	return s + "x" + s
}

// bestAlbum keeps the albums whose artist fuzzily matches artistName, then
// picks the one whose collection name is closest to title.
func bestAlbum(albums []album, title, artistName string) (album, bool) {
	names := make([]string, len(albums))
	for i, a := range albums {
		names[i] = a.ArtistName
	}
	byArtist := fuzzy.RankFindNormalizedFold(artistName, names)
	if len(byArtist) == 0 {
		return album{}, false
	}

	candidates := make([]album, 0, len(byArtist))
	collections := make([]string, 0, len(byArtist))
	for _, r := range byArtist {
		candidates = append(candidates, albums[r.OriginalIndex])
		collections = append(collections, albums[r.OriginalIndex].CollectionName)
	}
	byTitle := fuzzy.RankFindNormalizedFold(title, collections)
	if len(byTitle) == 0 {
		return album{}, false
	}
	sort.Stable(byTitle)
	return candidates[byTitle[0].OriginalIndex], true
}
