package boardgames

import (
	"fmt"
	"strings"

	"collection-sync/core/catalog"
	"collection-sync/core/utils"
)

const siteURL = "https://boardgamegeek.com/boardgame/"

// decode undoes the double escaping of names such as "Agricola &amp;#40;Revised&amp;#41;".
func decode(s string) string {
	return catalog.DecodeHTML(strings.TrimSpace(s))
}

// standardizeRating maps the 1-10 BoardGameGeek scale onto 0.5-5.
func standardizeRating(value string) float64 {
	if v, ok := utils.ToFloat(value); ok && v > 0 {
		return v / 2
	}
	return catalog.Unrated
}

func build(e *entry, partition catalog.Partition, o catalog.KindOverrides) (*catalog.Item, error) {
	if strings.TrimSpace(e.ObjectID) == "" {
		return nil, fmt.Errorf("board game objectid: %w", catalog.ErrMissingField)
	}
	item := &catalog.Item{
		ID:               catalog.ID(catalog.KindBoardGame, e.ObjectID),
		Kind:             catalog.KindBoardGame,
		ProviderNativeID: e.ObjectID,
		ProviderURL:      siteURL + e.ObjectID,
	}

	title := catalog.OrDefault(decode(e.Name), catalog.DefaultTitle)
	item.Title = catalog.Replace(o.Replacements.Titles, title)
	item.SortTitle = catalog.SortText(item.Title)
	item.PrimaryImageURL = decode(utils.FirstNonEmpty(e.Image, e.Thumbnail))
	item.YearOfRelease = utils.ToInt(e.YearPublished)
	item.Rating = standardizeRating(e.Stats.Rating.Value)
	item.InWishlist = partition == catalog.Wishlist
	return item, nil
}
