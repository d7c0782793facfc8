package catalog

import (
	"html"
	"strings"
)

const sortArticle = "THE "

// SortText uppercases text and strips any leading "THE ".
func SortText(text string) string {
	s := strings.ToUpper(strings.TrimSpace(text))
	for strings.HasPrefix(s, sortArticle) {
		s = strings.TrimSpace(strings.TrimPrefix(s, sortArticle))
	}
	return s
}

// DecodeHTML decodes entities twice, for providers that double-encode.
func DecodeHTML(s string) string {
	return html.UnescapeString(html.UnescapeString(s))
}

// MainPart strips subtitles and series suffixes from a title.
//
//	"Bitwise: A Life in Code"                         -> "Bitwise"
//	"Star Wars / The Empire Strikes Back"             -> "Star Wars"
//	"The Practice of Programming (Addison-Wesley ...)" -> "The Practice of Programming"
//	"僕のヒーローアカデミア 3 [Boku No Hero Academia 3] (My Hero Academia, #3)" -> "My Hero Academia, #3"
func MainPart(title string) string {
	if strings.Index(title, "[") > 0 && strings.Index(title, "]") > 0 &&
		strings.Index(title, "#") > 0 {
		open, end := strings.Index(title, "("), strings.Index(title, ")")
		if open > 0 && end > open {
			title = title[open+1 : end]
		}
	}
	if i := strings.Index(title, ":"); i > 0 {
		title = strings.TrimSpace(title[:i])
	}
	if i := strings.Index(title, "/"); i > 0 {
		title = strings.TrimSpace(title[:i])
	}
	if dash := strings.Index(title, "-"); dash > 0 {
		if paren := strings.Index(title, "("); paren == -1 || paren >= dash {
			title = strings.TrimSpace(title[:dash])
		}
	}
	if paren := strings.Index(title, "("); paren > 0 {
		if dash := strings.Index(title, "-"); dash == -1 || dash >= paren {
			title = strings.TrimSpace(title[:paren])
		}
	}
	return title
}

// OrDefault returns fallback when s is blank.
func OrDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
