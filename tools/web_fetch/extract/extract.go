// Package extract turns raw HTML into the title, readable text and publish
// date used for scoring.
package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-shiori/go-readability"
)

const (
	MaxTextChars  = 12000
	maxDateProbes = 5
)

var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDateRe = regexp.MustCompile(`(?i)(?:date|time|published|updated)[^>]{0,120}content=['"]([^'"]+)['"]`)
	isoDateRe  = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

// Page is the extracted view of one HTML document.
type Page struct {
	Title       string
	Text        string
	PublishedAt time.Time
}

// FromHTML extracts a page. maxChars caps the text in runes; a non-positive
// value uses MaxTextChars.
func FromHTML(raw, pageURL string, maxChars int) (Page, error) {
	if maxChars <= 0 {
		maxChars = MaxTextChars
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(raw), u)
	if err != nil {
		return Page{}, fmt.Errorf("readability: %w", err)
	}

	title := Title(raw)
	if title == "" {
		title = strings.TrimSpace(article.Title)
	}
	if title == "" {
		title = pageURL
	}

	page := Page{
		Title: title,
		Text:  capRunes(strings.TrimSpace(article.TextContent), maxChars),
	}
	if ts, ok := PublishedAt(raw); ok {
		page.PublishedAt = ts
	}
	return page, nil
}

// Title returns the trimmed contents of the first <title> element.
func Title(raw string) string {
	m := titleRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// PublishedAt probes date-like meta attributes first, then bare ISO dates, and
// returns the first of the leading candidates that parses.
func PublishedAt(raw string) (time.Time, bool) {
	var candidates []string
	for _, m := range metaDateRe.FindAllStringSubmatch(raw, maxDateProbes) {
		candidates = append(candidates, m[1])
	}
	if len(candidates) < maxDateProbes {
		for _, m := range isoDateRe.FindAllStringSubmatch(raw, maxDateProbes-len(candidates)) {
			candidates = append(candidates, m[1])
		}
	}
	for _, c := range candidates {
		ts, err := dateparse.ParseAny(strings.TrimSpace(c))
		if err != nil || ts.IsZero() {
			continue
		}
		return ts, true
	}
	return time.Time{}, false
}

func capRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
