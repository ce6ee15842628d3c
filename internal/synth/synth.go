// Package synth renders ranked documents into the bulleted answer text.
package synth

import (
	"math"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/verisearch/internal/helpers"
	"github.com/mohammad-safakhou/verisearch/models"
)

const DefaultBullets = 6

var noResults = map[string]string{
	"es": "Sin resultados relevantes.",
	"en": "No relevant results.",
}

// NoResultsMessage returns the localized empty-answer text, falling back to
// Spanish for unknown locales.
func NoResultsMessage(locale string) string {
	if msg, ok := noResults[strings.ToLower(strings.TrimSpace(locale))]; ok {
		return msg
	}
	return noResults["es"]
}

type Composer struct {
	Locale string
}

// Compose writes one "• title → url" line per document for the first n
// documents. An empty rendering yields the no-results message.
func (c Composer) Compose(docs []models.Document, n int) string {
	if n > len(docs) {
		n = len(docs)
	}
	lines := make([]string, 0, n)
	for _, d := range docs[:max(n, 0)] {
		title := helpers.PlainText(d.Title)
		if title == "" {
			title = d.URL
		}
		lines = append(lines, "• "+title+" → "+d.URL)
	}
	if len(lines) == 0 {
		return NoResultsMessage(c.Locale)
	}
	return strings.Join(lines, "\n")
}

// ParseBulletCount reads a bullet count from a decoded request value. Ints,
// integral floats and numeric strings are accepted; anything else, or a
// negative number, yields def.
func ParseBulletCount(raw any, def int) int {
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v > math.MaxInt32 {
			return def
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n < 0 {
		return def
	}
	return n
}
