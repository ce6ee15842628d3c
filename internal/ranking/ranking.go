// Package ranking orders scored documents and keeps the best ones.
package ranking

import (
	"sort"

	"github.com/mohammad-safakhou/verisearch/models"
)

const DefaultLimit = 8

// Rank sorts docs by composite score, highest first, and truncates to limit.
// Equal scores keep their acquisition order. A non-positive limit uses
// DefaultLimit. The input slice is not modified.
func Rank(docs []models.Document, limit int) []models.Document {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := append([]models.Document(nil), docs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
