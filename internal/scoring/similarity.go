package scoring

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/xrash/smetrics"
)

// Similarity reports how alike two strings are on a 0..100 scale. ok is false
// when the capability is unavailable.
type Similarity interface {
	Ratio(a, b string) (ratio float64, ok bool)
}

// TokenSortRatio compares strings after sorting their whitespace-separated
// tokens, using the normalized indel distance.
type TokenSortRatio struct{}

func (TokenSortRatio) Ratio(a, b string) (float64, bool) {
	return indelRatio(sortTokens(a), sortTokens(b)), true
}

// NoSimilarity is the stand-in used when similarity scoring is disabled.
type NoSimilarity struct{}

func (NoSimilarity) Ratio(string, string) (float64, bool) { return 0, false }

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// indelRatio is 100 * (1 - d/(len(a)+len(b))) where d counts insertions and
// deletions only; a substitution costs two. Lengths and edits are per rune.
func indelRatio(a, b string) float64 {
	a, b = runeBytes(a, b)
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 100 * (1 - float64(d)/float64(total))
}

// runeBytes re-encodes a and b so that every distinct rune becomes a single
// byte, letting the byte-based smetrics distance count characters. Inputs
// with more than 256 distinct runes are returned unchanged.
func runeBytes(a, b string) (string, string) {
	if isASCII(a) && isASCII(b) {
		return a, b
	}
	codes := make(map[rune]byte)
	encode := func(s string) ([]byte, bool) {
		out := make([]byte, 0, len(s))
		for _, r := range s {
			c, ok := codes[r]
			if !ok {
				if len(codes) == 256 {
					return nil, false
				}
				c = byte(len(codes))
				codes[r] = c
			}
			out = append(out, c)
		}
		return out, true
	}
	ea, ok := encode(a)
	if !ok {
		return a, b
	}
	eb, ok := encode(b)
	if !ok {
		return a, b
	}
	return string(ea), string(eb)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
