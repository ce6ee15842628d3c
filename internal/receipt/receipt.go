// Package receipt derives the audit digest that binds a query, its evidence
// and the rendered answer.
package receipt

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	excerptChars = 400
	entryChars   = 512
	answerChars  = 1024
)

// Excerpt is the evidence recorded for one ranked document.
type Excerpt struct {
	URL     string
	Content string
}

type Input struct {
	Root       string
	Excerpts   []Excerpt
	Answer     string
	AcceptedAt time.Time
}

// RootID is the first 16 hex characters of SHA-1 over the query and the
// acceptance time in fractional unix seconds.
func RootID(query string, acceptedAt time.Time) string {
	secs := float64(acceptedAt.UnixNano()) / 1e9
	sum := sha1.Sum([]byte(query + strconv.FormatFloat(secs, 'f', -1, 64)))
	return hex.EncodeToString(sum[:])[:16]
}

// ExcerptOf keeps the first 400 characters of a document's text.
func ExcerptOf(url, text string) Excerpt {
	return Excerpt{URL: url, Content: prefix(text, excerptChars)}
}

// Generate returns the lowercase hex SHA-256 over the root, each excerpt
// (url+content, capped at 512 characters) in order, the answer capped at 1024
// characters and the acceptance time in whole unix seconds.
func Generate(in Input) string {
	h := sha256.New()
	h.Write([]byte(in.Root))
	for _, e := range in.Excerpts {
		h.Write([]byte(prefix(e.URL+e.Content, entryChars)))
	}
	h.Write([]byte(prefix(in.Answer, answerChars)))
	h.Write([]byte(strconv.FormatInt(in.AcceptedAt.Unix(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
