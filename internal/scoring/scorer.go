// Package scoring assigns each acquired document a composite score built from
// content relevance, domain trust and recency.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/mohammad-safakhou/verisearch/models"
)

const (
	// NeutralContent is used when similarity is unavailable.
	NeutralContent = 0.6
	// NeutralDomain is used when the domain cannot be parsed or matches no
	// trust key.
	NeutralDomain = 0.5
	contentBoost  = 0.15
)

type Weights struct {
	Content float64
	Domain  float64
	Recency float64
}

var DefaultWeights = Weights{Content: 0.45, Domain: 0.30, Recency: 0.25}

type Scorer struct {
	similarity Similarity
	domains    DomainParser
	trust      TrustTable
	weights    Weights
	now        func() time.Time
}

type Option func(*Scorer)

func WithSimilarity(s Similarity) Option { return func(sc *Scorer) { sc.similarity = s } }
func WithDomainParser(p DomainParser) Option { return func(sc *Scorer) { sc.domains = p } }
func WithClock(now func() time.Time) Option { return func(sc *Scorer) { sc.now = now } }
func WithWeights(w Weights) Option { return func(sc *Scorer) { sc.weights = w } }

// NewScorer builds a scorer over the given trust table. Without options it
// uses the token-sort similarity, the public suffix parser and the wall clock.
func NewScorer(trust map[string]float64, opts ...Option) *Scorer {
	s := &Scorer{
		similarity: TokenSortRatio{},
		domains:    PublicSuffixParser{},
		trust:      TrustTable(trust),
		weights:    DefaultWeights,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.similarity == nil {
		s.similarity = NoSimilarity{}
	}
	if s.domains == nil {
		s.domains = NoDomainParser{}
	}
	return s
}

// Content is min(1, ratio/100 + 0.15) over the lower-cased query and title+text.
func (s *Scorer) Content(doc models.Document, query string) float64 {
	r, ok := s.similarity.Ratio(strings.ToLower(query), strings.ToLower(doc.Title+" "+doc.Text))
	if !ok {
		return NeutralContent
	}
	return clamp01(math.Min(1, r/100+contentBoost))
}

func (s *Scorer) Domain(rawURL string) float64 {
	p, ok := s.domains.Parts(rawURL)
	if !ok {
		return NeutralDomain
	}
	return clamp01(s.trust.Score(p, NeutralDomain))
}

func (s *Scorer) Recency(ts int64) float64 {
	return Recency(ts, s.now())
}

// Score fills doc.Scores and doc.Score and returns the updated document.
func (s *Scorer) Score(doc models.Document, query string) models.Document {
	doc.Scores = models.Scores{
		Content: s.Content(doc, query),
		Domain:  s.Domain(doc.URL),
		Recency: s.Recency(doc.Timestamp),
	}
	doc.Score = clamp01(s.weights.Content*doc.Scores.Content +
		s.weights.Domain*doc.Scores.Domain +
		s.weights.Recency*doc.Scores.Recency)
	return doc
}

// ScoreAll scores docs in place order.
func (s *Scorer) ScoreAll(docs []models.Document, query string) []models.Document {
	out := make([]models.Document, len(docs))
	for i, d := range docs {
		out[i] = s.Score(d, query)
	}
	return out
}

// Degraded lists the capabilities currently served by a neutral stand-in.
func (s *Scorer) Degraded() []string {
	var out []string
	if _, ok := s.similarity.(NoSimilarity); ok {
		out = append(out, "similarity")
	}
	if _, ok := s.domains.(NoDomainParser); ok {
		out = append(out, "domain_parser")
	}
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
