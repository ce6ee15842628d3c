// Package discovery turns subqueries into candidate links using the configured
// web search provider.
package discovery

import (
	"context"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/verisearch/internal/logging"
	"github.com/mohammad-safakhou/verisearch/internal/telemetry"
	"github.com/mohammad-safakhou/verisearch/models"
	searchmodels "github.com/mohammad-safakhou/verisearch/tools/web_search/models"
	"go.uber.org/zap"
)

const DefaultPerQuery = 5

// Searcher is satisfied by web_search.WebSearcher.
type Searcher interface {
	Discover(ctx context.Context, q string, k int) ([]searchmodels.Result, error)
}

type Discoverer struct {
	searcher    Searcher
	blocklist   []string
	concurrency int
	logger      *zap.Logger
	metrics     *telemetry.Metrics
}

// New builds a Discoverer. A nil searcher makes every lookup return no links.
func New(searcher Searcher, blocklist []string, concurrency int, logger *zap.Logger, metrics *telemetry.Metrics) *Discoverer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Discoverer{
		searcher:    searcher,
		blocklist:   append([]string(nil), blocklist...),
		concurrency: concurrency,
		logger:      logging.OrNop(logger).Named("discovery"),
		metrics:     metrics,
	}
}

// Discover runs one search for q. Search failures yield an empty list rather
// than an error. Block-listed and empty URLs are dropped; provider order is
// kept.
func (d *Discoverer) Discover(ctx context.Context, q string, k int) []models.Candidate {
	if k <= 0 {
		k = DefaultPerQuery
	}
	if d.searcher == nil {
		return nil
	}
	results, err := d.searcher.Discover(ctx, q, k)
	if err != nil {
		d.logger.Warn("search failed", zap.String("query", q), zap.Error(err))
		d.metrics.Discovery("error", 1)
		return nil
	}

	out := make([]models.Candidate, 0, len(results))
	var blocked, empty int
	for _, r := range results {
		link := strings.TrimSpace(r.URL)
		switch {
		case link == "":
			empty++
		case d.Blocked(link):
			blocked++
		default:
			title := strings.TrimSpace(r.Title)
			if title == "" {
				title = link
			}
			out = append(out, models.Candidate{Title: title, URL: link})
		}
	}
	d.metrics.Discovery("kept", len(out))
	d.metrics.Discovery("blocked", blocked)
	d.metrics.Discovery("empty", empty)
	d.logger.Debug("discovered", zap.String("query", q), zap.Int("kept", len(out)), zap.Int("blocked", blocked))
	return out
}

// Blocked reports whether link contains any block-listed fragment.
func (d *Discoverer) Blocked(link string) bool {
	lower := strings.ToLower(link)
	for _, b := range d.blocklist {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}

// DiscoverAll searches every subquery with bounded concurrency and
// concatenates the links in subquery order.
func (d *Discoverer) DiscoverAll(ctx context.Context, subqueries []string, k int) []models.Candidate {
	perQuery := make([][]models.Candidate, len(subqueries))
	sem := make(chan struct{}, d.concurrency)
	var wg sync.WaitGroup

	for i, q := range subqueries {
		if ctx.Err() != nil {
			d.logger.Debug("discovery cut short", zap.Int("started", i), zap.Error(ctx.Err()))
			break
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			continue
		}
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			defer func() { <-sem }()
			perQuery[i] = d.Discover(ctx, q, k)
		}(i, q)
	}
	wg.Wait()
	return flatten(perQuery)
}

func flatten(parts [][]models.Candidate) []models.Candidate {
	var out []models.Candidate
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
