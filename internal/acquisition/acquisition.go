// Package acquisition fetches candidate links into documents on a shared
// worker pool, deduplicating by URL within each run.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mohammad-safakhou/verisearch/internal/helpers"
	"github.com/mohammad-safakhou/verisearch/internal/logging"
	"github.com/mohammad-safakhou/verisearch/internal/telemetry"
	"github.com/mohammad-safakhou/verisearch/models"
	fetchmodels "github.com/mohammad-safakhou/verisearch/tools/web_fetch/models"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	DefaultConcurrency = 4
	MaxTextChars       = 12000

	// submitRetry is how long Acquire waits before asking a saturated pool
	// for a worker again.
	submitRetry = 10 * time.Millisecond
)

// Fetcher is satisfied by web_fetch.WebFetcher.
type Fetcher interface {
	Exec(ctx context.Context, url string) (fetchmodels.Result, error)
}

type Options struct {
	Concurrency    int
	MaxTextChars   int
	CanonicalDedup bool
}

type Acquirer struct {
	fetcher   Fetcher
	pool      *ants.Pool
	maxChars  int
	canonical bool
	logger    *zap.Logger
	metrics   *telemetry.Metrics
}

// New creates an Acquirer and its worker pool. Call Close to release the pool.
func New(fetcher Fetcher, opts Options, logger *zap.Logger, metrics *telemetry.Metrics) (*Acquirer, error) {
	if fetcher == nil {
		return nil, errors.New("acquisition: fetcher is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxTextChars <= 0 {
		opts.MaxTextChars = MaxTextChars
	}
	pool, err := ants.NewPool(opts.Concurrency, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("acquisition: create pool: %w", err)
	}
	return &Acquirer{
		fetcher:   fetcher,
		pool:      pool,
		maxChars:  opts.MaxTextChars,
		canonical: opts.CanonicalDedup,
		logger:    logging.OrNop(logger).Named("acquisition"),
		metrics:   metrics,
	}, nil
}

func (a *Acquirer) Close() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// Acquire fetches every distinct candidate URL. Output follows the order of
// first occurrence in candidates. Failed fetches are dropped. If ctx ends
// before all fetches finish, the documents completed so far are returned.
func (a *Acquirer) Acquire(ctx context.Context, candidates []models.Candidate) []models.Document {
	seen := NewSeenSet()
	slots := make([]*models.Document, len(candidates))
	var (
		mu   sync.Mutex
		done bool
		wg   sync.WaitGroup
	)

	for i, c := range candidates {
		if !seen.Mark(a.key(c.URL)) {
			a.metrics.Fetch("duplicate")
			continue
		}
		if ctx.Err() != nil {
			a.metrics.Fetch("cancelled")
			continue
		}
		i, c := i, c
		wg.Add(1)
		err := a.submit(ctx, func() {
			defer wg.Done()
			doc, ok := a.fetch(ctx, c)
			if !ok {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if done {
				a.metrics.Fetch("cancelled")
				return
			}
			slots[i] = &doc
		})
		if err != nil {
			wg.Done()
			if ctx.Err() != nil {
				a.metrics.Fetch("cancelled")
				continue
			}
			a.metrics.Fetch("rejected")
			a.logger.Warn("fetch rejected by pool", zap.String("url", c.URL), zap.Error(err))
		}
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		a.logger.Debug("acquisition deadline reached", zap.Error(ctx.Err()))
	}

	mu.Lock()
	done = true
	out := make([]models.Document, 0, len(slots))
	for _, d := range slots {
		if d != nil {
			out = append(out, *d)
		}
	}
	mu.Unlock()
	return out
}

// submit hands task to the shared pool. The pool is shared across requests,
// so while it is saturated submit keeps retrying until ctx ends.
func (a *Acquirer) submit(ctx context.Context, task func()) error {
	for {
		err := a.pool.Submit(task)
		if !errors.Is(err, ants.ErrPoolOverload) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(submitRetry):
		}
	}
}

func (a *Acquirer) key(url string) string {
	if !a.canonical {
		return url
	}
	if k, err := helpers.CanonicalURL(url); err == nil {
		return k
	}
	return url
}

func (a *Acquirer) fetch(ctx context.Context, c models.Candidate) (models.Document, bool) {
	res, err := a.fetcher.Exec(ctx, c.URL)
	if err != nil {
		outcome := "error"
		if ctx.Err() != nil {
			outcome = "cancelled"
		}
		a.metrics.Fetch(outcome)
		a.logger.Debug("fetch failed", zap.String("url", c.URL), zap.Error(err))
		return models.Document{}, false
	}
	a.metrics.Fetch("ok")

	title := res.Title
	if title == "" {
		title = c.URL
	}
	doc := models.Document{
		URL:   c.URL,
		Title: title,
		Text:  capRunes(res.Text, a.maxChars),
	}
	if !res.PublishedAt.IsZero() {
		doc.Timestamp = res.PublishedAt.Unix()
	}
	return doc, true
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
