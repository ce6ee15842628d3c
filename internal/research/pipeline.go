// Package research wires the retrieval, ranking and synthesis stages into a
// single request pipeline.
package research

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/verisearch/config"
	"github.com/mohammad-safakhou/verisearch/internal/acquisition"
	"github.com/mohammad-safakhou/verisearch/internal/discovery"
	"github.com/mohammad-safakhou/verisearch/internal/logging"
	"github.com/mohammad-safakhou/verisearch/internal/planner"
	"github.com/mohammad-safakhou/verisearch/internal/policy"
	"github.com/mohammad-safakhou/verisearch/internal/ranking"
	"github.com/mohammad-safakhou/verisearch/internal/receipt"
	"github.com/mohammad-safakhou/verisearch/internal/safety"
	"github.com/mohammad-safakhou/verisearch/internal/scoring"
	"github.com/mohammad-safakhou/verisearch/internal/synth"
	"github.com/mohammad-safakhou/verisearch/internal/telemetry"
	"github.com/mohammad-safakhou/verisearch/models"
	"go.uber.org/zap"
)

// Result is the answer to one research request.
type Result struct {
	Answer     string          `json:"answer"`
	Sources    []models.Source `json:"sources"`
	Subqueries []string        `json:"subqueries"`
	Receipt    string          `json:"receipt"`
}

type Pipeline struct {
	gate       *safety.Gate
	planner    *planner.Planner
	discoverer *discovery.Discoverer
	acquirer   *acquisition.Acquirer
	scorer     *scoring.Scorer
	composer   synth.Composer
	cfg        config.ResearchConfig
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	now        func() time.Time
}

type Option func(*settings)

type settings struct {
	logger     *zap.Logger
	metrics    *telemetry.Metrics
	now        func() time.Time
	scorerOpts []scoring.Option
}

func WithLogger(l *zap.Logger) Option { return func(s *settings) { s.logger = l } }

func WithMetrics(m *telemetry.Metrics) Option { return func(s *settings) { s.metrics = m } }

// WithClock replaces time.Now for acceptance timestamps and recency scoring.
func WithClock(now func() time.Time) Option { return func(s *settings) { s.now = now } }

func WithScorerOptions(opts ...scoring.Option) Option {
	return func(s *settings) { s.scorerOpts = append(s.scorerOpts, opts...) }
}

// New assembles a pipeline from the static source policy and the search and
// fetch capabilities. The caller must Close it to release the fetch pool.
func New(pol policy.SourcePolicy, searcher discovery.Searcher, fetcher acquisition.Fetcher, cfg config.ResearchConfig, opts ...Option) (*Pipeline, error) {
	st := settings{now: time.Now}
	for _, opt := range opts {
		opt(&st)
	}
	st.logger = logging.OrNop(st.logger)
	cfg = cfg.Normalize()
	logger := st.logger.Named("research")

	acq, err := acquisition.New(fetcher, acquisition.Options{
		Concurrency:    cfg.FetchConcurrency,
		MaxTextChars:   cfg.MaxTextChars,
		CanonicalDedup: cfg.CanonicalDedup,
	}, st.logger, st.metrics)
	if err != nil {
		return nil, err
	}

	scorerOpts := []scoring.Option{scoring.WithClock(st.now)}
	if cfg.DisableSimilarity {
		scorerOpts = append(scorerOpts, scoring.WithSimilarity(scoring.NoSimilarity{}))
	}
	if cfg.DisableDomainParser {
		scorerOpts = append(scorerOpts, scoring.WithDomainParser(scoring.NoDomainParser{}))
	}
	scorer := scoring.NewScorer(pol.Trust, append(scorerOpts, st.scorerOpts...)...)

	degraded := map[string]bool{"similarity": false, "domain_parser": false}
	for _, c := range scorer.Degraded() {
		degraded[c] = true
		logger.Warn("scoring capability unavailable, using neutral value", zap.String("capability", c))
	}
	for c, d := range degraded {
		st.metrics.SetDegraded(c, d)
	}

	return &Pipeline{
		gate:       safety.NewGate(pol.BlockedPatterns),
		planner:    planner.New(pol.Expansions, cfg.MaxSubqueries),
		discoverer: discovery.New(searcher, pol.Blocklist, cfg.SearchConcurrency, st.logger, st.metrics),
		acquirer:   acq,
		scorer:     scorer,
		composer:   synth.Composer{Locale: cfg.Locale},
		cfg:        cfg,
		logger:     logger,
		metrics:    st.metrics,
		now:        st.now,
	}, nil
}

func (p *Pipeline) Close() {
	p.acquirer.Close()
}

// Answer runs the full pipeline for message. Only input rejected by the safety
// gate produces an error (safety.ValidationError or safety.PolicyError); past
// the gate a result is always returned, possibly with no sources. A negative
// bullets value uses the configured default.
func (p *Pipeline) Answer(ctx context.Context, message string, bullets int) (Result, error) {
	start := time.Now()
	acceptedAt := p.now()
	q, err := p.gate.Accept(message)
	if err != nil {
		p.metrics.Request("rejected")
		return Result{}, err
	}
	if bullets < 0 {
		bullets = p.cfg.Bullets
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	query := q.String()
	stage := p.stageTimer()

	subqueries := p.planner.Plan(query)
	stage(telemetry.StagePlan)

	candidates := p.discoverer.DiscoverAll(ctx, subqueries, p.cfg.PerQueryResults)
	stage(telemetry.StageDiscover)

	docs := p.acquirer.Acquire(ctx, candidates)
	stage(telemetry.StageAcquire)

	scored := p.scorer.ScoreAll(docs, query)
	stage(telemetry.StageScore)

	ranked := ranking.Rank(scored, p.cfg.FetchK)
	p.metrics.Ranked(len(ranked))
	stage(telemetry.StageRank)

	answer := p.composer.Compose(ranked, bullets)
	stage(telemetry.StageSynth)

	excerpts := make([]receipt.Excerpt, len(ranked))
	for i, d := range ranked {
		excerpts[i] = receipt.ExcerptOf(d.URL, d.Text)
	}
	digest := receipt.Generate(receipt.Input{
		Root:       receipt.RootID(query, acceptedAt),
		Excerpts:   excerpts,
		Answer:     answer,
		AcceptedAt: acceptedAt,
	})
	stage(telemetry.StageReceipt)

	p.metrics.Request("ok")
	p.logger.Info("research complete",
		zap.Int("subqueries", len(subqueries)),
		zap.Int("candidates", len(candidates)),
		zap.Int("documents", len(docs)),
		zap.Int("ranked", len(ranked)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Result{
		Answer:     answer,
		Sources:    models.SourcesOf(ranked),
		Subqueries: subqueries,
		Receipt:    digest,
	}, nil
}

// stageTimer returns a func that records the time since its previous call
// under the given stage name.
func (p *Pipeline) stageTimer() func(stage string) {
	last := time.Now()
	return func(stage string) {
		now := time.Now()
		p.metrics.ObserveStage(stage, now.Sub(last))
		last = now
	}
}
