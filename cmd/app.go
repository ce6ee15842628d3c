package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/verisearch/config"
	"github.com/mohammad-safakhou/verisearch/internal/logging"
	"github.com/mohammad-safakhou/verisearch/internal/policy"
	"github.com/mohammad-safakhou/verisearch/internal/research"
	"github.com/mohammad-safakhou/verisearch/internal/telemetry"
	"github.com/mohammad-safakhou/verisearch/tools/web_fetch"
	"github.com/mohammad-safakhou/verisearch/tools/web_search"
	"github.com/mohammad-safakhou/verisearch/tools/web_search/cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *telemetry.Metrics
	pipeline *research.Pipeline
	redis    *redis.Client
}

func newApp(ctx context.Context, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.General)
	if err != nil {
		return nil, err
	}

	pol, err := policy.LoadSourcePolicy(cfg.Sources.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load source policy: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	if cfg.Telemetry.Enabled {
		a.metrics = telemetry.New()
	}

	searcher, err := a.buildSearcher(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	fetcher, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Sources.Fetch.Type), web_fetch.Options{
		Timeout:      cfg.Sources.Fetch.Timeout,
		UserAgent:    cfg.Sources.Fetch.UserAgent,
		MaxBodyBytes: cfg.Sources.Fetch.MaxBodyBytes,
		MaxChars:     cfg.Research.MaxTextChars,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.pipeline, err = research.New(pol, searcher, fetcher, cfg.Research,
		research.WithLogger(logger),
		research.WithMetrics(a.metrics),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return a, nil
}

// buildSearcher composes provider, rate limiter and the optional Redis cache.
// Cache hits do not consume rate-limit tokens.
func (a *app) buildSearcher(ctx context.Context) (web_search.WebSearcher, error) {
	ws := a.cfg.Sources.WebSearch
	provider := web_search.Provider(strings.ToLower(strings.TrimSpace(ws.Provider)))
	key := ""
	switch provider {
	case web_search.BraveProvider:
		key = ws.BraveAPIKey
	case web_search.SerperProvider:
		key = ws.SerperAPIKey
	}
	base, err := web_search.NewWebSearcher(provider, web_search.Options{
		APIKey:    key,
		UserAgent: a.cfg.Sources.Fetch.UserAgent,
		Timeout:   ws.Timeout,
	})
	if err != nil {
		return nil, err
	}
	searcher := web_search.NewLimited(base, ws.RatePerSecond, ws.Burst)

	if !a.cfg.Cache.Enabled {
		return searcher, nil
	}
	rc := a.cfg.Cache.Redis
	a.redis = redis.NewClient(&redis.Options{Addr: rc.Addr(), Password: rc.Password, DB: rc.DB})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		a.logger.Warn("search cache unreachable, continuing without it", zap.String("addr", rc.Addr()), zap.Error(err))
		_ = a.redis.Close()
		a.redis = nil
		return searcher, nil
	}
	return cache.New(a.redis, searcher, string(provider), a.cfg.Cache.Prefix, a.cfg.Cache.TTL, a.logger.Named("search_cache")), nil
}

func (a *app) close() {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.logger.Sync()
}
