package web_search

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/verisearch/tools/web_search/brave"
	"github.com/mohammad-safakhou/verisearch/tools/web_search/duckduckgo"
	"github.com/mohammad-safakhou/verisearch/tools/web_search/models"
	"github.com/mohammad-safakhou/verisearch/tools/web_search/serper"
	"golang.org/x/time/rate"
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	DuckDuckGoProvider Provider = "duckduckgo"
	SerperProvider     Provider = "serper"
	BraveProvider      Provider = "brave"
)

var ErrUnsupportedProvider = &Error{"unsupported provider"}

// Options configures NewWebSearcher.
type Options struct {
	APIKey    string
	UserAgent string
	Timeout   time.Duration
}

func NewWebSearcher(provider Provider, opts Options) (WebSearcher, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	switch Provider(strings.ToLower(string(provider))) {
	case DuckDuckGoProvider, "":
		return duckduckgo.Search{UserAgent: opts.UserAgent, Client: client}, nil
	case SerperProvider:
		return serper.Search{ApiKey: opts.APIKey, Client: client}, nil
	case BraveProvider:
		return brave.Search{ApiKey: opts.APIKey, Client: client}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// Limited throttles calls to the wrapped searcher.
type Limited struct {
	Next    WebSearcher
	Limiter *rate.Limiter
}

// NewLimited wraps next with a token bucket of perSecond and burst. A
// non-positive rate returns next unchanged.
func NewLimited(next WebSearcher, perSecond float64, burst int) WebSearcher {
	if perSecond <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limited{Next: next, Limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *Limited) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	if err := l.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.Next.Discover(ctx, q, k)
}
