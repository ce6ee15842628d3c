package web_fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/httpfetch"
	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/models"
)

const (
	DefaultTimeout  = 8 * time.Second
	MaxCharsDefault = extract.MaxTextChars
)

type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

type FetcherType string

const (
	HTTPFetcherType     FetcherType = "http"
	ChromedpFetcherType FetcherType = "chromedp"
)

type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	MaxChars     int
}

func NewWebFetcher(fetcherType FetcherType, opts Options) (WebFetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = MaxCharsDefault
	}

	switch fetcherType {
	case HTTPFetcherType, "":
		return httpfetch.Fetch{
			Client:       &http.Client{},
			Timeout:      opts.Timeout,
			UserAgent:    opts.UserAgent,
			MaxBodyBytes: opts.MaxBodyBytes,
			MaxChars:     opts.MaxChars,
		}, nil
	case ChromedpFetcherType:
		return chromedp.Fetch{Timeout: opts.Timeout, UserAgent: opts.UserAgent, MaxChars: opts.MaxChars}, nil
	default:
		return nil, &Error{"unsupported fetcher type"}
	}
}
