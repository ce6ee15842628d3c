package web_search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/verisearch/tools/web_search/models"
	"golang.org/x/time/rate"
)

type countingSearcher struct{ calls int }

func (c *countingSearcher) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	c.calls++
	return []models.Result{{Title: q, URL: "https://example.org"}}, nil
}

func TestNewWebSearcher(t *testing.T) {
	for _, p := range []Provider{"", DuckDuckGoProvider, BraveProvider, SerperProvider, "Brave"} {
		if _, err := NewWebSearcher(p, Options{APIKey: "k"}); err != nil {
			t.Fatalf("provider %q: %v", p, err)
		}
	}
	if _, err := NewWebSearcher("altavista", Options{}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestNewLimitedDisabled(t *testing.T) {
	inner := &countingSearcher{}
	if got := NewLimited(inner, 0, 0); got != WebSearcher(inner) {
		t.Fatalf("expected passthrough when rate is zero")
	}
}

func TestLimitedHonoursContext(t *testing.T) {
	inner := &countingSearcher{}
	l := &Limited{Next: inner, Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}

	if _, err := l.Discover(context.Background(), "a", 1); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Discover(ctx, "b", 1); err == nil {
		t.Fatalf("expected limiter wait to fail")
	}
	if inner.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", inner.calls)
	}
}
