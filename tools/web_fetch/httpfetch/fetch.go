package httpfetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/models"
)

type Fetch struct {
	Client       *http.Client
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	MaxChars     int
}

func (f Fetch) Exec(ctx context.Context, url string) (models.Result, error) {
	if strings.TrimSpace(url) == "" {
		return models.Result{}, errors.New("invalid url")
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Result{}, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Result{}, err
	}
	defer resp.Body.Close()
	if err := models.CheckStatus(url, resp.StatusCode); err != nil {
		return models.Result{}, err
	}

	var body io.Reader = resp.Body
	if f.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, f.MaxBodyBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return models.Result{}, err
	}

	page, err := extract.FromHTML(string(raw), url, f.MaxChars)
	if err != nil {
		return models.Result{}, err
	}
	return models.Result{
		URL:         url,
		Title:       page.Title,
		Text:        page.Text,
		PublishedAt: page.PublishedAt,
		Status:      resp.StatusCode,
		RenderMS:    int(time.Since(t0) / time.Millisecond),
	}, nil
}
