package chromedp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/verisearch/tools/web_fetch/models"
)

// Fetch renders pages in headless Chrome before extraction. Useful for sites
// that build their content client-side.
type Fetch struct {
	Timeout   time.Duration
	UserAgent string
	MaxChars  int
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

	html, status, err := f.fetchHTML(ctx, url)
	if err != nil {
		return models.Result{}, err
	}
	page, err := extract.FromHTML(html, url, f.MaxChars)
	if err != nil {
		return models.Result{}, err
	}
	return models.Result{
		URL:         url,
		Title:       page.Title,
		Text:        page.Text,
		PublishedAt: page.PublishedAt,
		Status:      status,
		RenderMS:    int(time.Since(t0) / time.Millisecond),
	}, nil
}

// fetchHTML returns the rendered document and the status of the main
// navigation response. Non-2xx navigations are returned as StatusError.
func (f Fetch) fetchHTML(ctx context.Context, url string) (string, int, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if f.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.UserAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	resp, err := chromedp.RunResponse(bctx, chromedp.Navigate(url))
	if err != nil {
		return "", 0, err
	}
	status := 200
	if resp != nil {
		status = int(resp.Status)
	}
	if err := models.CheckStatus(url, status); err != nil {
		return "", status, err
	}

	var html string
	err = chromedp.Run(bctx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, status, err
}
