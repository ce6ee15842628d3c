package models

import (
	"fmt"
	"time"
)

// Result is a fetched page after extraction. PublishedAt is zero when no
// publication date could be recovered.
type Result struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	Status      int       `json:"status"`
	RenderMS    int       `json:"render_ms"`
}

// StatusError is returned by fetchers when the page answered with a non-2xx
// status.
type StatusError struct {
	URL  string
	Code int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// CheckStatus returns a StatusError unless code is 2xx.
func CheckStatus(url string, code int) error {
	if code < 200 || code > 299 {
		return StatusError{URL: url, Code: code}
	}
	return nil
}
