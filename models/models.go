package models

// Candidate is a link returned by discovery before any fetch of its content.
type Candidate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Scores holds the per-factor breakdown behind a document's composite score.
type Scores struct {
	Content float64 `json:"content"`
	Domain  float64 `json:"domain"`
	Recency float64 `json:"recency"`
}

// Document is an acquired and extracted web page. URL is unique within a run.
type Document struct {
	URL       string  `json:"url"`
	Title     string  `json:"title"`
	Timestamp int64   `json:"ts,omitempty"` // unix seconds, 0 when unknown
	Text      string  `json:"text,omitempty"`
	Score     float64 `json:"score"`
	Scores    Scores  `json:"scores"`
}

// Source is the public view of a ranked document.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// SourcesOf projects documents into their public source view, keeping order.
func SourcesOf(docs []Document) []Source {
	out := make([]Source, 0, len(docs))
	for _, d := range docs {
		out = append(out, Source{URL: d.URL, Title: d.Title})
	}
	return out
}
