package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/mohammad-safakhou/verisearch/models"
)

var defaultTrust = map[string]float64{".gov": 1.0, ".edu": 0.95, ".org": 0.75, "who.int": 0.95}

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestRecency(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day := int64(86400)

	if got := Recency(0, now); got != 0.5 {
		t.Fatalf("unknown timestamp should score 0.5, got %v", got)
	}
	if got := Recency(now.Unix()-365*day, now); !approx(got, 0.5, 1e-9) {
		t.Fatalf("365 days should score 0.5, got %v", got)
	}
	if got := Recency(now.Unix(), now); !approx(got, 0.8837, 1e-3) {
		t.Fatalf("fresh document should score ~0.884, got %v", got)
	}
	if got := Recency(now.Unix()+30*day, now); !approx(got, Recency(now.Unix(), now), 1e-12) {
		t.Fatalf("future timestamps should clamp to age 0, got %v", got)
	}
	prev := 1.0
	for _, days := range []int64{0, 30, 180, 365, 730, 3650} {
		got := Recency(now.Unix()-days*day, now)
		if got >= prev || got < 0 || got > 1 {
			t.Fatalf("recency not strictly decreasing in [0,1] at %d days: %v (prev %v)", days, got, prev)
		}
		prev = got
	}
}

func TestDomainTrust(t *testing.T) {
	s := NewScorer(defaultTrust)
	cases := []struct {
		url  string
		want float64
	}{
		{"https://www.nasa.gov/mission", 1.0},
		{"https://cs.stanford.edu/x", 0.95},
		{"https://www.who.int/news", 0.95},
		{"https://bitcoin.org/en/", 0.75},
		{"https://example.com/page", 0.5},
		{"https://blog.example.co.uk/", 0.5},
		{"not a url", 0.5},
		{"http://127.0.0.1/", 0.5},
	}
	for _, tc := range cases {
		if got := s.Domain(tc.url); got != tc.want {
			t.Errorf("Domain(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestTrustTableMaxMatch(t *testing.T) {
	table := TrustTable{".org": 0.75, "who.int": 0.95, "example": 0.2}
	if got := table.Score(DomainParts{Host: "who.int", Suffix: "int"}, 0.5); got != 0.95 {
		t.Fatalf("expected 0.95, got %v", got)
	}
	if got := table.Score(DomainParts{Host: "example.org", Suffix: "org"}, 0.5); got != 0.75 {
		t.Fatalf("expected max of matches 0.75, got %v", got)
	}
	if got := table.Score(DomainParts{Host: "example.com", Suffix: "com"}, 0.5); got != 0.2 {
		t.Fatalf("substring match should apply even below default, got %v", got)
	}
}

func TestContent(t *testing.T) {
	s := NewScorer(defaultTrust)
	exact := s.Content(models.Document{Title: "Bitcoin Difficulty"}, "bitcoin difficulty")
	// title+" " vs query: one trailing space of indel distance
	if exact < 0.99 || exact > 1 {
		t.Fatalf("near-identical text should score ~1, got %v", exact)
	}
	unrelated := s.Content(models.Document{Title: "zzzz", Text: "qqqq"}, "bitcoin")
	if !approx(unrelated, 0.15, 1e-9) {
		t.Fatalf("disjoint text should score the 0.15 floor, got %v", unrelated)
	}
	if got := NewScorer(defaultTrust, WithSimilarity(NoSimilarity{})).Content(models.Document{}, "x"); got != NeutralContent {
		t.Fatalf("neutral similarity should give %v, got %v", NeutralContent, got)
	}
}

func TestTokenSortRatio(t *testing.T) {
	r, ok := TokenSortRatio{}.Ratio("difficulty bitcoin", "bitcoin difficulty")
	if !ok || r != 100 {
		t.Fatalf("token order should not matter, got %v %v", r, ok)
	}
	if r, _ := (TokenSortRatio{}).Ratio("", ""); r != 100 {
		t.Fatalf("empty strings should be identical, got %v", r)
	}
	if r, _ := (TokenSortRatio{}).Ratio("abc", "xyz"); r != 0 {
		t.Fatalf("disjoint strings should score 0, got %v", r)
	}
}

func TestTokenSortRatioCountsRunes(t *testing.T) {
	r, _ := TokenSortRatio{}.Ratio("ñandú", "nandu")
	if math.Abs(r-60) > 1e-9 {
		t.Fatalf("expected 60 for two substituted characters, got %v", r)
	}
	if r, _ := (TokenSortRatio{}).Ratio("año niño", "niño año"); r != 100 {
		t.Fatalf("token order should not matter for accented text, got %v", r)
	}
}

func TestScoreComposite(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewScorer(defaultTrust, WithClock(func() time.Time { return now }))
	doc := s.Score(models.Document{
		URL:       "https://www.nist.gov/pow",
		Title:     "Bitcoin PoW difficulty",
		Text:      "mining difficulty retarget",
		Timestamp: now.AddDate(-1, 0, 0).Unix(),
	}, "bitcoin difficulty")

	want := 0.45*doc.Scores.Content + 0.30*doc.Scores.Domain + 0.25*doc.Scores.Recency
	if !approx(doc.Score, want, 1e-12) {
		t.Fatalf("composite %v, want %v", doc.Score, want)
	}
	if doc.Scores.Domain != 1.0 {
		t.Fatalf("expected .gov trust, got %v", doc.Scores.Domain)
	}
	for name, v := range map[string]float64{"content": doc.Scores.Content, "domain": doc.Scores.Domain, "recency": doc.Scores.Recency, "score": doc.Score} {
		if v < 0 || v > 1 {
			t.Fatalf("%s out of range: %v", name, v)
		}
	}
}

func TestDegradedMode(t *testing.T) {
	s := NewScorer(defaultTrust, WithSimilarity(NoSimilarity{}), WithDomainParser(NoDomainParser{}))
	doc := s.Score(models.Document{URL: "https://www.nasa.gov"}, "q")
	want := 0.45*NeutralContent + 0.30*NeutralDomain + 0.25*0.5
	if !approx(doc.Score, want, 1e-12) {
		t.Fatalf("degraded composite %v, want %v", doc.Score, want)
	}
	if got := s.Degraded(); len(got) != 2 {
		t.Fatalf("expected two degraded capabilities, got %v", got)
	}
	if got := NewScorer(defaultTrust).Degraded(); len(got) != 0 {
		t.Fatalf("expected no degraded capabilities, got %v", got)
	}
}
