package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/verisearch/config"
	"github.com/mohammad-safakhou/verisearch/internal/research"
	"github.com/mohammad-safakhou/verisearch/internal/safety"
	"github.com/mohammad-safakhou/verisearch/internal/telemetry"
	"github.com/mohammad-safakhou/verisearch/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubAnswerer struct {
	message string
	bullets int
	calls   int
	fail    error
}

func (s *stubAnswerer) Answer(ctx context.Context, message string, bullets int) (research.Result, error) {
	s.calls++
	s.message, s.bullets = message, bullets
	if s.fail != nil {
		return research.Result{}, s.fail
	}
	if strings.Contains(strings.ToLower(message), "drop table") {
		return research.Result{}, safety.PolicyError{Pattern: "drop table"}
	}
	return research.Result{
		Answer:     "• A → https://a.gov",
		Sources:    []models.Source{{URL: "https://a.gov", Title: "A"}},
		Subqueries: []string{message},
		Receipt:    strings.Repeat("a", 64),
	}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResearchComplete(t *testing.T) {
	ans := &stubAnswerer{}
	srv := New(config.ServerConfig{}, ans, 6, nil, nil)

	rec := do(t, srv.Handler(), http.MethodPost, "/research/complete", `{"message":"bitcoin","bullets":"3"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OK         bool            `json:"ok"`
		Answer     string          `json:"answer"`
		Sources    []models.Source `json:"sources"`
		Subqueries []string        `json:"subqueries"`
		Receipt    string          `json:"receipt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Answer == "" || len(resp.Sources) != 1 || len(resp.Receipt) != 64 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if ans.message != "bitcoin" || ans.bullets != 3 {
		t.Fatalf("unexpected call message=%q bullets=%d", ans.message, ans.bullets)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatalf("expected request id header")
	}

	do(t, srv.Handler(), http.MethodPost, "/research/complete", `{"message":"x","bullets":-2}`, nil)
	if ans.bullets != 6 {
		t.Fatalf("invalid bullets should fall back to default, got %d", ans.bullets)
	}
}

func TestResearchCompleteValidation(t *testing.T) {
	ans := &stubAnswerer{}
	srv := New(config.ServerConfig{}, ans, 6, telemetry.New(), nil)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing message", `{}`, "'message' required"},
		{"non-string message", `{"message": 42}`, "'message' must be string"},
		{"not json", `nope`, "'body' must be a JSON object"},
		{"policy", `{"message": "DROP TABLE users"}`, "Blocked by safety policy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/research/complete", tc.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["error"] != tc.want {
				t.Fatalf("error = %q, want %q", body["error"], tc.want)
			}
		})
	}
	if ans.calls != 1 {
		t.Fatalf("only the policy case should reach the answerer, got %d calls", ans.calls)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	m := telemetry.New()
	m.Request("ok")
	srv := New(config.ServerConfig{}, &stubAnswerer{}, 6, m, nil)

	if rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `verisearch_research_requests_total{outcome="ok"} 1`) {
		t.Fatalf("metrics not exposed: %d", rec.Code)
	}

	noMetrics := New(config.ServerConfig{}, &stubAnswerer{}, 6, nil, nil)
	if rec := do(t, noMetrics.Handler(), http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without metrics, got %d", rec.Code)
	}
}

func TestJWTProtectsResearch(t *testing.T) {
	secret := "s3cret"
	ans := &stubAnswerer{}
	srv := New(config.ServerConfig{JWTSecret: secret}, ans, 6, nil, nil)
	body := `{"message":"growth"}`

	if rec := do(t, srv.Handler(), http.MethodPost, "/research/complete", body, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	bad, _ := SignJWT("alice", []byte("other"), time.Minute)
	if rec := do(t, srv.Handler(), http.MethodPost, "/research/complete", body, map[string]string{"Authorization": "Bearer " + bad}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong key, got %d", rec.Code)
	}
	expired, _ := SignJWT("alice", []byte(secret), -time.Minute)
	if rec := do(t, srv.Handler(), http.MethodPost, "/research/complete", body, map[string]string{"Authorization": "Bearer " + expired}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
	good, err := SignJWT("alice", []byte(secret), time.Minute)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if rec := do(t, srv.Handler(), http.MethodPost, "/research/complete", body, map[string]string{"Authorization": "Bearer " + good}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz should stay public, got %d", rec.Code)
	}
	if ans.calls != 1 {
		t.Fatalf("expected one authorised call, got %d", ans.calls)
	}
}

func TestAnswerFailureCountsErrorAndLogsSubject(t *testing.T) {
	secret := "s3cret"
	core, logs := observer.New(zap.InfoLevel)
	m := telemetry.New()
	srv := New(config.ServerConfig{JWTSecret: secret}, &stubAnswerer{fail: errors.New("upstream exploded")}, 6, m, zap.New(core))

	tok, err := SignJWT("alice", []byte(secret), time.Minute)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	rec := do(t, srv.Handler(), http.MethodPost, "/research/complete", `{"message":"growth"}`, map[string]string{"Authorization": "Bearer " + tok})
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "internal error") {
		t.Fatalf("expected 500 internal error, got %d: %s", rec.Code, rec.Body.String())
	}
	if mrec := do(t, srv.Handler(), http.MethodGet, "/metrics", "", nil); !strings.Contains(mrec.Body.String(), `verisearch_research_requests_total{outcome="error"} 1`) {
		t.Fatalf("expected one error outcome in metrics")
	}

	entries := logs.FilterMessage("request failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one failure log, got %d", len(entries))
	}
	if subject, ok := entries[0].ContextMap()["subject"]; !ok || subject != "alice" {
		t.Fatalf("expected subject alice in log fields, got %v", entries[0].ContextMap())
	}
}

func TestRunShutsDown(t *testing.T) {
	srv := New(config.ServerConfig{Address: "127.0.0.1:0"}, &stubAnswerer{}, 6, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
