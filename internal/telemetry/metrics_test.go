package telemetry

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	m := New()
	m.Request("ok")
	m.Request("ok")
	m.Request("rejected")
	m.Discovery("kept", 3)
	m.Discovery("blocked", 0)
	m.Fetch("error")
	m.SetDegraded("similarity", true)
	m.ObserveStage(StageAcquire, 20*time.Millisecond)
	m.Ranked(4)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.discoveryResults.WithLabelValues("kept")); got != 3 {
		t.Fatalf("expected 3 kept links, got %v", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 fetch error, got %v", got)
	}
	if got := testutil.ToFloat64(m.degraded.WithLabelValues("similarity")); got != 1 {
		t.Fatalf("expected degraded gauge 1, got %v", got)
	}
	if n := testutil.CollectAndCount(m.stageDuration); n != 1 {
		t.Fatalf("expected one stage series, got %d", n)
	}

	expected := `
# HELP verisearch_research_requests_total Research requests by outcome (ok, rejected, error)
# TYPE verisearch_research_requests_total counter
verisearch_research_requests_total{outcome="ok"} 2
verisearch_research_requests_total{outcome="rejected"} 1
`
	if err := testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "verisearch_research_requests_total"); err != nil {
		t.Fatalf("unexpected exposition: %v", err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Request("ok")
	m.ObserveStage(StagePlan, time.Second)
	m.Discovery("kept", 1)
	m.Fetch("ok")
	m.Ranked(1)
	m.SetDegraded("x", true)
}
