// Package telemetry holds the Prometheus instruments for the research
// pipeline. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used for verisearch_stage_duration_seconds.
const (
	StagePlan     = "plan"
	StageDiscover = "discover"
	StageAcquire  = "acquire"
	StageScore    = "score"
	StageRank     = "rank"
	StageSynth    = "synthesize"
	StageReceipt  = "receipt"
)

type Metrics struct {
	Registry *prometheus.Registry

	requests         *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	discoveryResults *prometheus.CounterVec
	fetches          *prometheus.CounterVec
	documentsRanked  prometheus.Histogram
	degraded         *prometheus.GaugeVec
}

// New registers every instrument on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verisearch_research_requests_total",
			Help: "Research requests by outcome (ok, rejected, error)",
		}, []string{"outcome"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "verisearch_stage_duration_seconds",
			Help:    "Wall time spent in each pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"stage"}),
		discoveryResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verisearch_discovery_results_total",
			Help: "Candidate links by outcome (kept, blocked, empty) and failed search calls (error)",
		}, []string{"outcome"}),
		fetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "verisearch_fetch_total",
			Help: "Document fetches by outcome (ok, error, duplicate, rejected, cancelled)",
		}, []string{"outcome"}),
		documentsRanked: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "verisearch_documents_ranked",
			Help:    "Documents left after ranking and truncation",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		}),
		degraded: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "verisearch_degraded_capability",
			Help: "1 when a scoring capability runs on its neutral stand-in",
		}, []string{"capability"}),
	}
}

func (m *Metrics) Request(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) Discovery(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.discoveryResults.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) Fetch(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Ranked(n int) {
	if m == nil {
		return
	}
	m.documentsRanked.Observe(float64(n))
}

func (m *Metrics) SetDegraded(capability string, degraded bool) {
	if m == nil {
		return
	}
	v := 0.0
	if degraded {
		v = 1
	}
	m.degraded.WithLabelValues(capability).Set(v)
}
