// Package metrics defines the Prometheus collectors for the suggester and exposes
// an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the suggester.
type Metrics struct {
	LookupsTotal     *prometheus.CounterVec
	LookupLatency    *prometheus.HistogramVec
	LookupResults    prometheus.Histogram
	BuildsTotal      *prometheus.CounterVec
	BuildDuration    prometheus.Histogram
	TermsIndexed     prometheus.Gauge
	TrieNodes        prometheus.Gauge
	PersistenceTotal *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg.
// A nil reg uses a fresh registry, which keeps tests independent.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggest_lookups_total",
				Help: "Total lookups by match mode and result type (hit, empty).",
			},
			[]string{"mode", "result"},
		),
		LookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "suggest_lookup_latency_seconds",
				Help:    "Lookup latency in seconds.",
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"mode"},
		),
		LookupResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "suggest_lookup_results_count",
				Help:    "Number of suggestions returned per lookup.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		BuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggest_builds_total",
				Help: "Total index builds by status.",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "suggest_build_duration_seconds",
				Help:    "Time spent building the index from a term source.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		TermsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "suggest_terms_indexed",
				Help: "Number of terms in the published trie.",
			},
		),
		TrieNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "suggest_trie_nodes",
				Help: "Number of nodes in the published trie.",
			},
		),
		PersistenceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggest_persistence_total",
				Help: "Store and load operations by status (ok, unavailable, error).",
			},
			[]string{"op", "status"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "suggest_ipc_requests_total",
				Help: "IPC requests by action and status.",
			},
			[]string{"action", "status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.LookupsTotal,
		m.LookupLatency,
		m.LookupResults,
		m.BuildsTotal,
		m.BuildDuration,
		m.TermsIndexed,
		m.TrieNodes,
		m.PersistenceTotal,
		m.RequestsTotal,
	)
	return m
}

// Handler returns the scrape handler for the registry the metrics live in.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Server returns an HTTP server exposing the scrape handler on addr under /metrics.
func (m *Metrics) Server(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
