// Package metrics exposes Prometheus counters and histograms for the
// retrieval engine. A nil *Metrics is valid and records nothing, so
// packages never branch on whether observability is wired.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the engine emits.
type Metrics struct {
	SearchesTotal  *prometheus.CounterVec // provider, status
	SearchDuration *prometheus.HistogramVec
	FetchesTotal   *prometheus.CounterVec // mode, status
	FetchDuration  *prometheus.HistogramVec
	CacheHitsTotal *prometheus.CounterVec // kind
	CacheMissTotal *prometheus.CounterVec // kind

	registry *prometheus.Registry
}

// New registers the engine's instruments on a fresh registry. Tests can
// call it repeatedly; nothing touches the global default registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	with := promauto.With(reg)
	return &Metrics{
		SearchesTotal: with.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trawl_provider_searches_total",
				Help: "Provider search attempts by outcome",
			},
			[]string{"provider", "status"},
		),
		SearchDuration: with.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trawl_provider_search_duration_seconds",
				Help:    "Provider search latency including retries",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"provider"},
		),
		FetchesTotal: with.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trawl_page_fetches_total",
				Help: "Page fetch attempts by mode and outcome",
			},
			[]string{"mode", "status"},
		),
		FetchDuration: with.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trawl_page_fetch_duration_seconds",
				Help:    "Page fetch latency by mode",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),
		CacheHitsTotal: with.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trawl_cache_hits_total",
				Help: "Cache hits by entry kind",
			},
			[]string{"kind"},
		),
		CacheMissTotal: with.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trawl_cache_misses_total",
				Help: "Cache misses by entry kind",
			},
			[]string{"kind"},
		),
		registry: reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ProviderSearch records one provider search outcome and its latency.
func (m *Metrics) ProviderSearch(provider string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(provider, statusLabel(ok)).Inc()
	m.SearchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// PageFetch records one page fetch outcome. mode is "static" or "dynamic".
func (m *Metrics) PageFetch(mode string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(mode, statusLabel(ok)).Inc()
	m.FetchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// CacheHit counts a fresh cache read. kind is "search" or "scrape".
func (m *Metrics) CacheHit(kind string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(kind).Inc()
}

// CacheMiss counts an absent, stale, or unreadable cache read.
func (m *Metrics) CacheMiss(kind string) {
	if m == nil {
		return
	}
	m.CacheMissTotal.WithLabelValues(kind).Inc()
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
