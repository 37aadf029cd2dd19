package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/poiesic/careersearch/core"
	"github.com/poiesic/careersearch/rebuild"
	"github.com/poiesic/careersearch/search"
)

// Metrics holds the service's Prometheus metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	RebuildsTotal      *prometheus.CounterVec
	RebuildDuration    prometheus.Histogram
	SuggestionsCreated prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg.
// Engine gauges are read from engine on every scrape.
func NewMetrics(reg prometheus.Registerer, engine Engine) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careersearch_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "careersearch_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 5, 30},
		},
		[]string{"route"},
	)

	m.RebuildsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "careersearch_rebuilds_total",
			Help: "Total number of suggestion rebuilds",
		},
		[]string{"trigger", "status"},
	)

	m.RebuildDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "careersearch_rebuild_duration_seconds",
			Help:    "Duration of suggestion rebuilds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	m.SuggestionsCreated = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "careersearch_rebuild_suggestions_created",
			Help: "Suggestions created by the last successful rebuild",
		},
	)

	if engine != nil {
		stat := func(name, help string, fn func(search.Stats) float64) {
			factory.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
				return fn(engine.Stats())
			})
		}
		stat("careersearch_index_institutes", "Institutes in the loaded index",
			func(s search.Stats) float64 { return float64(s.Institutes) })
		stat("careersearch_index_suggestions", "Suggestions in the loaded index",
			func(s search.Stats) float64 { return float64(s.Suggestions) })
		stat("careersearch_suggest_cache_hits", "Suggest cache hits since start",
			func(s search.Stats) float64 { return float64(s.Cache.Hits) })
		stat("careersearch_suggest_cache_misses", "Suggest cache misses since start",
			func(s search.Stats) float64 { return float64(s.Cache.Misses) })
	}

	return m
}

// ObserveRebuild records a finished rebuild. It matches the signature of
// rebuild.WithOnComplete.
func (m *Metrics) ObserveRebuild(result *rebuild.Result, err error) {
	trigger := core.RebuildTrigger("unknown")
	if result != nil {
		trigger = result.Trigger
		m.RebuildDuration.Observe(result.Duration.Seconds())
	}
	if err != nil {
		m.RebuildsTotal.WithLabelValues(string(trigger), "error").Inc()
		return
	}
	m.RebuildsTotal.WithLabelValues(string(trigger), "ok").Inc()
	m.SuggestionsCreated.Set(float64(result.SuggestionsCreated))
}
