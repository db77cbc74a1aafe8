// Package metrics exposes Prometheus collectors for the scrape pipeline and analysis cache.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "situationmonitor"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CyclesTotal        *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
	CategoryItems      *prometheus.GaugeVec
	SourceFetchesTotal *prometheus.CounterVec
	SourceDuration     *prometheus.HistogramVec
	AICacheTotal       *prometheus.CounterVec
	AIBatchErrors      prometheus.Counter
	AlertsTotal        prometheus.Counter
	UpstreamErrors     *prometheus.CounterVec
}

// New registers the collectors with reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "cycles_total",
			Help:      "Scrape cycles by result",
		}, []string{"result"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of a full scrape cycle",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		CategoryItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "category_items",
			Help:      "Items held per category after the last cycle",
		}, []string{"category"}),
		SourceFetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "source_fetches_total",
			Help:      "Source fetches by source and result",
		}, []string{"source", "result"}),
		SourceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "scrape",
			Name:      "source_duration_seconds",
			Help:      "Duration of a single source fetch",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}, []string{"source"}),
		AICacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ai",
			Name:      "cache_lookups_total",
			Help:      "Significance cache lookups by outcome",
		}, []string{"outcome"}),
		AIBatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ai",
			Name:      "batch_errors_total",
			Help:      "Analysis batches that fell back to neutral scores",
		}),
		AlertsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "ai",
			Name:      "alerts_total",
			Help:      "High-significance alerts emitted",
		}),
		UpstreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Market and dataset upstream failures",
		}, []string{"upstream"}),
	}
}

func (m *Metrics) ObserveCycle(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "empty"
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

func (m *Metrics) SetCategoryItems(category string, n int) {
	if m == nil {
		return
	}
	m.CategoryItems.WithLabelValues(category).Set(float64(n))
}

func (m *Metrics) ObserveSource(source string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SourceFetchesTotal.WithLabelValues(source, result).Inc()
	m.SourceDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) AICacheLookups(hits, misses int) {
	if m == nil {
		return
	}
	m.AICacheTotal.WithLabelValues("hit").Add(float64(hits))
	m.AICacheTotal.WithLabelValues("miss").Add(float64(misses))
}

func (m *Metrics) AIBatchFailed() {
	if m == nil {
		return
	}
	m.AIBatchErrors.Inc()
}

func (m *Metrics) AlertEmitted() {
	if m == nil {
		return
	}
	m.AlertsTotal.Inc()
}

func (m *Metrics) UpstreamFailed(upstream string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(upstream).Inc()
}
