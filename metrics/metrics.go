// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus instruments.
type Metrics struct {
	AnalysesTotal   *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	CacheEvictions  prometheus.Counter
	CalcDuration    prometheus.Histogram
	QualityDuration prometheus.Histogram
}

// New registers and returns the engine metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seoscope_analyses_total",
			Help: "Number of analyses performed, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "seoscope_cache_hits_total",
			Help: "Analysis cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "seoscope_cache_misses_total",
			Help: "Analysis cache misses, including expired and version-mismatched entries.",
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "seoscope_cache_evictions_total",
			Help: "Entries proactively evicted for expiry or version mismatch.",
		}),
		CalcDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "seoscope_score_calculation_seconds",
			Help:    "Wall-clock duration of score calculations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		QualityDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "seoscope_quality_assessment_seconds",
			Help:    "Wall-clock duration of quality assessments.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
}
