package extraction

import (
	"time"

	"recipe-extractor/internal/core/recipe"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "recipe_extractor"

// Metrics 擷取流程的 Prometheus 指標
type Metrics struct {
	TierRunsTotal      *prometheus.CounterVec
	TierDuration       *prometheus.HistogramVec
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration *prometheus.HistogramVec
	CacheLookupsTotal  *prometheus.CounterVec
}

// NewMetrics 建立並註冊指標；reg 為 nil 時使用預設 registry
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		TierRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tier_runs_total",
				Help:      "Extraction tier runs by tier and outcome",
			},
			[]string{"tier", "outcome"},
		),
		TierDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "tier_duration_seconds",
				Help:      "Time spent in each extraction tier",
				Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 25},
			},
			[]string{"tier"},
		),
		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "extractions_total",
				Help:      "Completed extractions by platform and confidence",
			},
			[]string{"platform", "confidence"},
		),
		ExtractionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "extraction_duration_seconds",
				Help:      "End-to-end extraction time",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"platform"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cache_lookups_total",
				Help:      "Extraction cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) observeTier(tier recipe.Tier, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.TierRunsTotal.WithLabelValues(string(tier), outcome).Inc()
	m.TierDuration.WithLabelValues(string(tier)).Observe(d.Seconds())
}

func (m *Metrics) observeExtraction(platform recipe.Platform, confidence recipe.Confidence, d time.Duration) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(string(platform), string(confidence)).Inc()
	m.ExtractionDuration.WithLabelValues(string(platform)).Observe(d.Seconds())
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}
