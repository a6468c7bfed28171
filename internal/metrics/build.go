package metrics

import "github.com/prometheus/client_golang/prometheus"

// Suggestion build Prometheus metrics.
var (
	SuggestBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "imagetag",
			Name:      "suggest_build_duration_seconds",
			Help:      "Prefix suggestion rebuild duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SuggestPrefixesUpdated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "imagetag",
			Name:      "suggest_prefixes_updated_total",
			Help:      "Total prefix entries written by rebuild runs",
		},
	)

	SuggestPrefixesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "imagetag",
			Name:      "suggest_prefixes_deleted_total",
			Help:      "Total obsolete prefix entries pruned by rebuild runs",
		},
	)

	SuggestLettersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "imagetag",
			Name:      "suggest_letters_failed_total",
			Help:      "Total letters whose sync failed during rebuild runs",
		},
	)

	SuggestBuildLastSuccess = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "imagetag",
			Name:      "suggest_build_last_success_timestamp_seconds",
			Help:      "Unix time of the last completed rebuild run",
		},
	)
)

var buildMetricsRegistered bool

// RegisterBuildMetrics registers Prometheus suggestion build metrics. Must be called once from main.
func RegisterBuildMetrics() {
	if buildMetricsRegistered {
		return
	}
	prometheus.MustRegister(SuggestBuildDuration)
	prometheus.MustRegister(SuggestPrefixesUpdated)
	prometheus.MustRegister(SuggestPrefixesDeleted)
	prometheus.MustRegister(SuggestLettersFailed)
	prometheus.MustRegister(SuggestBuildLastSuccess)
	buildMetricsRegistered = true
}
