package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vision Prometheus metrics.
var (
	VisionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagetag",
			Name:      "vision_requests_total",
			Help:      "Total number of vision labeling requests",
		},
		[]string{"provider", "model", "status"},
	)

	VisionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "imagetag",
			Name:      "vision_request_duration_seconds",
			Help:      "Vision labeling request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "model"},
	)

	VisionLabelsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagetag",
			Name:      "vision_labels_detected_total",
			Help:      "Total labels detected above the confidence threshold",
		},
		[]string{"provider", "model"},
	)

	VisionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "imagetag",
			Name:      "vision_errors_total",
			Help:      "Total vision labeling errors",
		},
		[]string{"provider", "model", "error_type"},
	)
)

var visionMetricsRegistered bool

// RegisterVisionMetrics registers Prometheus vision metrics. Must be called once from main.
func RegisterVisionMetrics() {
	if visionMetricsRegistered {
		return
	}
	prometheus.MustRegister(VisionRequestsTotal)
	prometheus.MustRegister(VisionRequestDuration)
	prometheus.MustRegister(VisionLabelsDetected)
	prometheus.MustRegister(VisionErrorsTotal)
	visionMetricsRegistered = true
}
