package metrics

import "github.com/prometheus/client_golang/prometheus"

// Key-point extraction Prometheus metrics.
var (
	ExtractionStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "keypoints",
			Name:      "extraction_stage_duration_seconds",
			Help:      "Duration of each extraction pipeline stage in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage", "status"},
	)

	ExtractionRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keypoints",
			Name:      "extraction_runs_total",
			Help:      "Total extraction pipeline runs by outcome",
		},
		[]string{"status"},
	)

	ExtractionKeyPoints = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "keypoints",
			Name:      "extraction_key_points",
			Help:      "Number of key points produced per successful run",
			Buckets:   []float64{1, 2, 3, 5, 8, 10, 15},
		},
	)
)

var extractionMetricsRegistered bool

// RegisterExtractionMetrics registers Prometheus extraction metrics. Must be called once from main.
func RegisterExtractionMetrics() {
	if extractionMetricsRegistered {
		return
	}
	prometheus.MustRegister(ExtractionStageDuration)
	prometheus.MustRegister(ExtractionRunsTotal)
	prometheus.MustRegister(ExtractionKeyPoints)
	extractionMetricsRegistered = true
}
