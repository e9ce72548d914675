package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// stageMetrics records pipeline stage runs. It is shared by the API and the
// worker registries.
type stageMetrics struct {
	service       string
	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

func newStageMetrics(service string, registry *prometheus.Registry) *stageMetrics {
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docai",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total pipeline stage runs by outcome.",
		},
		[]string{"service", "stage", "outcome"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docai",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"service", "stage"},
	)
	registry.MustRegister(stageTotal, stageDuration)
	return &stageMetrics{service: service, stageTotal: stageTotal, stageDuration: stageDuration}
}

// ObserveStage implements ports.StageObserver.
func (m *stageMetrics) ObserveStage(stage, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.stageTotal.WithLabelValues(m.service, stage, outcome).Inc()
	m.stageDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}
