package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DetectionMetrics tracks the classification pipeline. It satisfies
// detection.Recorder.
type DetectionMetrics struct {
	classificationsTotal *prometheus.CounterVec
	rejectionsTotal      *prometheus.CounterVec
	persistedBytes       prometheus.Histogram
	pipelineDuration     prometheus.Histogram
}

// NewDetectionMetrics creates and registers detection pipeline metrics
func NewDetectionMetrics(registry prometheus.Registerer) (*DetectionMetrics, error) {
	m := &DetectionMetrics{
		classificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_detection_classifications_total",
				Help: "Total number of classified uploads by verdict",
			},
			[]string{"classification"},
		),
		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_detection_rejections_total",
				Help: "Total number of rejected requests by error kind and validation reason",
			},
			[]string{"kind", "reason"},
		),
		persistedBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voice_detection_persisted_bytes",
				Help:    "Decoded size of persisted uploads",
				Buckets: prometheus.ExponentialBuckets(BucketStart1KB, BucketFactor2, BucketCount14), // 1KB to 8MB
			},
		),
		pipelineDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "voice_detection_pipeline_duration_seconds",
				Help:    "Time from admission to verdict for successful requests",
				Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
			},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DetectionMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.classificationsTotal,
		m.rejectionsTotal,
		m.persistedBytes,
		m.pipelineDuration,
	}
}

// Describe implements the Collector interface
func (m *DetectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DetectionMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// RecordClassification records a successful classification
func (m *DetectionMetrics) RecordClassification(classification string, bytes int64, took time.Duration) {
	m.classificationsTotal.WithLabelValues(classification).Inc()
	m.persistedBytes.Observe(float64(bytes))
	m.pipelineDuration.Observe(took.Seconds())
}

// RecordRejection records a failed request. reason is empty for non-validation kinds.
func (m *DetectionMetrics) RecordRejection(kind, reason string) {
	m.rejectionsTotal.WithLabelValues(kind, reason).Inc()
}
