package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DiskManagerMetrics contains Prometheus metrics for upload retention
type DiskManagerMetrics struct {
	// Disk usage metrics
	diskUsageBytes            prometheus.Gauge
	diskTotalBytes            prometheus.Gauge
	diskUtilizationPercentage prometheus.Gauge

	// Cleanup operation metrics
	cleanupOperationsTotal *prometheus.CounterVec
	cleanupErrorsTotal     *prometheus.CounterVec
	filesDeletedTotal      *prometheus.CounterVec
	bytesFreedTotal        *prometheus.CounterVec
	cleanupDurationSeconds *prometheus.HistogramVec
}

// NewDiskManagerMetrics creates and registers new disk manager metrics
func NewDiskManagerMetrics(registry prometheus.Registerer) (*DiskManagerMetrics, error) {
	m := &DiskManagerMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *DiskManagerMetrics) initMetrics() {
	m.diskUsageBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "diskmanager_disk_usage_bytes",
		Help: "Used bytes on the filesystem holding the upload directory",
	})
	m.diskTotalBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "diskmanager_disk_total_bytes",
		Help: "Total bytes on the filesystem holding the upload directory",
	})
	m.diskUtilizationPercentage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "diskmanager_disk_utilization_percentage",
		Help: "Disk utilization percentage of the upload filesystem",
	})

	m.cleanupOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskmanager_cleanup_operations_total",
			Help: "Total number of cleanup runs",
		},
		[]string{"policy", "status"},
	)
	m.cleanupErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskmanager_cleanup_errors_total",
			Help: "Total number of cleanup errors",
		},
		[]string{"policy", "error_type"},
	)
	m.filesDeletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskmanager_files_deleted_total",
			Help: "Total number of uploads deleted by retention",
		},
		[]string{"policy"},
	)
	m.bytesFreedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diskmanager_bytes_freed_total",
			Help: "Total bytes freed by retention",
		},
		[]string{"policy"},
	)
	m.cleanupDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "diskmanager_cleanup_duration_seconds",
			Help:    "Duration of cleanup runs",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount14),
		},
		[]string{"policy"},
	)
}

func (m *DiskManagerMetrics) getCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.diskUsageBytes,
		m.diskTotalBytes,
		m.diskUtilizationPercentage,
		m.cleanupOperationsTotal,
		m.cleanupErrorsTotal,
		m.filesDeletedTotal,
		m.bytesFreedTotal,
		m.cleanupDurationSeconds,
	}
}

// Describe implements the Collector interface
func (m *DiskManagerMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.getCollectors() {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *DiskManagerMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.getCollectors() {
		collector.Collect(ch)
	}
}

// UpdateDiskUsage updates disk usage metrics
func (m *DiskManagerMetrics) UpdateDiskUsage(usedBytes, totalBytes uint64) {
	m.diskUsageBytes.Set(float64(usedBytes))
	m.diskTotalBytes.Set(float64(totalBytes))

	var utilizationPercentage float64
	if totalBytes > 0 {
		utilizationPercentage = float64(usedBytes) / float64(totalBytes) * PercentageFactor
	}
	m.diskUtilizationPercentage.Set(utilizationPercentage)
}

// RecordCleanupOperation records a cleanup run
func (m *DiskManagerMetrics) RecordCleanupOperation(policy, status string) {
	m.cleanupOperationsTotal.WithLabelValues(policy, status).Inc()
}

// RecordCleanupError records a cleanup error
func (m *DiskManagerMetrics) RecordCleanupError(policy, errorType string) {
	m.cleanupErrorsTotal.WithLabelValues(policy, errorType).Inc()
}

// RecordFilesDeleted records the number of files deleted
func (m *DiskManagerMetrics) RecordFilesDeleted(policy string, count int) {
	m.filesDeletedTotal.WithLabelValues(policy).Add(float64(count))
}

// RecordBytesFreed records the number of bytes freed
func (m *DiskManagerMetrics) RecordBytesFreed(policy string, bytes int64) {
	m.bytesFreedTotal.WithLabelValues(policy).Add(float64(bytes))
}

// RecordCleanupDuration records the duration of a cleanup run
func (m *DiskManagerMetrics) RecordCleanupDuration(policy string, seconds float64) {
	m.cleanupDurationSeconds.WithLabelValues(policy).Observe(seconds)
}
