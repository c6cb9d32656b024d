// Package metrics provides constants used across metric definitions.
package metrics

// Status label values shared by the collectors.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Histogram bucket parameters.
const (
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~4s range).
	BucketStart1ms = 0.001
	// BucketStart100B is the starting bucket for 100 byte histograms (100B to ~100MB range).
	BucketStart100B = 100.0
	// BucketStart1KB is the starting bucket for 1KB histograms (1KB to ~8MB range).
	BucketStart1KB = 1024.0

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketFactor10 is the exponential growth factor of 10 for larger ranges.
	BucketFactor10 = 10

	// BucketCount6 defines 6 exponential buckets.
	BucketCount6 = 6
	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount14 defines 14 exponential buckets.
	BucketCount14 = 14
)

// PercentageFactor converts a ratio to a percentage.
const PercentageFactor = 100.0
