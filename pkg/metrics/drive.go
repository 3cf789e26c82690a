package metrics

import (
	"time"
)

// DriveMetrics records drive-level activity.
//
// Implementations must be safe for concurrent use. A nil DriveMetrics is
// valid everywhere: use the package-level helpers below, which skip the call
// when metrics are disabled.
type DriveMetrics interface {
	// ObserveUpload records an upload (streamed or instant) of the given size.
	ObserveUpload(kind string, bytes int64, duration time.Duration, err error)

	// RecordDedup records the outcome of a content registration.
	// savedBytes is the size no longer stored twice when reused is true.
	RecordDedup(reused bool, savedBytes int64)

	// ObserveHash records one background hash task.
	// result is one of "registered", "reused", "recorded", "skipped", "failed".
	ObserveHash(result string, duration time.Duration)

	// SetHashQueueDepth records the number of pending hash tasks.
	SetHashQueueDepth(depth int)

	// ObserveArchive records a completed or failed archive build.
	ObserveArchive(entries int, bytes int64, compressed bool, duration time.Duration, err error)

	// RecordNamespaceOp records a namespace mutation (create_folder, rename,
	// move, copy, delete).
	RecordNamespaceOp(op string, err error)
}

// NewDriveMetrics creates a Prometheus-backed DriveMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or if the
// prometheus implementation package has not been linked in.
func NewDriveMetrics() DriveMetrics {
	if !IsEnabled() || newPrometheusDriveMetrics == nil {
		return nil
	}
	return newPrometheusDriveMetrics()
}

// newPrometheusDriveMetrics is set by pkg/metrics/prometheus during init.
// The indirection keeps the prometheus package free to import this one.
var newPrometheusDriveMetrics func() DriveMetrics

// RegisterDriveMetricsConstructor registers the Prometheus implementation.
func RegisterDriveMetricsConstructor(constructor func() DriveMetrics) {
	newPrometheusDriveMetrics = constructor
}

// ObserveUpload records an upload if m is non-nil.
func ObserveUpload(m DriveMetrics, kind string, bytes int64, duration time.Duration, err error) {
	if m != nil {
		m.ObserveUpload(kind, bytes, duration, err)
	}
}

// RecordDedup records a registration outcome if m is non-nil.
func RecordDedup(m DriveMetrics, reused bool, savedBytes int64) {
	if m != nil {
		m.RecordDedup(reused, savedBytes)
	}
}

// ObserveHash records a hash task if m is non-nil.
func ObserveHash(m DriveMetrics, result string, duration time.Duration) {
	if m != nil {
		m.ObserveHash(result, duration)
	}
}

// SetHashQueueDepth records the hash queue depth if m is non-nil.
func SetHashQueueDepth(m DriveMetrics, depth int) {
	if m != nil {
		m.SetHashQueueDepth(depth)
	}
}

// ObserveArchive records an archive build if m is non-nil.
func ObserveArchive(m DriveMetrics, entries int, bytes int64, compressed bool, duration time.Duration, err error) {
	if m != nil {
		m.ObserveArchive(entries, bytes, compressed, duration, err)
	}
}

// RecordNamespaceOp records a namespace mutation if m is non-nil.
func RecordNamespaceOp(m DriveMetrics, op string, err error) {
	if m != nil {
		m.RecordNamespaceOp(op, err)
	}
}

// Outcome maps an error to the "status" label value used by drive metrics.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
