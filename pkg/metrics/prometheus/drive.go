package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittodrive/pkg/metrics"
)

func init() {
	metrics.RegisterDriveMetricsConstructor(NewDriveMetrics)
}

// driveMetrics is the Prometheus implementation of metrics.DriveMetrics.
type driveMetrics struct {
	uploads         *prometheus.CounterVec
	uploadBytes     *prometheus.HistogramVec
	uploadDuration  *prometheus.HistogramVec
	dedupOutcomes   *prometheus.CounterVec
	dedupSavedBytes prometheus.Counter
	hashTasks       *prometheus.CounterVec
	hashDuration    prometheus.Histogram
	hashQueueDepth  prometheus.Gauge
	archives        *prometheus.CounterVec
	archiveEntries  prometheus.Histogram
	archiveBytes    prometheus.Histogram
	archiveDuration prometheus.Histogram
	namespaceOps    *prometheus.CounterVec
}

// sizeBuckets spans small documents up to the default 1GiB upload limit.
var sizeBuckets = []float64{
	4096,       // 4KB
	65536,      // 64KB
	1048576,    // 1MB
	16777216,   // 16MB
	134217728,  // 128MB
	268435456,  // 256MB - default compression threshold
	1073741824, // 1GB
}

// NewDriveMetrics creates a Prometheus-backed DriveMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewDriveMetrics() metrics.DriveMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &driveMetrics{
		uploads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_uploads_total",
				Help: "Total number of uploads by kind and status",
			},
			[]string{"kind", "status"}, // kind: "stream", "instant"
		),
		uploadBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dittodrive_upload_bytes",
				Help:    "Distribution of uploaded file sizes",
				Buckets: sizeBuckets,
			},
			[]string{"kind"},
		),
		uploadDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dittodrive_upload_duration_milliseconds",
				Help: "Duration of upload requests in milliseconds",
				Buckets: []float64{
					1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 120000,
				},
			},
			[]string{"kind"},
		),
		dedupOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_dedup_registrations_total",
				Help: "Content registrations by outcome",
			},
			[]string{"outcome"}, // "new", "reused"
		),
		dedupSavedBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dittodrive_dedup_saved_bytes_total",
				Help: "Bytes not stored twice because identical content already existed",
			},
		),
		hashTasks: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_hash_tasks_total",
				Help: "Background hash tasks by result",
			},
			[]string{"result"}, // "registered", "reused", "skipped", "failed"
		),
		hashDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittodrive_hash_duration_milliseconds",
				Help: "Duration of background hash tasks in milliseconds",
				Buckets: []float64{
					1, 5, 10, 50, 100, 500, 1000, 5000, 30000,
				},
			},
		),
		hashQueueDepth: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dittodrive_hash_queue_pending",
				Help: "Number of hash tasks waiting for a worker",
			},
		),
		archives: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_archives_total",
				Help: "Archive builds by compression mode and status",
			},
			[]string{"method", "status"}, // method: "store", "deflate"
		),
		archiveEntries: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittodrive_archive_entries",
				Help:    "Number of entries per archive",
				Buckets: prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		archiveBytes: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dittodrive_archive_bytes",
				Help:    "Uncompressed payload size per archive",
				Buckets: sizeBuckets,
			},
		),
		archiveDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "dittodrive_archive_duration_milliseconds",
				Help: "Duration of archive builds in milliseconds",
				Buckets: []float64{
					10, 50, 100, 500, 1000, 5000, 30000, 120000, 600000,
				},
			},
		),
		namespaceOps: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "dittodrive_namespace_operations_total",
				Help: "Namespace mutations by operation and status",
			},
			[]string{"operation", "status"},
		),
	}
}

func (m *driveMetrics) ObserveUpload(kind string, bytes int64, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(kind, metrics.Outcome(err)).Inc()
	if err != nil {
		return
	}
	m.uploadBytes.WithLabelValues(kind).Observe(float64(bytes))
	m.uploadDuration.WithLabelValues(kind).Observe(float64(duration.Milliseconds()))
}

func (m *driveMetrics) RecordDedup(reused bool, savedBytes int64) {
	if m == nil {
		return
	}
	if !reused {
		m.dedupOutcomes.WithLabelValues("new").Inc()
		return
	}
	m.dedupOutcomes.WithLabelValues("reused").Inc()
	if savedBytes > 0 {
		m.dedupSavedBytes.Add(float64(savedBytes))
	}
}

func (m *driveMetrics) ObserveHash(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.hashTasks.WithLabelValues(result).Inc()
	m.hashDuration.Observe(float64(duration.Milliseconds()))
}

func (m *driveMetrics) SetHashQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.hashQueueDepth.Set(float64(depth))
}

func (m *driveMetrics) ObserveArchive(entries int, bytes int64, compressed bool, duration time.Duration, err error) {
	if m == nil {
		return
	}
	method := "store"
	if compressed {
		method = "deflate"
	}
	m.archives.WithLabelValues(method, metrics.Outcome(err)).Inc()
	if err != nil {
		return
	}
	m.archiveEntries.Observe(float64(entries))
	m.archiveBytes.Observe(float64(bytes))
	m.archiveDuration.Observe(float64(duration.Milliseconds()))
}

func (m *driveMetrics) RecordNamespaceOp(op string, err error) {
	if m == nil {
		return
	}
	m.namespaceOps.WithLabelValues(op, metrics.Outcome(err)).Inc()
}
