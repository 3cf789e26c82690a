package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/pkg/metrics"
)

// The registry is process-global, so every assertion below works on a
// single DriveMetrics instance created once.
func TestDriveMetrics(t *testing.T) {
	metrics.InitRegistry()

	m := metrics.NewDriveMetrics()
	require.NotNil(t, m, "constructor should be registered by init")
	dm := m.(*driveMetrics)

	t.Run("uploads", func(t *testing.T) {
		m.ObserveUpload("stream", 1024, 5*time.Millisecond, nil)
		m.ObserveUpload("stream", 0, time.Millisecond, errors.New("too large"))

		assert.Equal(t, 1.0, testutil.ToFloat64(dm.uploads.WithLabelValues("stream", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(dm.uploads.WithLabelValues("stream", "error")))
	})

	t.Run("dedup", func(t *testing.T) {
		m.RecordDedup(false, 0)
		m.RecordDedup(true, 2048)
		m.RecordDedup(true, 1024)

		assert.Equal(t, 1.0, testutil.ToFloat64(dm.dedupOutcomes.WithLabelValues("new")))
		assert.Equal(t, 2.0, testutil.ToFloat64(dm.dedupOutcomes.WithLabelValues("reused")))
		assert.Equal(t, 3072.0, testutil.ToFloat64(dm.dedupSavedBytes))
	})

	t.Run("hash queue", func(t *testing.T) {
		m.ObserveHash("registered", time.Millisecond)
		m.SetHashQueueDepth(7)

		assert.Equal(t, 1.0, testutil.ToFloat64(dm.hashTasks.WithLabelValues("registered")))
		assert.Equal(t, 7.0, testutil.ToFloat64(dm.hashQueueDepth))
	})

	t.Run("archives", func(t *testing.T) {
		m.ObserveArchive(3, 300, false, time.Millisecond, nil)
		m.ObserveArchive(1, 100, true, time.Millisecond, nil)

		assert.Equal(t, 1.0, testutil.ToFloat64(dm.archives.WithLabelValues("store", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(dm.archives.WithLabelValues("deflate", "success")))
	})

	t.Run("namespace", func(t *testing.T) {
		m.RecordNamespaceOp("move", nil)
		m.RecordNamespaceOp("move", errors.New("conflict"))

		assert.Equal(t, 1.0, testutil.ToFloat64(dm.namespaceOps.WithLabelValues("move", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(dm.namespaceOps.WithLabelValues("move", "error")))
	})

	t.Run("endpoint exposes drive metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "dittodrive_uploads_total")
	})
}
