package content

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// HashResult describes what a hash task did. The values double as metric
// labels.
type HashResult string

const (
	HashRegistered HashResult = "registered" // first copy of these bytes
	HashReused     HashResult = "reused"     // repointed at an existing blob
	HashSkipped    HashResult = "skipped"    // row gone or already hashed
	HashRecorded   HashResult = "recorded"   // digest stored, blob index untouched
	HashFailed     HashResult = "failed"
)

// HashTask asks the queue to hash one file row.
type HashTask struct {
	FileID  string
	OwnerID string

	// DigestOnly records the digest without registering the row in the
	// blob index. Copies use it so they stay independent blobs.
	DigestOnly bool
}

// HashQueueConfig sizes the worker pool and its buffer.
type HashQueueConfig struct {
	Workers   int
	QueueSize int
}

// hashTaskTimeout bounds hashing and registering a single file.
const hashTaskTimeout = 5 * time.Minute

// HashQueue hashes uploads in the background and registers their digests.
//
// Enqueue never blocks. A task that does not fit is dropped and its file
// stays unregistered until a later rehash. Failures are logged and counted;
// the uploader never sees them.
type HashQueue struct {
	svc     *Service
	tasks   chan HashTask
	workers int

	startOnce sync.Once
	stopOnce  sync.Once
	running   atomic.Bool
	quit      chan struct{}
	done      chan struct{}

	pending   atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	errMu     sync.Mutex
	lastErr   error
	lastErrAt time.Time
}

// NewHashQueue returns an idle queue bound to svc.
func NewHashQueue(svc *Service, cfg HashQueueConfig) *HashQueue {
	workers, size := cfg.Workers, cfg.QueueSize
	if workers <= 0 {
		workers = 4
	}
	if size <= 0 {
		size = 1000
	}
	return &HashQueue{
		svc:     svc,
		tasks:   make(chan HashTask, size),
		workers: workers,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the workers once. Workers outlive ctx; only Stop ends them.
func (q *HashQueue) Start(_ context.Context) {
	q.startOnce.Do(func() {
		q.running.Store(true)
		logger.Info("Starting hash queue", "workers", q.workers)

		var wg sync.WaitGroup
		for id := range q.workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				q.work(id)
			}()
		}
		go func() {
			wg.Wait()
			close(q.done)
		}()
	})
}

// Stop asks the workers to finish the buffered tasks and waits up to
// timeout. Stopping a queue that never started does nothing.
func (q *HashQueue) Stop(timeout time.Duration) {
	if !q.running.Load() {
		return
	}
	q.stopOnce.Do(func() {
		logger.Info("Stopping hash queue", logger.KeyPending, q.Pending())
		close(q.quit)

		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case <-q.done:
			logger.Info("Hash queue stopped")
		case <-timer.C:
			logger.Warn("Hash queue stop timed out", logger.KeyPending, q.Pending())
		}
	})
}

// Enqueue offers a task and reports whether it was accepted.
func (q *HashQueue) Enqueue(task HashTask) bool {
	select {
	case q.tasks <- task:
		metrics.SetHashQueueDepth(q.svc.metrics, int(q.pending.Add(1)))
		return true
	default:
		logger.Warn("Hash queue full, dropping task", logger.FileID(task.FileID))
		return false
	}
}

// Pending is the number of accepted tasks not yet finished.
func (q *HashQueue) Pending() int { return int(q.pending.Load()) }

// Stats reports pending, completed and failed task counts.
func (q *HashQueue) Stats() (pending, completed, failed int) {
	return q.Pending(), int(q.completed.Load()), int(q.failed.Load())
}

// LastError returns the most recent task failure and when it happened.
func (q *HashQueue) LastError() (time.Time, error) {
	q.errMu.Lock()
	defer q.errMu.Unlock()
	return q.lastErrAt, q.lastErr
}

func (q *HashQueue) work(id int) {
	logger.Debug("Hash worker started", logger.Worker(id))
	defer logger.Debug("Hash worker stopped", logger.Worker(id))

	for {
		select {
		case task := <-q.tasks:
			q.run(task)
		case <-q.quit:
			for {
				select {
				case task := <-q.tasks:
					q.run(task)
				default:
					return
				}
			}
		}
	}
}

func (q *HashQueue) run(task HashTask) {
	ctx, cancel := context.WithTimeout(context.Background(), hashTaskTimeout)
	defer cancel()

	hash := q.svc.HashAndRegister
	if task.DigestOnly {
		hash = q.svc.RecordDigest
	}

	start := time.Now()
	result, err := hash(ctx, task.FileID)
	metrics.ObserveHash(q.svc.metrics, string(result), time.Since(start))
	metrics.SetHashQueueDepth(q.svc.metrics, int(q.pending.Add(-1)))

	if err != nil {
		q.failed.Add(1)
		q.errMu.Lock()
		q.lastErr, q.lastErrAt = err, time.Now()
		q.errMu.Unlock()
		logger.Error("Hash task failed",
			logger.FileID(task.FileID), logger.OwnerID(task.OwnerID), logger.Err(err))
		return
	}
	q.completed.Add(1)
	logger.Debug("Hash task completed",
		logger.FileID(task.FileID), "result", string(result),
		logger.DurationMs(logger.Duration(start)))
}

// HashAndRegister hashes the bytes of file row fileID and registers the
// digest. Rows that are gone, already hashed or whose bytes vanished are
// skipped without error.
func (s *Service) HashAndRegister(ctx context.Context, fileID string) (HashResult, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanContentHash)
	defer span.End()
	span.SetAttributes(telemetry.FileID(fileID))

	row, digest, res, err := s.hashRow(ctx, fileID)
	if row == nil {
		return res, err
	}

	reg, err := s.RegisterUpload(ctx, row.OwnerID, row.ID, digest, row.Location(), row.Size())
	if err != nil {
		if drverrors.IsNotFoundError(err) {
			return HashSkipped, nil
		}
		return HashFailed, err
	}

	if reg.Reused {
		s.RemoveOrphan(ctx, reg.Discard)
		return HashReused, nil
	}
	return HashRegistered, nil
}

// RecordDigest hashes file row fileID and stores the digest on that row only.
// Its ref count and the blob index are left alone.
func (s *Service) RecordDigest(ctx context.Context, fileID string) (HashResult, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanContentHash)
	defer span.End()
	span.SetAttributes(telemetry.FileID(fileID))

	row, digest, res, err := s.hashRow(ctx, fileID)
	if row == nil {
		return res, err
	}

	err = s.store.UpdateFile(ctx, row.ID, models.FilePatch{ContentHash: &digest})
	switch {
	case err == nil:
		return HashRecorded, nil
	case drverrors.IsNotFoundError(drverrors.FromStore(err, fileID)):
		return HashSkipped, nil
	default:
		return HashFailed, drverrors.FromStore(err, fileID)
	}
}

// hashRow loads and hashes an unhashed file row. A nil row means there is
// nothing more to do and res, err are the outcome.
func (s *Service) hashRow(ctx context.Context, fileID string) (row *models.FileEntry, digest string, res HashResult, err error) {
	row, err = s.store.GetFile(ctx, fileID)
	if err != nil {
		if drverrors.IsNotFoundError(drverrors.FromStore(err, fileID)) {
			return nil, "", HashSkipped, nil
		}
		return nil, "", HashFailed, drverrors.FromStore(err, fileID)
	}
	if !row.IsFile() || row.Hash() != "" {
		return nil, "", HashSkipped, nil
	}

	digest, err = s.HashFile(ctx, row.Location())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", HashSkipped, nil
		}
		return nil, "", HashFailed, drverrors.NewStorageIOError("hash file", err)
	}
	return row, digest, "", nil
}
