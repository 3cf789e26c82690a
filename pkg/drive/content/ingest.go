package content

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Upload kinds used as metric labels.
const (
	UploadKindStream  = "stream"
	UploadKindInstant = "instant"
)

// Ingest streams r to the natural location of parent/name in the owner's
// namespace and creates the file row.
//
// At most limit bytes are accepted (limit <= 0 disables the check); a larger
// body fails with ErrTooLarge and leaves nothing behind. The row is created
// without a digest and a hash task is queued; if the queue is full the file
// stays usable but is not deduplicated.
func (s *Service) Ingest(ctx context.Context, ownerID, parent, name, mime string, r io.Reader, limit int64) (*models.FileEntry, error) {
	start := time.Now()
	ctx, span := telemetry.StartDriveSpan(ctx, telemetry.SpanUpload, ownerID, telemetry.Filename(name))
	defer span.End()

	row, err := s.ingest(ctx, ownerID, parent, name, mime, r, limit)
	var size int64
	if row != nil {
		size = row.Size()
	}
	metrics.ObserveUpload(s.metrics, UploadKindStream, size, time.Since(start), err)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	span.SetAttributes(telemetry.FileID(row.ID), telemetry.Path(row.LogicalPath), telemetry.Size(row.Size()))

	if !s.queue.Enqueue(HashTask{FileID: row.ID, OwnerID: ownerID}) {
		logger.WarnCtx(ctx, "Hash queue full, file will not be deduplicated",
			logger.FileID(row.ID), logger.Path(row.LogicalPath))
	}

	logger.InfoCtx(ctx, "File uploaded",
		logger.FileID(row.ID), logger.Path(row.LogicalPath), logger.Size(row.Size()),
		logger.DurationMs(logger.Duration(start)))

	return row, nil
}

func (s *Service) ingest(ctx context.Context, ownerID, parent, name, mime string, r io.Reader, limit int64) (*models.FileEntry, error) {
	logical, parent, err := s.resolveTarget(ctx, ownerID, parent, name)
	if err != nil {
		return nil, err
	}

	loc := pathutil.PhysicalLocation(s.root, ownerID, logical)
	if err := os.MkdirAll(filepath.Dir(loc), 0o755); err != nil {
		return nil, drverrors.NewStorageIOError("create parent directory", err)
	}

	f, err := os.OpenFile(loc, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, drverrors.NewAlreadyExistsError(logical)
		}
		return nil, drverrors.NewStorageIOError("create file", err)
	}

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := bufpool.Copy(f, &ctxReader{ctx: ctx, r: src})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && limit > 0 && n > limit {
		err = drverrors.NewTooLargeError(n, limit)
	}
	if err != nil {
		_ = os.Remove(loc)
		if drverrors.CodeOf(err) != 0 {
			return nil, err
		}
		return nil, drverrors.NewStorageIOError("write file", err)
	}

	if mime == "" || mime == DefaultMimeType {
		mime = DetectMime(name, loc)
	}

	row := &models.FileEntry{
		OwnerID:          ownerID,
		Name:             name,
		LogicalPath:      logical,
		ParentPath:       parent,
		Kind:             models.KindFile,
		MimeType:         &mime,
		SizeBytes:        &n,
		PhysicalLocation: &loc,
		RefCount:         models.Ptr(1),
	}
	if _, err := s.store.CreateFile(ctx, row); err != nil {
		_ = os.Remove(loc)
		return nil, drverrors.FromStore(err, logical)
	}
	return row, nil
}

// InstantUpload creates parent/name pointing at the owner's existing blob
// with digest, without transferring any bytes.
// Returns ErrNotFound when the owner holds no content with that digest.
func (s *Service) InstantUpload(ctx context.Context, ownerID, parent, name, digest string) (*models.FileEntry, error) {
	start := time.Now()
	ctx, span := telemetry.StartDriveSpan(ctx, telemetry.SpanInstantUpload, ownerID, telemetry.Digest(digest))
	defer span.End()

	row, err := s.instantUpload(ctx, ownerID, parent, name, digest)
	var size int64
	if row != nil {
		size = row.Size()
	}
	metrics.ObserveUpload(s.metrics, UploadKindInstant, size, time.Since(start), err)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	metrics.RecordDedup(s.metrics, true, row.Size())

	logger.InfoCtx(ctx, "File instant-uploaded",
		logger.FileID(row.ID), logger.Path(row.LogicalPath), logger.Digest(digest),
		logger.Size(row.Size()))

	return row, nil
}

func (s *Service) instantUpload(ctx context.Context, ownerID, parent, name, digest string) (*models.FileEntry, error) {
	if err := ValidateDigest(digest); err != nil {
		return nil, err
	}
	logical, parent, err := s.resolveTarget(ctx, ownerID, parent, name)
	if err != nil {
		return nil, err
	}

	var row *models.FileEntry
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		blob, err := tx.GetBlob(ctx, ownerID, digest)
		if errors.Is(err, models.ErrBlobNotFound) {
			return drverrors.NewNotFoundError(digest, "content")
		}
		if err != nil {
			return err
		}

		mime := MimeFromName(name)
		if mime == "" {
			mime = DefaultMimeType
			if siblings, err := tx.ListByLocation(ctx, blob.Location); err == nil && len(siblings) > 0 {
				mime = siblings[0].Mime()
			}
		}

		row = &models.FileEntry{
			OwnerID:          ownerID,
			Name:             name,
			LogicalPath:      logical,
			ParentPath:       parent,
			Kind:             models.KindFile,
			MimeType:         &mime,
			SizeBytes:        models.Ptr(blob.SizeBytes),
			PhysicalLocation: models.Ptr(blob.Location),
			ContentHash:      models.Ptr(digest),
			RefCount:         models.Ptr(blob.RefCount + 1),
		}
		if _, err := tx.CreateFile(ctx, row); err != nil {
			return err
		}
		count, err := tx.AdjustBlobRefs(ctx, blob.Location, 1)
		if err != nil {
			return err
		}
		row.RefCount = &count
		return tx.SetRefCountByLocation(ctx, blob.Location, count)
	})
	if err != nil {
		return nil, drverrors.FromStore(err, logical)
	}
	return row, nil
}

// resolveTarget normalizes parent, validates name and checks that parent is
// the root or an existing folder of the owner.
func (s *Service) resolveTarget(ctx context.Context, ownerID, parent, name string) (logical, normParent string, err error) {
	normParent, err = pathutil.Normalize(parent)
	if err != nil {
		return "", "", err
	}
	if err := pathutil.ValidateName(name); err != nil {
		return "", "", err
	}

	if normParent != pathutil.Root {
		dir, err := s.store.GetFileByPath(ctx, ownerID, normParent)
		if err != nil {
			return "", "", drverrors.FromStore(err, normParent)
		}
		if !dir.IsFolder() {
			return "", "", drverrors.NewInvalidArgumentError("parent is not a folder")
		}
	}

	return pathutil.Join(normParent, name), normParent, nil
}
