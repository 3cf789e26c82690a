package content

import (
	"context"
	"errors"
	"os"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Registration is the outcome of RegisterUpload.
type Registration struct {
	// Reused is true when the bytes already existed and the row now points
	// at the existing blob.
	Reused bool

	// Location is the physical location the row references after registration.
	Location string

	// Discard is the candidate location the caller must remove when Reused.
	Discard string
}

// ReleaseResult is the outcome of Release.
type ReleaseResult struct {
	// ShouldDelete is true when the released row was the last reference and
	// the bytes at Location can be removed after commit.
	ShouldDelete bool

	// Location is the physical location the released row referenced.
	Location string
}

// RegisterUpload records digest for the file row and deduplicates it against
// the owner's existing blobs in one transaction.
//
// The blobs row keyed (owner, digest) is inserted if absent. The upload whose
// insert wins keeps its candidate location. Every other upload of the same
// bytes increments the shared reference count and is repointed at the
// winner; the caller then removes Discard.
//
// A row that vanished before registration yields ErrNotFound. If the row was
// moved after hashing, its current location is used as the candidate.
func (s *Service) RegisterUpload(ctx context.Context, ownerID, fileID, digest, candidate string, size int64) (Registration, error) {
	ctx, span := telemetry.StartContentSpan(ctx, "register", candidate,
		telemetry.OwnerID(ownerID), telemetry.FileID(fileID), telemetry.Digest(digest), telemetry.Size(size))
	defer span.End()

	var reg Registration
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		row, err := tx.GetFile(ctx, fileID)
		if err != nil {
			return err
		}
		if row.Hash() != "" {
			reg = Registration{Location: row.Location()}
			return nil
		}
		if loc := row.Location(); loc != "" && loc != candidate {
			candidate = loc
		}

		inserted, err := tx.InsertBlobIfAbsent(ctx, &models.Blob{
			OwnerID:     ownerID,
			ContentHash: digest,
			Location:    candidate,
			RefCount:    1,
			SizeBytes:   size,
		})
		if err != nil {
			return err
		}

		if inserted {
			reg = Registration{Location: candidate}
			return tx.UpdateFile(ctx, fileID, models.FilePatch{
				ContentHash: &digest,
				RefCount:    models.Ptr(1),
			})
		}

		winner, err := tx.GetBlob(ctx, ownerID, digest)
		if err != nil {
			return err
		}
		if winner.Location == candidate {
			reg = Registration{Location: candidate}
			return tx.UpdateFile(ctx, fileID, models.FilePatch{
				ContentHash: &digest,
				RefCount:    models.Ptr(winner.RefCount),
			})
		}

		count, err := tx.AdjustBlobRefs(ctx, winner.Location, 1)
		if err != nil {
			return err
		}
		if err := tx.SetRefCountByLocation(ctx, winner.Location, count); err != nil {
			return err
		}
		if err := tx.UpdateFile(ctx, fileID, models.FilePatch{
			PhysicalLocation: &winner.Location,
			ContentHash:      &digest,
			RefCount:         &count,
		}); err != nil {
			return err
		}

		reg = Registration{Reused: true, Location: winner.Location, Discard: candidate}
		return nil
	})
	if err != nil {
		telemetry.RecordError(ctx, err)
		return Registration{}, drverrors.FromStore(err, fileID)
	}

	span.SetAttributes(telemetry.Reused(reg.Reused))
	if reg.Reused {
		metrics.RecordDedup(s.metrics, true, size)
	} else {
		metrics.RecordDedup(s.metrics, false, 0)
	}

	logger.DebugCtx(ctx, "Content registered",
		logger.FileID(fileID), logger.Digest(digest), logger.Location(reg.Location),
		logger.KeyReused, reg.Reused)

	return reg, nil
}

// Release drops one reference held by the file row fileID inside the caller's
// transaction.
//
// When the row was the last reference the blob index entry is removed and
// ShouldDelete is set; the caller removes the bytes with RemoveOrphan after
// commit. Otherwise every row sharing the location and the blob row are
// decremented. A row whose blob index entry vanished falls back to its own
// reference count. Releasing a folder is a no-op.
func (s *Service) Release(ctx context.Context, tx store.Store, fileID string) (ReleaseResult, error) {
	row, err := tx.GetFile(ctx, fileID)
	if err != nil {
		return ReleaseResult{}, drverrors.FromStore(err, fileID)
	}
	if !row.IsFile() || row.Location() == "" {
		return ReleaseResult{}, nil
	}

	loc := row.Location()
	result := ReleaseResult{Location: loc}

	blob, err := tx.GetBlobByLocation(ctx, loc)
	switch {
	case errors.Is(err, models.ErrBlobNotFound):
		refs := row.References()
		if refs <= 1 {
			result.ShouldDelete = true
			return result, nil
		}
		if err := tx.SetRefCountByLocation(ctx, loc, refs-1); err != nil {
			return ReleaseResult{}, drverrors.FromStore(err, row.LogicalPath)
		}
		return result, nil

	case err != nil:
		return ReleaseResult{}, drverrors.FromStore(err, row.LogicalPath)
	}

	if blob.RefCount <= 1 {
		if err := tx.DeleteBlobByLocation(ctx, loc); err != nil {
			return ReleaseResult{}, drverrors.FromStore(err, row.LogicalPath)
		}
		result.ShouldDelete = true
		return result, nil
	}

	count, err := tx.AdjustBlobRefs(ctx, loc, -1)
	if err != nil {
		return ReleaseResult{}, drverrors.FromStore(err, row.LogicalPath)
	}
	if err := tx.SetRefCountByLocation(ctx, loc, count); err != nil {
		return ReleaseResult{}, drverrors.FromStore(err, row.LogicalPath)
	}
	logger.DebugCtx(ctx, "Content reference released",
		logger.FileID(fileID), logger.Location(loc), logger.RefCount(count))
	return result, nil
}

// RemoveOrphan deletes the bytes at location if no row references it any
// more. It runs after commit, so failures are logged and otherwise ignored.
func (s *Service) RemoveOrphan(ctx context.Context, location string) {
	if location == "" {
		return
	}

	n, err := s.store.CountByLocation(ctx, location)
	if err != nil {
		logger.WarnCtx(ctx, "Orphan check failed, leaving bytes in place",
			logger.Location(location), logger.Err(err))
		return
	}
	if n > 0 {
		return
	}

	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		logger.WarnCtx(ctx, "Failed to remove orphaned blob",
			logger.Location(location), logger.Err(err))
		return
	}
	logger.DebugCtx(ctx, "Orphaned blob removed", logger.Location(location))
}

// FindDuplicate returns the owner's blob holding digest.
// Returns ErrNotFound when the owner has no such content.
func (s *Service) FindDuplicate(ctx context.Context, ownerID, digest string) (*models.Blob, error) {
	if err := ValidateDigest(digest); err != nil {
		return nil, err
	}

	blob, err := s.store.GetBlob(ctx, ownerID, digest)
	if errors.Is(err, models.ErrBlobNotFound) {
		return nil, drverrors.NewNotFoundError(digest, "content")
	}
	if err != nil {
		return nil, drverrors.FromStore(err, digest)
	}
	return blob, nil
}
