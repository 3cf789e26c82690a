package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

// ============================================
// BLOB INDEX OPERATIONS
// ============================================

func (s *GORMStore) InsertBlobIfAbsent(ctx context.Context, blob *models.Blob) (bool, error) {
	if blob.ID == "" {
		blob.ID = uuid.New().String()
	}

	// ON CONFLICT DO NOTHING makes the existence check and the insert one
	// statement: of two racing registrations exactly one affects a row.
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(blob)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// blobs starts a blob query. Inside a transaction the selected rows are
// locked until commit so a ref count read there is still current when it is
// written back. SQLite ignores the clause and serializes writers anyway.
func (s *GORMStore) blobs(ctx context.Context) *gorm.DB {
	q := s.db.WithContext(ctx)
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return q
}

func (s *GORMStore) GetBlob(ctx context.Context, ownerID, contentHash string) (*models.Blob, error) {
	var blob models.Blob
	err := s.blobs(ctx).
		Where("owner_id = ? AND content_hash = ?", ownerID, contentHash).
		First(&blob).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrBlobNotFound)
	}
	return &blob, nil
}

func (s *GORMStore) GetBlobByLocation(ctx context.Context, location string) (*models.Blob, error) {
	var blob models.Blob
	if err := s.blobs(ctx).Where("location = ?", location).First(&blob).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrBlobNotFound)
	}
	return &blob, nil
}

func (s *GORMStore) AdjustBlobRefs(ctx context.Context, location string, delta int) (int, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Blob{}).
		Where("location = ?", location).
		Update("ref_count", gorm.Expr("ref_count + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, models.ErrBlobNotFound
	}

	// The update holds the row lock, so this read sees the final count.
	var count int
	err := s.db.WithContext(ctx).
		Model(&models.Blob{}).
		Where("location = ?", location).
		Select("ref_count").
		Scan(&count).Error
	return count, err
}

func (s *GORMStore) SetBlobLocation(ctx context.Context, oldLocation, newLocation string) error {
	return s.db.WithContext(ctx).
		Model(&models.Blob{}).
		Where("location = ?", oldLocation).
		Update("location", newLocation).Error
}

func (s *GORMStore) ListBlobsUnder(ctx context.Context, ownerID, prefix string) ([]*models.Blob, error) {
	cond, args := underPrefix("location", withSeparator(prefix))
	return findAll[models.Blob](s.db, ctx, "location",
		"owner_id = ? AND "+cond, append([]any{ownerID}, args...)...)
}

func (s *GORMStore) DeleteBlobByLocation(ctx context.Context, location string) error {
	return s.db.WithContext(ctx).
		Where("location = ?", location).
		Delete(&models.Blob{}).Error
}
