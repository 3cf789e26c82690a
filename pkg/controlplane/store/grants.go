package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

// ============================================
// PERMISSION GRANT OPERATIONS
// ============================================

func (s *GORMStore) GetGrant(ctx context.Context, fileID, granteeID string) (*models.PermissionGrant, error) {
	var grant models.PermissionGrant
	err := s.db.WithContext(ctx).
		Where("file_id = ? AND grantee_id = ?", fileID, granteeID).
		First(&grant).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrGrantNotFound)
	}
	return &grant, nil
}

func (s *GORMStore) ListGrants(ctx context.Context, fileID string) ([]*models.PermissionGrant, error) {
	return findAll[models.PermissionGrant](s.db, ctx, "created_at", "file_id = ?", fileID)
}

func (s *GORMStore) UpsertGrant(ctx context.Context, grant *models.PermissionGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	grant.UpdatedAt = time.Now()

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}, {Name: "grantee_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"can_read", "can_write", "can_delete", "granted_by", "updated_at"}),
		}).
		Create(grant).Error
}

func (s *GORMStore) DeleteGrant(ctx context.Context, fileID, granteeID string) error {
	result := s.db.WithContext(ctx).
		Where("file_id = ? AND grantee_id = ?", fileID, granteeID).
		Delete(&models.PermissionGrant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrGrantNotFound
	}
	return nil
}
