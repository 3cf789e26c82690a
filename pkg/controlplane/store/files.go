package store

import (
	"context"
	"path/filepath"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

// ============================================
// NAMESPACE OPERATIONS
// ============================================

func (s *GORMStore) GetFile(ctx context.Context, id string) (*models.FileEntry, error) {
	return findOne[models.FileEntry](s.db, ctx, "id", id, models.ErrFileNotFound)
}

func (s *GORMStore) GetFileByPath(ctx context.Context, ownerID, logicalPath string) (*models.FileEntry, error) {
	var entry models.FileEntry
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND logical_path = ?", ownerID, logicalPath).
		First(&entry).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrFileNotFound)
	}
	return &entry, nil
}

func (s *GORMStore) PathExists(ctx context.Context, ownerID, logicalPath string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.FileEntry{}).
		Where("owner_id = ? AND logical_path = ?", ownerID, logicalPath).
		Count(&count).Error
	return count > 0, err
}

func (s *GORMStore) ListChildren(ctx context.Context, ownerID, parentPath string) ([]*models.FileEntry, error) {
	// "folder" sorts after "file", so DESC lists folders first.
	return findAll[models.FileEntry](s.db, ctx, "kind DESC, name ASC",
		"owner_id = ? AND parent_path = ?", ownerID, parentPath)
}

func (s *GORMStore) ListSubtree(ctx context.Context, ownerID, logicalPath string) ([]*models.FileEntry, error) {
	if logicalPath == "/" {
		return findAll[models.FileEntry](s.db, ctx, "logical_path", "owner_id = ?", ownerID)
	}

	cond, args := underPrefix("logical_path", logicalPath+"/")
	return findAll[models.FileEntry](s.db, ctx, "logical_path",
		"owner_id = ? AND (logical_path = ? OR "+cond+")",
		append([]any{ownerID, logicalPath}, args...)...)
}

func (s *GORMStore) ListByLocation(ctx context.Context, location string) ([]*models.FileEntry, error) {
	return findAll[models.FileEntry](s.db, ctx, "created_at, id",
		"kind = ? AND physical_location = ?", models.KindFile, location)
}

func (s *GORMStore) ListUnderLocation(ctx context.Context, ownerID, prefix string) ([]*models.FileEntry, error) {
	cond, args := underPrefix("physical_location", withSeparator(prefix))
	return findAll[models.FileEntry](s.db, ctx, "physical_location",
		"owner_id = ? AND kind = ? AND "+cond,
		append([]any{ownerID, models.KindFile}, args...)...)
}

func (s *GORMStore) CountByLocation(ctx context.Context, location string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.FileEntry{}).
		Where("physical_location = ?", location).
		Count(&count).Error
	return count, err
}

func (s *GORMStore) CreateFile(ctx context.Context, entry *models.FileEntry) (string, error) {
	return insert(s.db, ctx, entry, &entry.ID, models.ErrDuplicatePath)
}

func (s *GORMStore) UpdateFile(ctx context.Context, id string, patch models.FilePatch) error {
	if patch.IsEmpty() {
		return nil
	}

	result := s.db.WithContext(ctx).
		Model(&models.FileEntry{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	if result.Error != nil {
		if isUniqueConstraintError(result.Error) {
			return models.ErrDuplicatePath
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}

func (s *GORMStore) SetRefCountByLocation(ctx context.Context, location string, count int) error {
	return s.db.WithContext(ctx).
		Model(&models.FileEntry{}).
		Where("kind = ? AND physical_location = ?", models.KindFile, location).
		Update("ref_count", count).Error
}

func (s *GORMStore) DeleteFiles(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Where("file_id IN ?", ids).Delete(&models.PermissionGrant{}).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.FileEntry{}).Error
}

func (s *GORMStore) Usage(ctx context.Context, ownerID string) (*Usage, error) {
	var usage Usage

	var rows []struct {
		Kind  models.FileKind
		Count int64
		Bytes int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.FileEntry{}).
		Select("kind, COUNT(*) AS count, COALESCE(SUM(size_bytes), 0) AS bytes").
		Where("owner_id = ?", ownerID).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		switch r.Kind {
		case models.KindFile:
			usage.Files = r.Count
			usage.LogicalBytes = r.Bytes
		case models.KindFolder:
			usage.Folders = r.Count
		}
	}

	err = s.db.WithContext(ctx).
		Model(&models.Blob{}).
		Select("COALESCE(SUM(size_bytes * (ref_count - 1)), 0)").
		Where("owner_id = ? AND ref_count > 1", ownerID).
		Row().Scan(&usage.SavedBytes)
	if err != nil {
		return nil, err
	}

	return &usage, nil
}

// withSeparator returns dir terminated by the OS path separator.
func withSeparator(dir string) string {
	if len(dir) > 0 && dir[len(dir)-1] == filepath.Separator {
		return dir
	}
	return dir + string(filepath.Separator)
}
