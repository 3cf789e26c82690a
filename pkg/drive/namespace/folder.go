package namespace

import (
	"context"
	"os"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// CreateFolder creates parent/name in the actor's namespace together with its
// physical directory.
func (s *Service) CreateFolder(ctx context.Context, actor access.Actor, parent, name string) (folder *models.FileEntry, err error) {
	ctx, span := telemetry.StartNamespaceSpan(ctx, OpCreateFolder, parent, telemetry.UserID(actor.UserID))
	defer func() {
		metrics.RecordNamespaceOp(s.metrics, OpCreateFolder, err)
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
	}()

	if err := pathutil.ValidateName(name); err != nil {
		return nil, err
	}
	dir, parent, err := s.folder(ctx, actor.UserID, parent)
	if err != nil {
		return nil, err
	}
	if dir != nil {
		if err := s.access.RequireEntry(ctx, actor, dir, access.RightWrite); err != nil {
			return nil, err
		}
	}

	logical := pathutil.Join(parent, name)
	exists, err := s.store.PathExists(ctx, actor.UserID, logical)
	if err != nil {
		return nil, drverrors.FromStore(err, logical)
	}
	if exists {
		return nil, drverrors.NewAlreadyExistsError(logical)
	}

	loc := s.natural(actor.UserID, logical)
	if err := os.MkdirAll(loc, 0o755); err != nil {
		return nil, drverrors.NewStorageIOError("create directory", err)
	}

	folder = &models.FileEntry{
		OwnerID:     actor.UserID,
		Name:        name,
		LogicalPath: logical,
		ParentPath:  parent,
		Kind:        models.KindFolder,
	}
	if _, err := s.store.CreateFile(ctx, folder); err != nil {
		// Remove only succeeds on an empty directory, so a racing winner's
		// contents are left alone.
		_ = os.Remove(loc)
		return nil, drverrors.FromStore(err, logical)
	}

	logger.InfoCtx(ctx, "Folder created", logger.FileID(folder.ID), logger.Path(logical))
	return folder, nil
}
