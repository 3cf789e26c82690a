package namespace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Rename gives the entry fileID a new name within its current folder.
func (s *Service) Rename(ctx context.Context, actor access.Actor, fileID, newName string) (node *models.FileEntry, err error) {
	ctx, span := telemetry.StartNamespaceSpan(ctx, OpRename, fileID, telemetry.UserID(actor.UserID))
	defer func() {
		metrics.RecordNamespaceOp(s.metrics, OpRename, err)
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
	}()

	if err := pathutil.ValidateName(newName); err != nil {
		return nil, err
	}
	node, err = s.access.Require(ctx, actor, fileID, access.RightWrite)
	if err != nil {
		return nil, err
	}
	if node.Name == newName {
		return node, nil
	}

	return s.relocate(ctx, node, node.ParentPath, newName, OpRename)
}

// Move places the entry fileID into newParent of the same owner's namespace,
// keeping its name. A folder cannot be moved into itself or a descendant.
func (s *Service) Move(ctx context.Context, actor access.Actor, fileID, newParent string) (node *models.FileEntry, err error) {
	ctx, span := telemetry.StartNamespaceSpan(ctx, OpMove, fileID,
		telemetry.UserID(actor.UserID), telemetry.NewPath(newParent))
	defer func() {
		metrics.RecordNamespaceOp(s.metrics, OpMove, err)
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
	}()

	node, err = s.access.Require(ctx, actor, fileID, access.RightWrite)
	if err != nil {
		return nil, err
	}

	dir, parent, err := s.folder(ctx, node.OwnerID, newParent)
	if err != nil {
		return nil, err
	}
	if dir != nil {
		if err := s.access.RequireEntry(ctx, actor, dir, access.RightWrite); err != nil {
			return nil, err
		}
	}
	if node.IsFolder() && pathutil.IsWithin(parent, node.LogicalPath) {
		return nil, drverrors.NewInvalidArgumentError("cannot move a folder into itself")
	}
	if parent == node.ParentPath {
		return node, nil
	}

	return s.relocate(ctx, node, parent, node.Name, OpMove)
}

// relocate moves node to newParent/newName.
//
// The node's bytes move on disk only when they sit at its natural location;
// a file repointed at another row's blob has nothing there. The database is
// then rewritten in one transaction: logical and parent paths for the node
// and every descendant, and physical locations of every row and blob under
// the old physical prefix. If the transaction fails the physical move is
// undone.
func (s *Service) relocate(ctx context.Context, node *models.FileEntry, newParent, newName, op string) (*models.FileEntry, error) {
	owner := node.OwnerID
	oldPath := node.LogicalPath
	newPath := pathutil.Join(newParent, newName)

	exists, err := s.store.PathExists(ctx, owner, newPath)
	if err != nil {
		return nil, drverrors.FromStore(err, newPath)
	}
	if exists {
		return nil, drverrors.NewAlreadyExistsError(newPath)
	}

	oldNatural := s.natural(owner, oldPath)
	newNatural := s.natural(owner, newPath)

	moved := false
	if node.IsFolder() || node.Location() == oldNatural {
		if _, err := os.Lstat(oldNatural); err == nil {
			if _, err := os.Lstat(newNatural); err == nil {
				return nil, drverrors.NewAlreadyExistsError(newPath)
			}
			if err := os.MkdirAll(filepath.Dir(newNatural), 0o755); err != nil {
				return nil, drverrors.NewStorageIOError("create parent directory", err)
			}
			if err := os.Rename(oldNatural, newNatural); err != nil {
				return nil, drverrors.NewStorageIOError("rename", err)
			}
			moved = true
		} else if !os.IsNotExist(err) {
			return nil, drverrors.NewStorageIOError("stat", err)
		}
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := rewritePaths(ctx, tx, node, oldPath, newPath, newParent, newName); err != nil {
			return err
		}
		if !moved {
			return nil
		}
		if node.IsFolder() {
			return rewriteLocationsUnder(ctx, tx, owner, oldNatural, newNatural)
		}
		return rewriteLocation(ctx, tx, oldNatural, newNatural)
	})
	if err != nil {
		if moved {
			if rbErr := os.Rename(newNatural, oldNatural); rbErr != nil {
				logger.ErrorCtx(ctx, "Rollback of physical move failed",
					logger.OldPath(oldNatural), logger.NewPath(newNatural), logger.Err(rbErr))
				return nil, drverrors.NewInconsistentError(oldPath,
					fmt.Errorf("%w (rollback: %v)", err, rbErr))
			}
		}
		return nil, drverrors.FromStore(err, newPath)
	}

	logger.InfoCtx(ctx, "Entry relocated",
		logger.Operation(op), logger.FileID(node.ID), logger.OldPath(oldPath), logger.NewPath(newPath))

	updated, err := s.store.GetFile(ctx, node.ID)
	if err != nil {
		return nil, drverrors.FromStore(err, newPath)
	}
	return updated, nil
}

// rewritePaths rebases the logical and parent paths of node's subtree.
func rewritePaths(ctx context.Context, tx store.Store, node *models.FileEntry, oldPath, newPath, newParent, newName string) error {
	subtree := []*models.FileEntry{node}
	if node.IsFolder() {
		var err error
		subtree, err = tx.ListSubtree(ctx, node.OwnerID, oldPath)
		if err != nil {
			return err
		}
	}

	for _, e := range subtree {
		patch := models.FilePatch{
			LogicalPath: models.Ptr(pathutil.Rebase(e.LogicalPath, oldPath, newPath)),
		}
		if e.ID == node.ID {
			patch.Name = &newName
			patch.ParentPath = &newParent
		} else {
			patch.ParentPath = models.Ptr(pathutil.Rebase(e.ParentPath, oldPath, newPath))
		}
		if err := tx.UpdateFile(ctx, e.ID, patch); err != nil {
			return err
		}
	}
	return nil
}

// rewriteLocationsUnder repoints every row and blob whose bytes lived below
// the old physical directory.
func rewriteLocationsUnder(ctx context.Context, tx store.Store, owner, oldDir, newDir string) error {
	rows, err := tx.ListUnderLocation(ctx, owner, oldDir)
	if err != nil {
		return err
	}
	for _, r := range rows {
		loc := pathutil.RebaseLocation(r.Location(), oldDir, newDir)
		if err := tx.UpdateFile(ctx, r.ID, models.FilePatch{PhysicalLocation: &loc}); err != nil {
			return err
		}
	}

	blobs, err := tx.ListBlobsUnder(ctx, owner, oldDir)
	if err != nil {
		return err
	}
	for _, b := range blobs {
		if err := tx.SetBlobLocation(ctx, b.Location, pathutil.RebaseLocation(b.Location, oldDir, newDir)); err != nil {
			return err
		}
	}
	return nil
}

// rewriteLocation repoints every row and the blob stored at oldLoc.
func rewriteLocation(ctx context.Context, tx store.Store, oldLoc, newLoc string) error {
	rows, err := tx.ListByLocation(ctx, oldLoc)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := tx.UpdateFile(ctx, r.ID, models.FilePatch{PhysicalLocation: &newLoc}); err != nil {
			return err
		}
	}
	return tx.SetBlobLocation(ctx, oldLoc, newLoc)
}
