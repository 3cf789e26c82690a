package namespace

import (
	"context"
	"os"
	"path/filepath"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	"github.com/marmos91/dittodrive/pkg/drive/content"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Copy duplicates the entry fileID (recursively for folders) into newParent
// of the actor's own namespace. The actor owns the copy.
//
// The copy's root name is disambiguated with UniqueName. Bytes are copied to
// fresh natural locations and every new file row is an independent blob with
// ref_count 1 that keeps the source digest but is not entered in the blob
// index. Copies of files still waiting for their digest get a digest-only
// hash task. On failure the copied bytes are removed and no row is created.
func (s *Service) Copy(ctx context.Context, actor access.Actor, fileID, newParent string) (root *models.FileEntry, err error) {
	ctx, span := telemetry.StartNamespaceSpan(ctx, OpCopy, fileID,
		telemetry.UserID(actor.UserID), telemetry.NewPath(newParent))
	defer func() {
		metrics.RecordNamespaceOp(s.metrics, OpCopy, err)
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
	}()

	src, err := s.access.Require(ctx, actor, fileID, access.RightRead)
	if err != nil {
		return nil, err
	}

	dir, parent, err := s.folder(ctx, actor.UserID, newParent)
	if err != nil {
		return nil, err
	}
	if dir != nil {
		if err := s.access.RequireEntry(ctx, actor, dir, access.RightWrite); err != nil {
			return nil, err
		}
	}
	if src.IsFolder() && src.OwnerID == actor.UserID && pathutil.IsWithin(parent, src.LogicalPath) {
		return nil, drverrors.NewInvalidArgumentError("cannot copy a folder into itself")
	}

	name, err := s.UniqueName(ctx, actor.UserID, parent, src.Name)
	if err != nil {
		return nil, err
	}
	newRoot := pathutil.Join(parent, name)

	subtree := []*models.FileEntry{src}
	if src.IsFolder() {
		subtree, err = s.store.ListSubtree(ctx, src.OwnerID, src.LogicalPath)
		if err != nil {
			return nil, drverrors.FromStore(err, src.LogicalPath)
		}
	}

	rootNatural := s.natural(actor.UserID, newRoot)
	copies, err := s.copyBytes(subtree, src, actor.UserID, newRoot, name)
	if err != nil {
		_ = os.RemoveAll(rootNatural)
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		for _, c := range copies {
			if _, err := tx.CreateFile(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = os.RemoveAll(rootNatural)
		return nil, drverrors.FromStore(err, newRoot)
	}

	for _, c := range copies {
		if c.IsFile() && c.Hash() == "" {
			s.content.Queue().Enqueue(content.HashTask{FileID: c.ID, OwnerID: c.OwnerID, DigestOnly: true})
		}
	}

	logger.InfoCtx(ctx, "Entry copied",
		logger.FileID(src.ID), logger.OldPath(src.LogicalPath), logger.NewPath(newRoot),
		logger.Entries(len(copies)))

	return copies[0], nil
}

// copyBytes lays out the copied subtree on disk and returns the rows to
// insert, parents first. subtree is ordered by logical path.
func (s *Service) copyBytes(subtree []*models.FileEntry, src *models.FileEntry, ownerID, newRoot, rootName string) ([]*models.FileEntry, error) {
	copies := make([]*models.FileEntry, 0, len(subtree))

	for _, e := range subtree {
		logical := pathutil.Rebase(e.LogicalPath, src.LogicalPath, newRoot)
		loc := s.natural(ownerID, logical)

		c := &models.FileEntry{
			OwnerID:     ownerID,
			Name:        e.Name,
			LogicalPath: logical,
			ParentPath:  pathutil.Parent(logical),
			Kind:        e.Kind,
		}
		if e.ID == src.ID {
			c.Name = rootName
		}

		if e.IsFolder() {
			if err := os.MkdirAll(loc, 0o755); err != nil {
				return nil, drverrors.NewStorageIOError("create directory", err)
			}
			copies = append(copies, c)
			continue
		}

		n, err := copyFile(e.Location(), loc)
		if err != nil {
			return nil, drverrors.NewStorageIOError("copy file", err)
		}

		c.MimeType = models.Ptr(e.Mime())
		c.SizeBytes = &n
		c.PhysicalLocation = &loc
		c.ContentHash = e.ContentHash
		c.RefCount = models.Ptr(1)
		copies = append(copies, c)
	}

	return copies, nil
}

// copyFile copies the bytes at src into a new file at dst.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}

	n, err := bufpool.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}
