// Package namespace implements the per-user file and folder tree.
//
// Every mutation keeps the database rows and the bytes under the storage
// root in step: physical changes are made first and undone when the
// transaction fails, and deletions of bytes happen only after commit.
//
// A blob always lives at the natural location (root/<owner>/<logical path>)
// of at least one row that references it. Relocations move bytes only when a
// row sits at its natural location, and deletes hand surviving blobs over to
// a remaining row before the subtree's bytes are removed.
package namespace

import (
	"context"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	"github.com/marmos91/dittodrive/pkg/drive/content"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// Operation names used for logging, tracing and metrics.
const (
	OpCreateFolder = "create_folder"
	OpRename       = "rename"
	OpMove         = "move"
	OpCopy         = "copy"
	OpDelete       = "delete"
)

// Service manages namespace trees.
type Service struct {
	store   store.Store
	access  *access.Resolver
	content *content.Service
	root    string
	metrics metrics.DriveMetrics
}

// NewService creates a namespace service. m may be nil.
func NewService(st store.Store, resolver *access.Resolver, cs *content.Service, m metrics.DriveMetrics) *Service {
	return &Service{
		store:   st,
		access:  resolver,
		content: cs,
		root:    cs.Root(),
		metrics: m,
	}
}

// SizeInfo summarizes the bytes and entries below a node.
type SizeInfo struct {
	Bytes   int64 `json:"total_size_bytes"`
	Files   int   `json:"file_count"`
	Folders int   `json:"folder_count"`
}

func (s *SizeInfo) add(o SizeInfo) {
	s.Bytes += o.Bytes
	s.Files += o.Files
	s.Folders += o.Folders
}

// Get returns the entry with id if actor may read it.
func (s *Service) Get(ctx context.Context, actor access.Actor, id string) (*models.FileEntry, error) {
	return s.access.Require(ctx, actor, id, access.RightRead)
}

// List returns the direct children of parent in the actor's own namespace,
// folders first, then by name.
func (s *Service) List(ctx context.Context, actor access.Actor, parent string) ([]*models.FileEntry, error) {
	return s.ListOwner(ctx, actor, actor.UserID, parent)
}

// ListOwner lists parent in ownerID's namespace. Only the owner and admins
// may list a namespace.
func (s *Service) ListOwner(ctx context.Context, actor access.Actor, ownerID, parent string) ([]*models.FileEntry, error) {
	if actor.UserID != ownerID && !actor.IsAdmin() {
		return nil, drverrors.NewPermissionDeniedError(parent)
	}

	parent, err := s.folderPath(ctx, ownerID, parent)
	if err != nil {
		return nil, err
	}

	children, err := s.store.ListChildren(ctx, ownerID, parent)
	if err != nil {
		return nil, drverrors.FromStore(err, parent)
	}
	return children, nil
}

// Size returns the size of a file, or the recursive size and entry counts of
// a folder (the folder itself included).
func (s *Service) Size(ctx context.Context, actor access.Actor, id string) (SizeInfo, error) {
	node, err := s.access.Require(ctx, actor, id, access.RightRead)
	if err != nil {
		return SizeInfo{}, err
	}
	return s.sizeOf(ctx, node)
}

// SizeOf sums Size over ids. Entries that are missing or unreadable by
// actor are skipped.
func (s *Service) SizeOf(ctx context.Context, actor access.Actor, ids []string) (SizeInfo, error) {
	var total SizeInfo
	for _, id := range ids {
		node, err := s.access.Require(ctx, actor, id, access.RightRead)
		switch {
		case drverrors.IsNotFoundError(err), drverrors.IsCode(err, drverrors.ErrPermissionDenied):
			continue
		case err != nil:
			return SizeInfo{}, err
		}

		info, err := s.sizeOf(ctx, node)
		if err != nil {
			return SizeInfo{}, err
		}
		total.add(info)
	}
	return total, nil
}

func (s *Service) sizeOf(ctx context.Context, node *models.FileEntry) (SizeInfo, error) {
	if node.IsFile() {
		return SizeInfo{Bytes: node.Size(), Files: 1}, nil
	}

	subtree, err := s.store.ListSubtree(ctx, node.OwnerID, node.LogicalPath)
	if err != nil {
		return SizeInfo{}, drverrors.FromStore(err, node.LogicalPath)
	}

	var info SizeInfo
	for _, e := range subtree {
		if e.IsFolder() {
			info.Folders++
			continue
		}
		info.Files++
		info.Bytes += e.Size()
	}
	return info, nil
}

// folderPath normalizes p and checks that it is the root or an existing
// folder of ownerID.
func (s *Service) folderPath(ctx context.Context, ownerID, p string) (string, error) {
	_, norm, err := s.folder(ctx, ownerID, p)
	return norm, err
}

// Folder returns the folder of ownerID at p, or nil for the root. It fails
// with ErrNotFound when p does not exist and ErrInvalidArgument when it is a
// file.
func (s *Service) Folder(ctx context.Context, ownerID, p string) (*models.FileEntry, error) {
	dir, _, err := s.folder(ctx, ownerID, p)
	return dir, err
}

// folder is folderPath that also returns the folder row (nil for the root).
func (s *Service) folder(ctx context.Context, ownerID, p string) (*models.FileEntry, string, error) {
	norm, err := pathutil.Normalize(p)
	if err != nil {
		return nil, "", err
	}
	if norm == pathutil.Root {
		return nil, norm, nil
	}

	dir, err := s.store.GetFileByPath(ctx, ownerID, norm)
	if err != nil {
		return nil, "", drverrors.FromStore(err, norm)
	}
	if !dir.IsFolder() {
		return nil, "", drverrors.NewInvalidArgumentError(norm + " is not a folder")
	}
	return dir, norm, nil
}

// natural returns the natural physical location of a logical path.
func (s *Service) natural(ownerID, logical string) string {
	return pathutil.PhysicalLocation(s.root, ownerID, logical)
}
