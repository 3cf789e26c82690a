// Package batch resolves a multi-selection of namespace entries into the flat
// list of files a batch download has to archive.
package batch

import (
	"context"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

// Root identifies the selected folder a collected file was reached through.
// Files selected directly have no Root.
type Root struct {
	Name string
	Path string
}

// Collection is the result of Collect.
type Collection struct {
	// Files holds every collected file exactly once, in selection order.
	Files []*models.FileEntry

	// RootOf maps a file ID to the selected folder it belongs to.
	RootOf map[string]Root
}

// TotalSize returns the summed size of the collected files.
func (c *Collection) TotalSize() int64 {
	return TotalSize(c.Files)
}

// Lister lists the direct children of a folder.
type Lister interface {
	ListChildren(ctx context.Context, ownerID, parentPath string) ([]*models.FileEntry, error)
}

// Collector expands selections into files.
type Collector struct {
	access *access.Resolver
	store  Lister
}

// NewCollector creates a Collector.
func NewCollector(resolver *access.Resolver, st Lister) *Collector {
	return &Collector{access: resolver, store: st}
}

// Collect resolves ids into the files they denote. Every id must exist and be
// readable by actor, otherwise the whole batch fails. Folders are expanded to
// all files below them, and each expanded file is read-checked on its own
// row since grants are not inherited. A file reached twice is returned once,
// attributed to the first selection that reached it.
func (c *Collector) Collect(ctx context.Context, actor access.Actor, ids []string) (col *Collection, err error) {
	ctx, span := telemetry.StartDriveSpan(ctx, telemetry.SpanBatchCollect, actor.UserID,
		telemetry.Entries(len(ids)))
	defer func() {
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
	}()

	if len(ids) == 0 {
		return nil, drverrors.NewInvalidArgumentError("no files selected")
	}

	col = &Collection{RootOf: make(map[string]Root)}
	seen := make(map[string]struct{})
	add := func(f *models.FileEntry, root *Root) {
		if _, ok := seen[f.ID]; ok {
			return
		}
		seen[f.ID] = struct{}{}
		col.Files = append(col.Files, f)
		if root != nil {
			col.RootOf[f.ID] = *root
		}
	}

	for _, id := range ids {
		node, err := c.access.Require(ctx, actor, id, access.RightRead)
		if err != nil {
			return nil, err
		}

		if node.IsFile() {
			add(node, nil)
			continue
		}

		root := Root{Name: node.Name, Path: node.LogicalPath}
		files, err := c.expand(ctx, node)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if err := c.access.RequireEntry(ctx, actor, f, access.RightRead); err != nil {
				return nil, err
			}
			add(f, &root)
		}
	}

	logger.DebugCtx(ctx, "Batch collected",
		logger.Entries(len(col.Files)), logger.Size(col.TotalSize()))
	return col, nil
}

// expand walks folder with an explicit stack of pending folder paths.
func (c *Collector) expand(ctx context.Context, folder *models.FileEntry) ([]*models.FileEntry, error) {
	var files []*models.FileEntry
	pending := []string{folder.LogicalPath}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		children, err := c.store.ListChildren(ctx, folder.OwnerID, dir)
		if err != nil {
			return nil, drverrors.FromStore(err, dir)
		}
		for _, child := range children {
			if child.IsFolder() {
				pending = append(pending, child.LogicalPath)
				continue
			}
			files = append(files, child)
		}
	}
	return files, nil
}

// TotalSize sums the sizes of files.
func TotalSize(files []*models.FileEntry) int64 {
	var total int64
	for _, f := range files {
		total += f.Size()
	}
	return total
}

// EnforceLimit fails with ErrTooLarge when total exceeds limit. A limit of zero
// or less disables the check.
func EnforceLimit(total, limit int64) error {
	if limit > 0 && total > limit {
		return drverrors.NewTooLargeError(total, limit)
	}
	return nil
}
