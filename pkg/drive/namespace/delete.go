package namespace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/telemetry"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// handoff records a blob moved out of a deleted subtree.
type handoff struct {
	from, to string
}

// Delete removes the entry fileID and, for folders, everything below it.
//
// In one transaction every file releases its blob reference and all rows and
// their grants are deleted. A blob that is still referenced by surviving rows
// but whose bytes sit inside the deleted subtree is moved to the natural
// location of one survivor, and all sharing rows are repointed. After commit
// the orphaned blobs and the physical subtree are removed; failures there
// are only logged.
func (s *Service) Delete(ctx context.Context, actor access.Actor, fileID string) (err error) {
	ctx, span := telemetry.StartNamespaceSpan(ctx, OpDelete, fileID, telemetry.UserID(actor.UserID))
	defer func() {
		metrics.RecordNamespaceOp(s.metrics, OpDelete, err)
		if err != nil {
			telemetry.RecordError(ctx, err)
		}
		span.End()
	}()

	node, err := s.access.Require(ctx, actor, fileID, access.RightDelete)
	if err != nil {
		return err
	}
	nodeNatural := s.natural(node.OwnerID, node.LogicalPath)

	var (
		orphans  []string
		handoffs []handoff
		entries  int
	)

	err = s.store.Transaction(ctx, func(tx store.Store) error {
		subtree := []*models.FileEntry{node}
		if node.IsFolder() {
			var err error
			subtree, err = tx.ListSubtree(ctx, node.OwnerID, node.LogicalPath)
			if err != nil {
				return err
			}
		}
		entries = len(subtree)

		ids := make([]string, 0, len(subtree))
		live := make(map[string]struct{})
		for _, e := range subtree {
			ids = append(ids, e.ID)
			if !e.IsFile() {
				continue
			}
			res, err := s.content.Release(ctx, tx, e.ID)
			if err != nil {
				return err
			}
			switch {
			case res.Location == "":
			case res.ShouldDelete:
				orphans = append(orphans, res.Location)
				delete(live, res.Location)
			default:
				live[res.Location] = struct{}{}
			}
		}

		if err := tx.DeleteFiles(ctx, ids); err != nil {
			return err
		}

		for loc := range live {
			if !withinLocation(loc, nodeNatural, node.IsFolder()) {
				continue
			}
			h, err := s.handOff(ctx, tx, loc)
			if err != nil {
				return err
			}
			if h.to == "" {
				orphans = append(orphans, loc)
				continue
			}
			handoffs = append(handoffs, h)
		}
		return nil
	})
	if err != nil {
		rollbackHandoffs(ctx, handoffs)
		return drverrors.FromStore(err, node.LogicalPath)
	}

	for _, loc := range orphans {
		s.content.RemoveOrphan(ctx, loc)
	}
	if node.IsFolder() {
		if err := os.RemoveAll(nodeNatural); err != nil {
			logger.WarnCtx(ctx, "Failed to remove folder bytes",
				logger.Location(nodeNatural), logger.Err(err))
		}
	}

	logger.InfoCtx(ctx, "Entry deleted",
		logger.FileID(node.ID), logger.Path(node.LogicalPath), logger.Entries(entries))
	return nil
}

// handOff moves the blob at loc to the natural location of one surviving
// row and repoints every sharing row and the blob index. It returns a zero
// handoff when no row references loc any more.
func (s *Service) handOff(ctx context.Context, tx store.Store, loc string) (handoff, error) {
	survivors, err := tx.ListByLocation(ctx, loc)
	if err != nil {
		return handoff{}, err
	}
	if len(survivors) == 0 {
		return handoff{}, nil
	}

	heir := survivors[0]
	target := s.natural(heir.OwnerID, heir.LogicalPath)

	if _, err := os.Lstat(target); err == nil {
		return handoff{}, drverrors.NewInconsistentError(heir.LogicalPath,
			errors.New("natural location of surviving row is occupied"))
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return handoff{}, drverrors.NewStorageIOError("create parent directory", err)
	}
	if err := os.Rename(loc, target); err != nil {
		return handoff{}, drverrors.NewStorageIOError("hand off blob", err)
	}
	h := handoff{from: loc, to: target}

	if err := rewriteLocation(ctx, tx, loc, target); err != nil {
		_ = os.Rename(target, loc)
		return handoff{}, err
	}

	logger.DebugCtx(ctx, "Blob handed off to surviving row",
		logger.FileID(heir.ID), logger.OldPath(loc), logger.NewPath(target))
	return h, nil
}

// rollbackHandoffs moves handed-off bytes back after a failed transaction.
func rollbackHandoffs(ctx context.Context, handoffs []handoff) {
	for i := len(handoffs) - 1; i >= 0; i-- {
		h := handoffs[i]
		if err := os.Rename(h.to, h.from); err != nil {
			logger.ErrorCtx(ctx, "Failed to restore handed-off blob",
				logger.OldPath(h.to), logger.NewPath(h.from), logger.Err(err))
		}
	}
}

// withinLocation reports whether loc is the deleted node's natural location
// or, for folders, lies below it.
func withinLocation(loc, natural string, folder bool) bool {
	if loc == natural {
		return true
	}
	return folder && strings.HasPrefix(loc, natural+string(filepath.Separator))
}
