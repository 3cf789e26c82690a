package drive

import (
	"context"
	"os"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
	"github.com/marmos91/dittodrive/pkg/drive/pathutil"
)

// DeleteUser removes a user together with the whole namespace, the grants
// involving it and its stored bytes. Admin only; admins cannot delete
// themselves.
func (s *Service) DeleteUser(ctx context.Context, actor access.Actor, userID string) error {
	if !actor.IsAdmin() {
		return drverrors.NewPermissionDeniedError(userID)
	}
	if actor.UserID == userID {
		return drverrors.NewInvalidArgumentError("cannot delete the calling user")
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return drverrors.FromStore(err, userID)
	}

	dir := pathutil.OwnerRoot(s.content.Root(), userID)
	if err := os.RemoveAll(dir); err != nil {
		// The rows are gone; the bytes are unreachable leftovers.
		logger.ErrorCtx(ctx, "Failed to remove user storage", logger.OwnerID(userID), logger.Location(dir), logger.Err(err))
		return drverrors.NewStorageIOError("remove user storage", err)
	}

	logger.InfoCtx(ctx, "User deleted", logger.OwnerID(userID))
	return nil
}
