package drive

import (
	"context"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/drive/access"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

// GrantRequest sets the rights of one grantee on one entry.
type GrantRequest struct {
	FileID    string
	GranteeID string
	Read      bool
	Write     bool
	Delete    bool
}

// ListGrants returns the grants on fileID. Only the owner and admins may
// see them.
func (s *Service) ListGrants(ctx context.Context, actor access.Actor, fileID string) ([]*models.PermissionGrant, error) {
	node, err := s.entry(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(node) {
		return nil, drverrors.NewPermissionDeniedError(node.LogicalPath)
	}

	grants, err := s.store.ListGrants(ctx, fileID)
	if err != nil {
		return nil, drverrors.FromStore(err, node.LogicalPath)
	}
	return grants, nil
}

// Grant creates or overwrites a grant. Admin only.
func (s *Service) Grant(ctx context.Context, actor access.Actor, req GrantRequest) (*models.PermissionGrant, error) {
	if !actor.IsAdmin() {
		return nil, drverrors.NewPermissionDeniedError(req.FileID)
	}

	node, err := s.entry(ctx, req.FileID)
	if err != nil {
		return nil, err
	}
	if req.GranteeID == node.OwnerID {
		return nil, drverrors.NewInvalidArgumentError("the owner already holds every right")
	}
	if _, err := s.store.GetUserByID(ctx, req.GranteeID); err != nil {
		return nil, drverrors.FromStore(err, req.GranteeID)
	}

	grant := &models.PermissionGrant{
		FileID:    node.ID,
		GranteeID: req.GranteeID,
		CanRead:   req.Read,
		CanWrite:  req.Write,
		CanDelete: req.Delete,
		GrantedBy: actor.UserID,
	}
	if err := s.store.UpsertGrant(ctx, grant); err != nil {
		return nil, drverrors.FromStore(err, node.LogicalPath)
	}

	logger.InfoCtx(ctx, "Permission granted",
		logger.FileID(node.ID), logger.Path(node.LogicalPath), logger.UserID(req.GranteeID))
	return s.store.GetGrant(ctx, node.ID, req.GranteeID)
}

// Revoke removes the grant of granteeID on fileID. Admin only.
func (s *Service) Revoke(ctx context.Context, actor access.Actor, fileID, granteeID string) error {
	if !actor.IsAdmin() {
		return drverrors.NewPermissionDeniedError(fileID)
	}
	if err := s.store.DeleteGrant(ctx, fileID, granteeID); err != nil {
		return drverrors.FromStore(err, fileID)
	}
	logger.InfoCtx(ctx, "Permission revoked", logger.FileID(fileID), logger.UserID(granteeID))
	return nil
}

func (s *Service) entry(ctx context.Context, id string) (*models.FileEntry, error) {
	node, err := s.store.GetFile(ctx, id)
	if err != nil {
		return nil, drverrors.FromStore(err, id)
	}
	return node, nil
}
