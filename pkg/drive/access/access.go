// Package access resolves what an actor may do with a namespace entry.
//
// The rule is deliberately flat: admins and owners hold every right; anyone
// else holds exactly the booleans of their explicit grant on that entry, or
// nothing. Rights are never inherited from parent folders.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

// Right is a single permission.
type Right int

const (
	RightRead Right = iota + 1
	RightWrite
	RightDelete
)

func (r Right) String() string {
	switch r {
	case RightRead:
		return "read"
	case RightWrite:
		return "write"
	case RightDelete:
		return "delete"
	default:
		return fmt.Sprintf("right(%d)", int(r))
	}
}

// Rights is the set of rights an actor holds on one entry.
type Rights struct {
	Read   bool `json:"can_read"`
	Write  bool `json:"can_write"`
	Delete bool `json:"can_delete"`
}

// All is the full rights set held by owners and admins.
var All = Rights{Read: true, Write: true, Delete: true}

// Has reports whether the set contains r.
func (rs Rights) Has(r Right) bool {
	switch r {
	case RightRead:
		return rs.Read
	case RightWrite:
		return rs.Write
	case RightDelete:
		return rs.Delete
	default:
		return false
	}
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// IsAdmin reports whether the actor has the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Owns reports whether the actor owns the entry.
func (a Actor) Owns(f *models.FileEntry) bool {
	return f != nil && f.OwnerID == a.UserID
}

// Store is the subset of the persistence layer the resolver reads.
type Store interface {
	GetFile(ctx context.Context, id string) (*models.FileEntry, error)
	GetGrant(ctx context.Context, fileID, granteeID string) (*models.PermissionGrant, error)
}

// Resolver answers permission questions against a Store.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// EffectiveRights returns the rights actor holds on file.
func (r *Resolver) EffectiveRights(ctx context.Context, actor Actor, file *models.FileEntry) (Rights, error) {
	if actor.IsAdmin() || actor.Owns(file) {
		return All, nil
	}

	grant, err := r.store.GetGrant(ctx, file.ID, actor.UserID)
	if errors.Is(err, models.ErrGrantNotFound) {
		return Rights{}, nil
	}
	if err != nil {
		return Rights{}, drverrors.FromStore(err, file.LogicalPath)
	}

	return Rights{Read: grant.CanRead, Write: grant.CanWrite, Delete: grant.CanDelete}, nil
}

// CheckSingle reports whether actor holds right on the entry with fileID.
// Returns ErrNotFound when the entry does not exist.
func (r *Resolver) CheckSingle(ctx context.Context, actor Actor, fileID string, right Right) (bool, error) {
	_, ok, err := r.check(ctx, actor, fileID, right)
	return ok, err
}

// Require loads the entry and fails with ErrPermissionDenied unless actor
// holds right on it.
func (r *Resolver) Require(ctx context.Context, actor Actor, fileID string, right Right) (*models.FileEntry, error) {
	file, ok, err := r.check(ctx, actor, fileID, right)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, drverrors.NewPermissionDeniedError(file.LogicalPath)
	}
	return file, nil
}

// RequireEntry is Require for an already loaded entry.
func (r *Resolver) RequireEntry(ctx context.Context, actor Actor, file *models.FileEntry, right Right) error {
	rights, err := r.EffectiveRights(ctx, actor, file)
	if err != nil {
		return err
	}
	if !rights.Has(right) {
		return drverrors.NewPermissionDeniedError(file.LogicalPath)
	}
	return nil
}

func (r *Resolver) check(ctx context.Context, actor Actor, fileID string, right Right) (*models.FileEntry, bool, error) {
	file, err := r.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, false, drverrors.FromStore(err, fileID)
	}
	rights, err := r.EffectiveRights(ctx, actor, file)
	if err != nil {
		return nil, false, err
	}
	return file, rights.Has(right), nil
}
