// Package store provides the DittoDrive persistence layer.
//
// This package implements the Store interface for users, namespace entries
// (files and folders), permission grants and the deduplication blob index.
//
// Two backends are supported:
//   - SQLite (single-node, default)
//   - PostgreSQL
package store

import (
	"context"
	"time"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

// Store provides the persistence interface.
//
// Thread Safety: Implementations must be safe for concurrent use from multiple
// goroutines.
//
// Transaction hands fn a Store bound to one database transaction. Inside fn
// every call must go through that Store: the SQLite backend runs a single
// connection, so touching the outer Store from fn blocks forever.
type Store interface {
	UserStore
	FileStore
	GrantStore
	BlobStore

	// Transaction runs fn inside a database transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Healthcheck verifies the database connection.
	Healthcheck(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// UserStore manages user accounts.
type UserStore interface {
	// ============================================
	// USER OPERATIONS
	// ============================================

	// GetUser returns a user by username.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	GetUser(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns a user by their unique ID (UUID).
	// Returns models.ErrUserNotFound if no user has this ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// ListUsers returns all users ordered by username.
	ListUsers(ctx context.Context) ([]*models.User, error)

	// CreateUser creates a new user and returns its ID.
	// Returns models.ErrDuplicateUser if a user with the same username exists.
	CreateUser(ctx context.Context, user *models.User) (string, error)

	// UpdateUser updates an existing user's profile fields.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	UpdateUser(ctx context.Context, user *models.User) error

	// DeleteUser deletes a user by ID together with the user's namespace rows,
	// blob index rows and every grant given to or on the user's files.
	// Physical bytes are left to the caller.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	DeleteUser(ctx context.Context, id string) error

	// UpdatePassword updates a user's password hash.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	UpdatePassword(ctx context.Context, username, passwordHash string) error

	// UpdateLastLogin updates the user's last login timestamp.
	// Returns models.ErrUserNotFound if the user doesn't exist.
	UpdateLastLogin(ctx context.Context, username string, timestamp time.Time) error

	// ValidateCredentials verifies username/password credentials.
	// Returns models.ErrInvalidCredentials if the credentials are invalid.
	// Returns models.ErrUserDisabled if the user account is disabled.
	ValidateCredentials(ctx context.Context, username, password string) (*models.User, error)

	// EnsureAdminUser creates the bootstrap admin when missing and returns
	// the generated password, or "" when the admin already existed.
	EnsureAdminUser(ctx context.Context, username, email string) (string, error)
}

// FileStore manages namespace entries.
type FileStore interface {
	// ============================================
	// NAMESPACE OPERATIONS
	// ============================================

	// GetFile returns an entry by ID.
	// Returns models.ErrFileNotFound if the entry doesn't exist.
	GetFile(ctx context.Context, id string) (*models.FileEntry, error)

	// GetFileByPath returns the owner's entry at logicalPath.
	// Returns models.ErrFileNotFound if no entry has this path.
	GetFileByPath(ctx context.Context, ownerID, logicalPath string) (*models.FileEntry, error)

	// PathExists reports whether the owner has an entry at logicalPath.
	PathExists(ctx context.Context, ownerID, logicalPath string) (bool, error)

	// ListChildren returns the direct children of parentPath, folders first,
	// then by name.
	ListChildren(ctx context.Context, ownerID, parentPath string) ([]*models.FileEntry, error)

	// ListSubtree returns the entry at logicalPath and all of its descendants,
	// ordered by logical path so parents precede children.
	ListSubtree(ctx context.Context, ownerID, logicalPath string) ([]*models.FileEntry, error)

	// ListByLocation returns every file entry whose physical location is location.
	ListByLocation(ctx context.Context, location string) ([]*models.FileEntry, error)

	// ListUnderLocation returns the owner's file entries whose physical
	// location lies under the directory prefix.
	ListUnderLocation(ctx context.Context, ownerID, prefix string) ([]*models.FileEntry, error)

	// CountByLocation counts file entries referencing location.
	CountByLocation(ctx context.Context, location string) (int64, error)

	// CreateFile inserts a new entry and returns its ID.
	// Returns models.ErrDuplicatePath if the owner already has an entry at
	// the same logical path.
	CreateFile(ctx context.Context, entry *models.FileEntry) (string, error)

	// UpdateFile applies patch to the entry with the given ID.
	// Returns models.ErrFileNotFound if the entry doesn't exist and
	// models.ErrDuplicatePath if the patch collides with another path.
	UpdateFile(ctx context.Context, id string, patch models.FilePatch) error

	// SetRefCountByLocation writes count to every file entry at location.
	SetRefCountByLocation(ctx context.Context, location string, count int) error

	// DeleteFiles deletes the entries with the given IDs and their grants.
	DeleteFiles(ctx context.Context, ids []string) error

	// Usage summarizes an owner's namespace.
	Usage(ctx context.Context, ownerID string) (*Usage, error)
}

// GrantStore manages explicit permission grants.
type GrantStore interface {
	// ============================================
	// PERMISSION GRANT OPERATIONS
	// ============================================

	// GetGrant returns the grant for (fileID, granteeID).
	// Returns models.ErrGrantNotFound if there is none.
	GetGrant(ctx context.Context, fileID, granteeID string) (*models.PermissionGrant, error)

	// ListGrants returns all grants on a file.
	ListGrants(ctx context.Context, fileID string) ([]*models.PermissionGrant, error)

	// UpsertGrant creates the grant or overwrites its rights.
	UpsertGrant(ctx context.Context, grant *models.PermissionGrant) error

	// DeleteGrant removes the grant for (fileID, granteeID).
	// Returns models.ErrGrantNotFound if there is none.
	DeleteGrant(ctx context.Context, fileID, granteeID string) error
}

// BlobStore manages the deduplication index.
type BlobStore interface {
	// ============================================
	// BLOB INDEX OPERATIONS
	// ============================================

	// InsertBlobIfAbsent inserts blob unless the owner already indexes the same
	// content hash. Returns true when this call inserted the row.
	InsertBlobIfAbsent(ctx context.Context, blob *models.Blob) (bool, error)

	// GetBlob returns the owner's blob for a content hash. Inside a
	// transaction the row stays locked until commit.
	// Returns models.ErrBlobNotFound if there is none.
	GetBlob(ctx context.Context, ownerID, contentHash string) (*models.Blob, error)

	// GetBlobByLocation returns the blob stored at location, locked like
	// GetBlob.
	// Returns models.ErrBlobNotFound if there is none.
	GetBlobByLocation(ctx context.Context, location string) (*models.Blob, error)

	// AdjustBlobRefs adds delta to the ref count of the blob at location and
	// returns the resulting count.
	// Returns models.ErrBlobNotFound if there is none.
	AdjustBlobRefs(ctx context.Context, location string, delta int) (int, error)

	// SetBlobLocation moves the blob at oldLocation to newLocation.
	SetBlobLocation(ctx context.Context, oldLocation, newLocation string) error

	// ListBlobsUnder returns the owner's blobs whose location lies under prefix.
	ListBlobsUnder(ctx context.Context, ownerID, prefix string) ([]*models.Blob, error)

	// DeleteBlobByLocation removes the blob index row at location, if any.
	DeleteBlobByLocation(ctx context.Context, location string) error
}

// Usage summarizes one owner's namespace.
type Usage struct {
	Files        int64 `json:"files"`
	Folders      int64 `json:"folders"`
	LogicalBytes int64 `json:"logical_bytes"`
	SavedBytes   int64 `json:"saved_bytes"`
}
