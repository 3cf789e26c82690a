package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	drverrors "github.com/marmos91/dittodrive/pkg/drive/errors"
)

type fakeStore struct {
	files    map[string]*models.FileEntry
	grants   map[[2]string]*models.PermissionGrant
	grantErr error
}

func (s *fakeStore) GetFile(_ context.Context, id string) (*models.FileEntry, error) {
	if f, ok := s.files[id]; ok {
		return f, nil
	}
	return nil, models.ErrFileNotFound
}

func (s *fakeStore) GetGrant(_ context.Context, fileID, granteeID string) (*models.PermissionGrant, error) {
	if s.grantErr != nil {
		return nil, s.grantErr
	}
	if g, ok := s.grants[[2]string{fileID, granteeID}]; ok {
		return g, nil
	}
	return nil, models.ErrGrantNotFound
}

func newFixture() (*Resolver, *fakeStore) {
	s := &fakeStore{
		files: map[string]*models.FileEntry{
			"f1": {ID: "f1", OwnerID: "alice", LogicalPath: "/a.txt", Kind: models.KindFile},
			"d1": {ID: "d1", OwnerID: "alice", LogicalPath: "/docs", Kind: models.KindFolder},
			"c1": {ID: "c1", OwnerID: "alice", LogicalPath: "/docs/c.txt", Kind: models.KindFile, ParentPath: "/docs"},
		},
		grants: map[[2]string]*models.PermissionGrant{
			{"f1", "bob"}: {FileID: "f1", GranteeID: "bob", CanRead: true},
			{"d1", "bob"}: {FileID: "d1", GranteeID: "bob", CanRead: true, CanWrite: true},
		},
	}
	return NewResolver(s), s
}

var (
	alice = Actor{UserID: "alice", Role: models.RoleUser}
	bob   = Actor{UserID: "bob", Role: models.RoleUser}
	carol = Actor{UserID: "carol", Role: models.RoleUser}
	admin = Actor{UserID: "root", Role: models.RoleAdmin}
)

func TestEffectiveRights(t *testing.T) {
	t.Parallel()
	r, s := newFixture()
	ctx := context.Background()
	f1 := s.files["f1"]

	tests := []struct {
		name  string
		actor Actor
		want  Rights
	}{
		{"owner has everything", alice, All},
		{"admin has everything", admin, All},
		{"grantee gets grant booleans", bob, Rights{Read: true}},
		{"stranger gets nothing", carol, Rights{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.EffectiveRights(ctx, tt.actor, f1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoInheritance(t *testing.T) {
	t.Parallel()
	r, _ := newFixture()

	ok, err := r.CheckSingle(context.Background(), bob, "c1", RightRead)
	require.NoError(t, err)
	assert.False(t, ok, "a grant on the folder must not reach its children")
}

func TestCheckSingle(t *testing.T) {
	t.Parallel()
	r, _ := newFixture()
	ctx := context.Background()

	ok, err := r.CheckSingle(ctx, bob, "d1", RightWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CheckSingle(ctx, bob, "d1", RightDelete)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.CheckSingle(ctx, alice, "missing", RightRead)
	assert.True(t, drverrors.IsCode(err, drverrors.ErrNotFound))
}

func TestRequire(t *testing.T) {
	t.Parallel()
	r, _ := newFixture()
	ctx := context.Background()

	f, err := r.Require(ctx, bob, "f1", RightRead)
	require.NoError(t, err)
	assert.Equal(t, "f1", f.ID)

	_, err = r.Require(ctx, bob, "f1", RightWrite)
	assert.True(t, drverrors.IsCode(err, drverrors.ErrPermissionDenied))

	_, err = r.Require(ctx, carol, "missing", RightRead)
	assert.True(t, drverrors.IsCode(err, drverrors.ErrNotFound))
}

func TestGrantLookupFailureIsStorageIO(t *testing.T) {
	t.Parallel()
	r, s := newFixture()
	s.grantErr = errors.New("connection reset")

	_, err := r.Require(context.Background(), bob, "f1", RightRead)
	assert.True(t, drverrors.IsCode(err, drverrors.ErrStorageIO))
}

func TestRightsHas(t *testing.T) {
	t.Parallel()
	rs := Rights{Read: true, Delete: true}
	assert.True(t, rs.Has(RightRead))
	assert.False(t, rs.Has(RightWrite))
	assert.True(t, rs.Has(RightDelete))
	assert.False(t, rs.Has(Right(42)))
	assert.Equal(t, "write", RightWrite.String())
}
