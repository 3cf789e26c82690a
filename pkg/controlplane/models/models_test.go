package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRole_IsValid(t *testing.T) {
	tests := []struct {
		role  UserRole
		valid bool
	}{
		{RoleUser, true},
		{RoleAdmin, true},
		{"invalid", false},
		{"", false},
		{"USER", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.role.IsValid())
		})
	}
}

func TestUser_GetDisplayName(t *testing.T) {
	assert.Equal(t, "John Doe", (&User{Username: "john", DisplayName: "John Doe"}).GetDisplayName())
	assert.Equal(t, "john", (&User{Username: "john"}).GetDisplayName())
}

func TestUser_Validate(t *testing.T) {
	assert.Error(t, (&User{}).Validate())
	assert.Error(t, (&User{Username: "a", Role: "root"}).Validate())
	assert.NoError(t, (&User{Username: "a", Role: "admin"}).Validate())
	assert.NoError(t, (&User{Username: "a"}).Validate())
}

func TestFileEntry_Accessors(t *testing.T) {
	t.Run("folder", func(t *testing.T) {
		f := &FileEntry{Kind: KindFolder}
		assert.True(t, f.IsFolder())
		assert.Equal(t, int64(0), f.Size())
		assert.Equal(t, "", f.Location())
		assert.Equal(t, 0, f.References())
	})

	t.Run("unhashed file", func(t *testing.T) {
		f := &FileEntry{Kind: KindFile, SizeBytes: Ptr(int64(12)), PhysicalLocation: Ptr("/data/u/a.txt")}
		assert.True(t, f.IsFile())
		assert.Equal(t, int64(12), f.Size())
		assert.Equal(t, "/data/u/a.txt", f.Location())
		assert.Equal(t, "", f.Hash())
		assert.Equal(t, 1, f.References())
		assert.Equal(t, "application/octet-stream", f.Mime())
	})
}

func TestFilePatch_Columns(t *testing.T) {
	assert.True(t, FilePatch{}.IsEmpty())

	p := FilePatch{Name: Ptr("b.txt"), RefCount: Ptr(3)}
	assert.Equal(t, map[string]any{"name": "b.txt", "ref_count": 3}, p.Columns())
	assert.False(t, p.IsEmpty())
}
