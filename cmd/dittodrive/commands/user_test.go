package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/internal/cli/output"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

func TestResolveRole(t *testing.T) {
	role, err := resolveRole("admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	_, err = resolveRole("root")
	assert.Error(t, err)
}

func TestUserListHidesPasswordHash(t *testing.T) {
	login := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	users := newUserList([]*models.User{
		{ID: "u1", Username: "alice", PasswordHash: "$2a$10$secret", Role: "user", Enabled: true},
		{ID: "u2", Username: "bob", PasswordHash: "$2a$10$other", Role: "admin", LastLogin: &login},
	})

	for _, format := range []output.Format{output.FormatTable, output.FormatJSON, output.FormatYAML} {
		var buf bytes.Buffer
		require.NoError(t, output.NewPrinter(&buf, format, false).Print(users))
		assert.Contains(t, buf.String(), "alice", format)
		assert.NotContains(t, buf.String(), "$2a$10$", format)
	}

	rows := users.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "never", rows[0][5])
	assert.Equal(t, "false", rows[1][3])
}
