package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/marmos91/dittodrive/pkg/config"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, pkgconfig.InitConfigToPath(path, false))

	// Keep the storage root and database inside the test directory.
	cfg, err := pkgconfig.Load(path)
	require.NoError(t, err)
	cfg.Storage.Root = filepath.Join(dir, "data")
	cfg.Database.SQLite.Path = filepath.Join(dir, "drive.db")
	require.NoError(t, pkgconfig.SaveConfig(cfg, path))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	if Cmd.PersistentFlags().Lookup("config") == nil {
		Cmd.PersistentFlags().String("config", "", "config file")
	}
	err := Cmd.Execute()
	return out.String(), err
}

func TestGenerateSchema(t *testing.T) {
	raw, err := generateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "DittoDrive Configuration", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"logging", "database", "server", "storage", "admin"} {
		assert.Contains(t, props, key)
	}

	storage := props["storage"].(map[string]any)["properties"].(map[string]any)
	upload := storage["max_upload_size"].(map[string]any)
	assert.Len(t, upload["oneOf"], 2)
}

func TestConfigValidateCommand(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runCmd(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "sqlite")
	assert.NotContains(t, out, "JWT secret not configured")
}

func TestConfigShowMasksSecrets(t *testing.T) {
	path := writeTestConfig(t)

	out, err := runCmd(t, "show", "--config", path, "--output", "json")
	require.NoError(t, err)

	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	jwt := tree["server"].(map[string]any)["jwt"].(map[string]any)
	assert.Equal(t, maskedSecret, jwt["secret"])
}

func TestConfigWarnings(t *testing.T) {
	t.Setenv("DITTODRIVE_JWT_SECRET", "")
	cfg := pkgconfig.GetDefaultConfig()
	cfg.Storage.HashWorkers = 8
	cfg.Storage.HashQueueSize = 2

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0600))
	cfg.Storage.Root = file

	warnings := configWarnings(cfg)
	assert.Len(t, warnings, 3)
}
