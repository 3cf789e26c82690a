package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/internal/bytesize"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func minimalYAML(dir string) string {
	return `
logging:
  level: "INFO"

database:
  type: sqlite
  sqlite:
    path: "` + yamlSafePath(dir) + `/drive.db"

server:
  port: 8080
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"

storage:
  root: "` + yamlSafePath(dir) + `/data"
`
}

func TestLoad_DefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "config.yaml", minimalYAML(dir))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, yamlSafePath(dir)+"/data", cfg.Storage.Root)
	assert.Equal(t, bytesize.GiB, cfg.Storage.MaxUploadSize)
	assert.Equal(t, 256*bytesize.MiB, cfg.Storage.CompressionThreshold)
	assert.Equal(t, 4, cfg.Storage.HashWorkers)
	assert.Equal(t, "admin", cfg.Admin.Username)
}

func TestLoad_Sizes(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "config.yaml", minimalYAML(dir)+`  max_upload_size: 10MiB
  max_batch_size: 2GB
  compression_threshold: 1048576
  hash_buffer_size: 64Ki
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*bytesize.MiB, cfg.Storage.MaxUploadSize)
	assert.Equal(t, 2*bytesize.GB, cfg.Storage.MaxBatchSize)
	assert.Equal(t, bytesize.MiB, cfg.Storage.CompressionThreshold)
	assert.Equal(t, 64*bytesize.KiB, cfg.Storage.HashBufferSize)

	dc := cfg.DriveConfig()
	assert.EqualValues(t, 10<<20, dc.MaxUploadSize)
	assert.EqualValues(t, 2_000_000_000, dc.MaxBatchSize)
	assert.Equal(t, 64<<10, dc.Content.HashBufferSize)
	assert.Equal(t, cfg.Storage.Root, dc.Content.Root)
}

func TestLoad_InvalidSize(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "config.yaml", minimalYAML(dir)+"  max_upload_size: lots\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.NotEmpty(t, cfg.Storage.Root)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingStorageRoot(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
logging:
  level: INFO
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Storage.Root")
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "config.toml", `
[logging]
level = "WARN"
format = "json"

[database]
type = "sqlite"

[database.sqlite]
path = "`+yamlSafePath(dir)+`/drive.db"

[server]
port = 8081

[server.jwt]
secret = "test-secret-key-for-testing-minimum-32-chars"

[storage]
root = "`+yamlSafePath(dir)+`/data"
max_batch_size = "100Mi"
compression_threshold = "10Mi"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "WARN", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 100*bytesize.MiB, cfg.Storage.MaxBatchSize)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DITTODRIVE_LOGGING_LEVEL", "ERROR")
	t.Setenv("DITTODRIVE_SERVER_PORT", "9091")

	dir := t.TempDir()
	path := writeConfig(t, "config.yaml", minimalYAML(dir))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, 9091, cfg.Server.Port)
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := MustLoad(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dittodrive init --config "+path)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := GetDefaultConfig()
	cfg.Storage.Root = filepath.Join(dir, "data")
	cfg.Storage.MaxUploadSize = 3 * bytesize.MiB
	cfg.Server.JWT.Secret = "test-secret-key-for-testing-minimum-32-chars"

	path := filepath.Join(dir, "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Storage, loaded.Storage)
	assert.Equal(t, cfg.Server.JWT.Secret, loaded.Server.JWT.Secret)
	assert.Equal(t, cfg.Server.JWT.AccessTokenDuration, loaded.Server.JWT.AccessTokenDuration)
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "admin", cfg.Admin.Username)
}

func TestGetDefaultConfig_StorageRootFollowsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	cfg := GetDefaultConfig()
	assert.Equal(t, filepath.Join(dir, "dittodrive", "data"), cfg.Storage.Root)
}

func TestDefaultConfigExists(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.False(t, DefaultConfigExists())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dittodrive"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dittodrive", "config.yaml"), []byte("{}"), 0644))
	assert.True(t, DefaultConfigExists())
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	assert.True(t, filepath.IsAbs(path), "expected absolute path, got %q", path)
	assert.Equal(t, "config.yaml", filepath.Base(path))
}

func TestGetConfigDir(t *testing.T) {
	assert.Equal(t, "dittodrive", filepath.Base(GetConfigDir()))
}
