package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/dittodrive/internal/bytesize"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
}

func TestApplyDefaults_ShutdownTimeout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestApplyDefaults_Server(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Zero(t, cfg.Server.ReadTimeout, "transfers must not be cut by a read timeout")
	assert.Zero(t, cfg.Server.WriteTimeout, "transfers must not be cut by a write timeout")
	assert.Equal(t, 15*time.Minute, cfg.Server.JWT.AccessTokenDuration)
}

func TestApplyDefaults_Storage(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Empty(t, cfg.Storage.Root)
	assert.Equal(t, bytesize.GiB, cfg.Storage.MaxUploadSize)
	assert.Equal(t, bytesize.GiB, cfg.Storage.MaxBatchSize)
	assert.Equal(t, 256*bytesize.MiB, cfg.Storage.CompressionThreshold)
	assert.Equal(t, 8*bytesize.KiB, cfg.Storage.HashBufferSize)
	assert.Equal(t, 4, cfg.Storage.HashWorkers)
	assert.Equal(t, 1000, cfg.Storage.HashQueueSize)
}

func TestApplyDefaults_Metrics(t *testing.T) {
	disabled := &Config{}
	ApplyDefaults(disabled)
	assert.Zero(t, disabled.Metrics.Port)

	enabled := &Config{Metrics: MetricsConfig{Enabled: true}}
	ApplyDefaults(enabled)
	assert.Equal(t, 9090, enabled.Metrics.Port)
}

func TestApplyDefaults_Admin(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "admin", cfg.Admin.Username)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "json",
			Output: "/var/log/dittodrive.log",
		},
		ShutdownTimeout: 5 * time.Second,
		Database: store.Config{
			Type:   store.DatabaseTypeSQLite,
			SQLite: store.SQLiteConfig{Path: "/tmp/drive.db"},
		},
		Storage: StorageConfig{
			Root:          "/srv/drive",
			MaxUploadSize: 5 * bytesize.MiB,
			HashWorkers:   16,
		},
		Admin: AdminConfig{Username: "root"},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/var/log/dittodrive.log", cfg.Logging.Output)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/tmp/drive.db", cfg.Database.SQLite.Path)
	assert.Equal(t, "/srv/drive", cfg.Storage.Root)
	assert.Equal(t, 5*bytesize.MiB, cfg.Storage.MaxUploadSize)
	assert.Equal(t, 16, cfg.Storage.HashWorkers)
	assert.Equal(t, "root", cfg.Admin.Username)
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, Validate(GetDefaultConfig()))
}
