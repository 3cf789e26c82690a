package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/internal/bytesize"
	"github.com/marmos91/dittodrive/pkg/bufpool"
	"github.com/marmos91/dittodrive/pkg/controlplane/api"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive"
)

// defaultProfileTypes are sent to Pyroscope when none are configured.
var defaultProfileTypes = []string{
	"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines",
}

// ApplyDefaults fills every zero-valued field. Explicit values win; the log
// level is upper-cased so later comparisons are exact.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	applyDatabaseDefaults(&cfg.Database)
	applyMetricsDefaults(&cfg.Metrics)
	applyServerDefaults(&cfg.Server)
	applyStorageDefaults(&cfg.Storage)
	applyAdminDefaults(&cfg.Admin)
}

func orDefault(v *string, def string) {
	if *v == "" {
		*v = def
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	orDefault(&cfg.Level, "INFO")
	cfg.Level = strings.ToUpper(cfg.Level)
	orDefault(&cfg.Format, "text")
	orDefault(&cfg.Output, "stdout")
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	orDefault(&cfg.Endpoint, "localhost:4317")
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	orDefault(&cfg.Profiling.Endpoint, "http://localhost:4040")
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = append([]string(nil), defaultProfileTypes...)
	}
}

func applyDatabaseDefaults(cfg *store.Config) {
	cfg.ApplyDefaults()
}

// applyMetricsDefaults only assigns a port when metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyServerDefaults(cfg *api.APIConfig) {
	cfg.ApplyDefaults()
}

// applyStorageDefaults fills in limits and worker sizing. Root has no
// default here; it is required in a config file.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = bytesize.ByteSize(drive.DefaultMaxUploadSize)
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = bytesize.ByteSize(drive.DefaultMaxBatchSize)
	}
	if cfg.CompressionThreshold == 0 {
		cfg.CompressionThreshold = bytesize.ByteSize(drive.DefaultCompressionThreshold)
	}
	if cfg.HashBufferSize == 0 {
		cfg.HashBufferSize = bytesize.ByteSize(bufpool.DefaultHashSize)
	}
	if cfg.HashWorkers == 0 {
		cfg.HashWorkers = 4
	}
	if cfg.HashQueueSize == 0 {
		cfg.HashQueueSize = 1000
	}
}

func applyAdminDefaults(cfg *AdminConfig) {
	orDefault(&cfg.Username, models.AdminUsername)
}

// GetDefaultConfig returns a Config with all default values applied and the
// storage root under $XDG_DATA_HOME/dittodrive.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: store.Config{
			Type: store.DatabaseTypeSQLite,
		},
		Storage: StorageConfig{
			Root: filepath.Join(getDataDir(), "data"),
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
