// Package config loads the DittoDrive server configuration from a YAML or
// TOML file with DITTODRIVE_* environment overrides.
package config

import (
	"time"

	"github.com/marmos91/dittodrive/internal/bytesize"
	"github.com/marmos91/dittodrive/pkg/controlplane/api"
	"github.com/marmos91/dittodrive/pkg/controlplane/store"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/drive/content"
)

// Config is the static server configuration. Users and grants live in the
// database and are managed through the API and CLI, not here.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout bounds draining requests and hash workers on stop.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	Database store.Config  `mapstructure:"database" yaml:"database"`
	Metrics  MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Server   api.APIConfig `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig `mapstructure:"storage" yaml:"storage"`
	Admin    AdminConfig   `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig selects level, format and destination. Output is stdout,
// stderr or a file path.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig enables OTLP trace export. Endpoint is host:port of a
// gRPC collector.
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig enables Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" validate:"dive,oneof=cpu alloc_objects alloc_space inuse_objects inuse_space goroutines mutex_count mutex_duration block_count block_duration" yaml:"profile_types"`
}

// MetricsConfig serves Prometheus metrics on a separate port. Nothing is
// collected while disabled.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// StorageConfig places file bytes and bounds transfers. Root holds one
// subdirectory per owner ID. Sizes accept units such as "512MiB".
type StorageConfig struct {
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	MaxUploadSize bytesize.ByteSize `mapstructure:"max_upload_size" yaml:"max_upload_size"`
	MaxBatchSize  bytesize.ByteSize `mapstructure:"max_batch_size" yaml:"max_batch_size"`

	// Batches larger than this are deflated instead of stored.
	CompressionThreshold bytesize.ByteSize `mapstructure:"compression_threshold" yaml:"compression_threshold"`

	HashBufferSize bytesize.ByteSize `mapstructure:"hash_buffer_size" validate:"omitempty,max=67108864" yaml:"hash_buffer_size"`
	HashWorkers    int               `mapstructure:"hash_workers" validate:"omitempty,min=1,max=256" yaml:"hash_workers"`
	HashQueueSize  int               `mapstructure:"hash_queue_size" validate:"omitempty,min=1" yaml:"hash_queue_size"`
}

// AdminConfig names the administrator created on first start.
type AdminConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Email    string `mapstructure:"email" validate:"omitempty,email" yaml:"email,omitempty"`
}

// DriveConfig derives the drive service settings from the storage section.
func (c *Config) DriveConfig() drive.Config {
	s := c.Storage
	return drive.Config{
		Content: content.Config{
			Root:           s.Root,
			HashBufferSize: int(s.HashBufferSize),
			HashWorkers:    s.HashWorkers,
			HashQueueSize:  s.HashQueueSize,
		},
		MaxUploadSize:        int64(s.MaxUploadSize),
		MaxBatchSize:         int64(s.MaxBatchSize),
		CompressionThreshold: int64(s.CompressionThreshold),
	}
}
