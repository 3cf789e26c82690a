package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittodrive/internal/bytesize"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default config", mutate: func(*Config) {}},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "INVALID" },
			wantErr: "oneof",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "oneof",
		},
		{
			name:    "API port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "max",
		},
		{
			name:    "negative API port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "min",
		},
		{
			name:    "missing storage root",
			mutate:  func(c *Config) { c.Storage.Root = "" },
			wantErr: "Storage.Root",
		},
		{
			name:    "negative hash workers",
			mutate:  func(c *Config) { c.Storage.HashWorkers = -1 },
			wantErr: "min",
		},
		{
			name: "telemetry enabled without endpoint",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.Endpoint = ""
			},
			wantErr: "telemetry",
		},
		{
			name: "sample rate out of range",
			mutate: func(c *Config) {
				c.Telemetry.Enabled = true
				c.Telemetry.SampleRate = 1.5
			},
			wantErr: "lte",
		},
		{
			name:    "unknown profile type",
			mutate:  func(c *Config) { c.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heap"} },
			wantErr: "ProfileTypes[1]",
		},
		{
			name:    "short JWT secret",
			mutate:  func(c *Config) { c.Server.JWT.Secret = "short" },
			wantErr: "server.jwt.secret",
		},
		{
			name:    "invalid admin email",
			mutate:  func(c *Config) { c.Admin.Email = "not-an-email" },
			wantErr: "email",
		},
		{
			name: "compression threshold above batch limit",
			mutate: func(c *Config) {
				c.Storage.MaxBatchSize = bytesize.MiB
				c.Storage.CompressionThreshold = 2 * bytesize.MiB
			},
			wantErr: "compression_threshold",
		},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Database.Type = "postgres"
				c.Database.Postgres.Database = "drive"
				c.Database.Postgres.User = "drive"
			},
			wantErr: "postgres host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	for _, level := range []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"} {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		assert.NoError(t, Validate(cfg), "level %q", level)
		assert.Equal(t, level, cfg.Logging.Level, "validation must not normalize")
	}

	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}
