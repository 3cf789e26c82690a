package api

import (
	"os"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
)

// EnvJWTSecret overrides server.jwt.secret from the config file.
const EnvJWTSecret = "DITTODRIVE_JWT_SECRET"

// APIConfig is the "server" section of the configuration.
//
// ReadTimeout and WriteTimeout default to zero (unbounded) so multi-GiB
// uploads and downloads are not cut off; RequestTimeout bounds the
// remaining routes instead.
type APIConfig struct {
	Port              int           `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// AllowRegistration exposes POST /api/v1/auth/register to anonymous
	// callers. Accounts created there always get the user role.
	AllowRegistration bool `mapstructure:"allow_registration" yaml:"allow_registration"`

	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt"`
}

// JWTConfig holds the HMAC signing secret and token lifetimes. The secret
// must be at least MinSecretLength characters.
type JWTConfig struct {
	Secret               string        `mapstructure:"secret" yaml:"secret"`
	AccessTokenDuration  time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration"`
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" yaml:"refresh_token_duration"`
}

// ApplyDefaults sets every zero duration and the port.
func (c *APIConfig) ApplyDefaults() {
	setDefault := func(d *time.Duration, v time.Duration) {
		if *d == 0 {
			*d = v
		}
	}

	if c.Port == 0 {
		c.Port = 8080
	}
	setDefault(&c.ReadHeaderTimeout, 10*time.Second)
	setDefault(&c.IdleTimeout, time.Minute)
	setDefault(&c.RequestTimeout, 30*time.Second)
	setDefault(&c.JWT.AccessTokenDuration, 15*time.Minute)
	setDefault(&c.JWT.RefreshTokenDuration, 7*24*time.Hour)
}

// GetJWTSecret returns $DITTODRIVE_JWT_SECRET when set, else the configured
// secret. An empty result means no secret is configured.
func (c *APIConfig) GetJWTSecret() string {
	env, ok := os.LookupEnv(EnvJWTSecret)
	if !ok || env == "" {
		return c.JWT.Secret
	}
	if c.JWT.Secret != "" && c.JWT.Secret != env {
		logger.Warn("JWT secret from environment overrides the config file", "env_var", EnvJWTSecret)
	}
	return env
}

func (c *APIConfig) HasJWTSecret() bool {
	return c.GetJWTSecret() != ""
}
