package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// minJWTSecretLength mirrors the length the API server requires.
const minJWTSecretLength = 32

// Validate validates the configuration using struct tags and custom rules.
//
// Log level normalization happens in ApplyDefaults, not here; validation
// accepts both uppercase and lowercase levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

// validateCustomRules performs validation that struct tags cannot express.
func validateCustomRules(cfg *Config) error {
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry: endpoint is required when telemetry is enabled")
	}
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("telemetry.profiling: endpoint is required when profiling is enabled")
	}

	if secret := cfg.Server.JWT.Secret; secret != "" && len(secret) < minJWTSecretLength {
		return fmt.Errorf("server.jwt.secret: must be at least %d characters", minJWTSecretLength)
	}

	if cfg.Storage.MaxBatchSize > 0 && cfg.Storage.CompressionThreshold > cfg.Storage.MaxBatchSize {
		return fmt.Errorf("storage: compression_threshold (%s) exceeds max_batch_size (%s)",
			cfg.Storage.CompressionThreshold, cfg.Storage.MaxBatchSize)
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
