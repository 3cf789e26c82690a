package config

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// sectionComments documents each top-level key of a generated config file.
var sectionComments = map[string]string{
	"logging":          "Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json), output (stdout, stderr, file path)",
	"telemetry":        "OpenTelemetry tracing (OTLP gRPC) and Pyroscope continuous profiling",
	"shutdown_timeout": "Maximum time to wait for in-flight requests and hash workers on shutdown",
	"database":         "Metadata database: sqlite (single node) or postgres",
	"metrics":          "Prometheus metrics endpoint served on its own port",
	"server":           "REST API server. Override the JWT secret with DITTODRIVE_JWT_SECRET",
	"storage":          "Storage root and transfer limits. Sizes accept units like 512MiB or 1GB",
	"admin":            "Bootstrap administrator created on first start",
}

// InitConfig writes a sample configuration file at the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a sample configuration file to path, with a freshly
// generated JWT secret.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", path)
		}
	}

	cfg := GetDefaultConfig()
	secret, err := generateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg.Server.JWT.Secret = secret

	content, err := generateYAMLWithComments(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as YAML with a comment above every
// top-level section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	// Mapping content alternates key and value nodes.
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if comment, ok := sectionComments[key.Value]; ok {
			key.HeadComment = comment
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# DittoDrive Configuration File\n")
	buf.WriteString("#\n")
	buf.WriteString("# Every option can be overridden with DITTODRIVE_<SECTION>_<KEY>,\n")
	buf.WriteString("# for example DITTODRIVE_LOGGING_LEVEL=DEBUG.\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	return buf.String(), nil
}

// generateSecret returns 32 random bytes hex encoded.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
