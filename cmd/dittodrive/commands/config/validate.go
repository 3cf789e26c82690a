package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/internal/cli/output"
	"github.com/marmos91/dittodrive/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the DittoDrive configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  dittodrive config validate
  dittodrive config validate --config /etc/dittodrive/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Configuration file: %s\n", path)
	_, _ = fmt.Fprintln(w, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(w, "\nWarnings:")
		for _, warning := range warnings {
			_, _ = fmt.Fprintf(w, "  - %s\n", warning)
		}
	}

	_, _ = fmt.Fprintln(w, "\nConfiguration summary:")
	return output.SimpleTable(w, [][2]string{
		{"Database type", string(cfg.Database.Type)},
		{"API port", fmt.Sprintf("%d", cfg.Server.Port)},
		{"Storage root", cfg.Storage.Root},
		{"Max upload size", cfg.Storage.MaxUploadSize.String()},
		{"Max batch size", cfg.Storage.MaxBatchSize.String()},
		{"Hash workers", fmt.Sprintf("%d", cfg.Storage.HashWorkers)},
		{"Log level", cfg.Logging.Level},
	})
}

// configWarnings lists settings that load fine but will bite at runtime.
func configWarnings(cfg *config.Config) []string {
	var warnings []string

	if !cfg.Server.HasJWTSecret() {
		warnings = append(warnings, "JWT secret not configured; set server.jwt.secret or DITTODRIVE_JWT_SECRET")
	}
	if info, err := os.Stat(cfg.Storage.Root); err == nil && !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("storage root %s is not a directory", cfg.Storage.Root))
	}
	if cfg.Storage.HashWorkers > cfg.Storage.HashQueueSize {
		warnings = append(warnings, "hash_workers exceeds hash_queue_size; extra workers will sit idle")
	}
	return warnings
}
