package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/dittodrive/internal/cli/output"
	"github.com/marmos91/dittodrive/pkg/config"
)

var (
	showOutput  string
	showSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective DittoDrive configuration, with defaults and
environment overrides applied. Secrets are masked unless --show-secrets is
given.

Examples:
  dittodrive config show
  dittodrive config show --output json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secrets in clear text")
}

const maskedSecret = "********"

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad(configPath(cmd))
	if err != nil {
		return err
	}
	if !showSecrets {
		maskSecrets(cfg)
	}

	w := cmd.OutOrStdout()
	if format != output.FormatJSON {
		return output.PrintYAML(w, cfg)
	}

	// Round trip through YAML so JSON keys follow the yaml tags.
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return output.PrintJSON(w, tree)
}

func maskSecrets(cfg *config.Config) {
	if cfg.Server.JWT.Secret != "" {
		cfg.Server.JWT.Secret = maskedSecret
	}
	if cfg.Database.Postgres.Password != "" {
		cfg.Database.Postgres.Password = maskedSecret
	}
}
