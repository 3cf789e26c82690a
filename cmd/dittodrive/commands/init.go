package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/controlplane/api"
	"github.com/marmos91/dittodrive/pkg/controlplane/models"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample DittoDrive configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/dittodrive/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  dittodrive init

  # Initialize with custom path
  dittodrive init --config /etc/dittodrive/config.yaml

  # Force overwrite existing config
  dittodrive init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()

	var err error
	if configPath != "" {
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Set storage.root to the directory that will hold user files")
	_, _ = fmt.Fprintln(out, "  2. Start the server with: dittodrive start")
	_, _ = fmt.Fprintf(out, "  3. Or specify custom config: dittodrive start --config %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nSecurity note:")
	_, _ = fmt.Fprintln(out, "  A random JWT secret has been written to the file.")
	_, _ = fmt.Fprintf(out, "  In production prefer the %s environment variable,\n", api.EnvJWTSecret)
	_, _ = fmt.Fprintf(out, "  and %s to choose the first admin password.\n", models.EnvAdminInitialPassword)

	return nil
}
