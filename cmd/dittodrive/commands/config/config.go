// Package config holds the "dittodrive config" subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// Cmd groups the configuration subcommands under the root command.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the server configuration",
	Long: `Inspect and edit the DittoDrive configuration file.

The file is created by 'dittodrive init'. Every command here reads the file
named by --config, or the default location when the flag is absent.`,
}

func init() {
	Cmd.AddCommand(editCmd, validateCmd, showCmd, schemaCmd)
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}
