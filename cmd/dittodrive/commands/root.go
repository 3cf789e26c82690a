// Package commands implements the dittodrive command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/cmd/dittodrive/commands/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "dittodrive",
	Short: "DittoDrive - Multi-tenant file storage server",
	Long: `DittoDrive stores files for many users behind a REST API. Each user owns a
private tree of folders and files; identical uploads are stored once per owner
and admins can share individual files or folders with other users.

Use "dittodrive [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command line for the binary described by info.
func Execute(info BuildInfo) error {
	build = info
	rootCmd.Version = info.Version
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dittodrive/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(config.Cmd)
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
