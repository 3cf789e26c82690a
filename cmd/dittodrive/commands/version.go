package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodrive/internal/cli/output"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

var build = BuildInfo{Version: "dev", Commit: "none", Date: "unknown"}

var (
	versionShort  bool
	versionOutput string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
	versionCmd.Flags().StringVarP(&versionOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if versionShort {
		_, err := fmt.Fprintln(out, build.Version)
		return err
	}

	format, err := output.ParseFormat(versionOutput)
	if err != nil {
		return err
	}

	info := build
	info.GoVersion = runtime.Version()
	info.Platform = runtime.GOOS + "/" + runtime.GOARCH

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(out, info)
	case output.FormatYAML:
		return output.PrintYAML(out, info)
	}
	return output.SimpleTable(out, [][2]string{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"Built", info.Date},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
	})
}
