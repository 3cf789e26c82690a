// Command dittodrive runs and administers a DittoDrive server.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/dittodrive/cmd/dittodrive/commands"
)

// Set with -ldflags "-X main.version=..." at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	info := commands.BuildInfo{Version: version, Commit: commit, Date: date}
	if err := commands.Execute(info); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
