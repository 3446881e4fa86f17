// kohubctl is the command-line client for managing KohakuHub servers remotely.
package main

import (
	"fmt"
	"os"

	"github.com/kohakuhub/kohakuhub/cmd/kohubctl/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Inject version info into commands package
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
