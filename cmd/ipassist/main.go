// Phase 12 - File #287: cmd/ipassist/main.go
// CLI client entry point for ip-assist-lite.
package main

import (
	"fmt"
	"os"

	"github.com/russellmiller49/ip-assist-lite/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	// Inject build-time variables into the cli package.
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
}

func main() {
	// Execute the CLI using the existing cli.Execute() function which handles
	// root command creation, flag registration, and subcommand setup.
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

