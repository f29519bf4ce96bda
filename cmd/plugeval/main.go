// Package main is the entry point for plugeval.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dshills/plugeval/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCommand(version, commit, date)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		// Failed plugins were already reported.
		if !errors.Is(err, app.ErrPluginsFailed) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return 1
	}
	return 0
}
