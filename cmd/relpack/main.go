// Package main provides the entry point for the relpack CLI.
package main

import (
	"context"
	"os"

	"github.com/larmbs/relpack/internal/cli"
	"github.com/larmbs/relpack/internal/signal"
)

// Set via ldflags.
var (
	version = "dev"     //nolint:gochecknoglobals // ldflags
	commit  = "none"    //nolint:gochecknoglobals // ldflags
	date    = "unknown" //nolint:gochecknoglobals // ldflags
)

func main() {
	os.Exit(run())
}

func run() int {
	h := signal.NewHandler(context.Background())
	defer h.Stop()

	err := cli.Execute(h.Context(), cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if h.Received() != nil {
		return h.ExitCode()
	}
	return cli.ExitCodeForError(err)
}
