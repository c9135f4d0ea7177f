// Package cli provides the command-line interface for relpack.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/larmbs/relpack/internal/command"
	"github.com/larmbs/relpack/internal/errors"
	"github.com/larmbs/relpack/internal/tui"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalLogger is set in PersistentPreRunE and read through GetLogger.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // protects globalLogger
)

// GetLogger returns the logger initialized by the root command. Before the
// root command runs it returns a logger that discards everything.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// deps connects the command tree to the process. Tests swap the runner and
// the writers.
type deps struct {
	// newRunner returns the runner for external commands with extra
	// KEY=VALUE environment entries.
	newRunner func(env []string) command.Runner
	stdout    io.Writer
	stderr    io.Writer
	// logOut replaces the console and file log writers when set.
	logOut io.Writer
	// isTTY reports whether w is an interactive terminal.
	isTTY func(w io.Writer) bool
}

func defaultDeps() *deps {
	return &deps{
		newRunner: func(env []string) command.Runner { return &command.DefaultRunner{Env: env} },
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		isTTY:     isTerminal,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// newRootCmd creates the root command. Running it without a subcommand runs
// the release pipeline, same as "relpack build".
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	return newRootCmdWithDeps(flags, info, defaultDeps())
}

func newRootCmdWithDeps(flags *GlobalFlags, info BuildInfo, d *deps) *cobra.Command {
	v := viper.New()
	buildFlags := &BuildFlags{}

	cmd := &cobra.Command{
		Use:   "relpack",
		Short: "Build and package release artifacts",
		Long: `relpack recreates the output directory, builds every configured target
with the release toolchain, and packages each binary together with its
version.txt into <output>/<target>/<target>.zip.

If any build fails, no archive is produced and the toolchain's exit status
is returned.

Running relpack without a subcommand is the same as "relpack build".`,
		Version: formatVersion(info),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cmd, flags, buildFlags, d)
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}
			ResolveGlobalFlags(v, flags)

			if !IsValidOutputFormat(flags.Output) {
				return errors.NewExitCode2Error(fmt.Errorf("%w: %q must be one of %v",
					errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats()))
			}

			var logger zerolog.Logger
			if d.logOut != nil {
				logger = InitLoggerWithWriter(flags.Verbose, flags.Quiet, d.logOut)
			} else {
				logger = InitLogger(flags.Verbose, flags.Quiet)
			}

			globalLoggerMu.Lock()
			globalLogger = logger
			globalLoggerMu.Unlock()

			cmd.SetContext(logger.WithContext(cmd.Context()))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(d.stdout)
	cmd.SetErr(d.stderr)

	AddGlobalFlags(cmd, flags)
	addBuildFlags(cmd, buildFlags)

	AddBuildCommand(cmd, flags, d)
	AddVerifyCommand(cmd, flags, d)
	AddTargetsCommand(cmd, flags, d)
	AddInitCommand(cmd, flags, d)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command and reports a failure on stderr in the
// selected output format. The returned error maps to an exit status through
// ExitCodeForError.
func Execute(ctx context.Context, info BuildInfo) error {
	return execute(ctx, info, defaultDeps(), os.Args[1:])
}

func execute(ctx context.Context, info BuildInfo, d *deps, args []string) error {
	defer CloseLogFile()

	flags := &GlobalFlags{}
	cmd := newRootCmdWithDeps(flags, info, d)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", errors.ErrInterrupted, context.Cause(ctx))
	}
	if err != nil {
		format := flags.Output
		if !IsValidOutputFormat(format) {
			format = OutputText
		}
		tui.NewOutput(d.stderr, format, false).Error(err)
	}
	return err
}
