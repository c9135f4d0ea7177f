package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/larmbs/relpack/internal/archive"
	"github.com/larmbs/relpack/internal/build"
	"github.com/larmbs/relpack/internal/command"
	"github.com/larmbs/relpack/internal/config"
	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/logging"
	"github.com/larmbs/relpack/internal/pack"
	"github.com/larmbs/relpack/internal/pipeline"
	"github.com/larmbs/relpack/internal/tui"
	"github.com/larmbs/relpack/internal/workspace"
)

// BuildFlags holds flags that override configuration for one run.
type BuildFlags struct {
	OutputDir      string
	ArchiveMode    string
	Parallel       bool
	Timeout        time.Duration
	MissingVersion string
}

func addBuildFlags(cmd *cobra.Command, bf *BuildFlags) {
	f := cmd.Flags()
	f.StringVar(&bf.OutputDir, "output-dir", "", "output directory, recreated on every run (default: build)")
	f.StringVar(&bf.ArchiveMode, "archive-mode", "", "archiver to use (external|builtin)")
	f.BoolVar(&bf.Parallel, "parallel", false, "package targets concurrently after all builds succeed")
	f.DurationVar(&bf.Timeout, "timeout", 0, "timeout for each toolchain invocation (e.g. 45m)")
	f.StringVar(&bf.MissingVersion, "missing-version", "", "what to do when version.txt is missing (fail|warn)")
}

// AddBuildCommand adds the build subcommand.
func AddBuildCommand(root *cobra.Command, flags *GlobalFlags, d *deps) {
	bf := &BuildFlags{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build all targets and package each into a zip archive",
		Long: `Recreate the output directory, build every target in release mode, then
copy each binary and its version.txt into <output>/<target>/ and zip them
into <output>/<target>/<target>.zip.

Packaging starts only after every build succeeded. If a build fails, no
archive is produced and relpack exits with the toolchain's status.

Examples:
  relpack build                        # build and package client, server, launcher
  relpack build --archive-mode builtin # zip in-process, no zip utility needed
  relpack build -o json                # print the run report as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd.Context(), cmd, flags, bf, d)
		},
	}
	addBuildFlags(cmd, bf)
	root.AddCommand(cmd)
}

// overrides converts the flags into a partial config.
func (bf *BuildFlags) overrides() *config.Config {
	return &config.Config{
		OutputDir: bf.OutputDir,
		Toolchain: config.ToolchainConfig{Timeout: bf.Timeout},
		Archive:   config.ArchiveConfig{Mode: bf.ArchiveMode},
		Version:   config.VersionConfig{Missing: bf.MissingVersion},
	}
}

func runBuild(ctx context.Context, cmd *cobra.Command, flags *GlobalFlags, bf *BuildFlags, d *deps) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := newSession(ctx, flags, d, bf.overrides())
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("parallel") {
		s.cfg.Package.Parallel = bf.Parallel
	}

	ws, err := workspace.New(s.projectDir, s.outputDir)
	if err != nil {
		return err
	}
	if err := workspace.CheckSafe(ws.Dir(), ws.ProjectDir(),
		workspace.TargetInputs(ws.ProjectDir(), s.cfg.Targets)...); err != nil {
		return err
	}

	lock, err := ws.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.logger.Warn().Err(err).Str("lock", lock.Path()).Msg("failed to release output lock")
		}
	}()

	builder := newBuilder(s, flags, d)
	archiver := newArchiver(s.cfg, d)
	packager := pack.New(s.projectDir, s.outputDir, archiver,
		pack.WithMissingVersionPolicy(s.cfg.Version.Missing))

	spinner := s.out.Spinner(ctx, "Preparing release")
	progress := newProgressReporter(spinner, s.logger)

	p := pipeline.New(ws, builder, packager, pipeline.Options{
		Targets:        s.cfg.Targets,
		Parallel:       s.cfg.Package.Parallel,
		MissingVersion: s.cfg.Version.Missing,
		Progress:       progress.Report,
	})

	report, err := p.Run(ctx)
	spinner.Stop()

	if err != nil {
		if report != nil {
			for _, t := range report.Failed() {
				s.logger.Debug().Str("target", t.Name).Str("error", t.Error).Msg("target failed")
			}
		}
		if flags.Output == OutputJSON {
			_ = s.out.JSON(report)
		}
		return err
	}

	for _, t := range report.Targets {
		if !t.VersionPackaged {
			s.out.Warning(fmt.Sprintf("%s was packaged without %s", t.Name, constants.VersionFileName))
		}
	}
	if flags.Verbose && flags.Output == OutputText {
		headers, rows := timingRows(report, s.displayPath)
		s.out.Table(headers, rows)
	}
	s.out.Success(successMessage(report, s.displayPath(s.outputDir)))

	if flags.Output == OutputJSON {
		return s.out.JSON(report)
	}
	return nil
}

// successMessage renders the completion line, e.g. "Packaged 3 targets into build".
func successMessage(report *domain.Report, dir string) string {
	noun := "targets"
	if len(report.Targets) == 1 {
		noun = "target"
	}
	return fmt.Sprintf("Packaged %d %s into %s", len(report.Targets), noun, dir)
}

// timingRows lists each target's archive with its build and package times.
func timingRows(report *domain.Report, display func(string) string) ([]string, [][]string) {
	headers := []string{"TARGET", "ARCHIVE", "BUILD", "PACKAGE"}
	rows := make([][]string, 0, len(report.Targets))
	for _, t := range report.Targets {
		rows = append(rows, []string{
			t.Name,
			display(t.ArchivePath),
			tui.FormatDuration(t.BuildDurationMs),
			tui.FormatDuration(t.PackageDurationMs),
		})
	}
	return headers, rows
}

// newBuilder wires the toolchain executor. Configured environment entries are
// exported to the toolchain only. With --verbose in text mode the toolchain's
// output is streamed to stderr.
func newBuilder(s *session, flags *GlobalFlags, d *deps) *build.Builder {
	env := envList(s.cfg.Toolchain.Env)
	if len(env) > 0 {
		s.logger.Debug().
			Interface("env", logging.SafeEnv(s.cfg.Toolchain.Env)).
			Msg("toolchain environment")
	}

	executor := command.NewExecutorWithRunner(s.cfg.Toolchain.Timeout, d.newRunner(env))
	if flags.Verbose && flags.Output == OutputText {
		executor.SetLiveOutput(tuiLiveWriter(d))
	}
	return build.New(s.projectDir, executor, s.cfg.Toolchain.Command)
}

// newArchiver returns the archiver selected by archive.mode.
func newArchiver(cfg *config.Config, d *deps) archive.Archiver {
	if cfg.Archive.Mode == constants.ArchiveModeBuiltin {
		return archive.NewBuiltin()
	}
	executor := command.NewExecutorWithRunner(cfg.Archive.Timeout, d.newRunner(nil))
	return archive.NewExternal(executor, cfg.Archive.Command)
}

// envList renders env as sorted KEY=VALUE entries.
func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}
