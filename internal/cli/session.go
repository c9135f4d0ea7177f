package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/larmbs/relpack/internal/config"
	"github.com/larmbs/relpack/internal/errors"
	"github.com/larmbs/relpack/internal/tui"
)

// session is the resolved state shared by the subcommands.
type session struct {
	projectDir string
	outputDir  string
	cfg        *config.Config
	out        tui.Output
	logger     *zerolog.Logger
}

// resolveProjectDir returns the absolute --project-dir, or the working directory.
func resolveProjectDir(flags *GlobalFlags) (string, error) {
	dir := flags.ProjectDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "failed to get current directory")
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolve project dir %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", errors.NewExitCode2Error(errors.Wrapf(err, "project dir %s", abs))
	}
	if !info.IsDir() {
		return "", errors.NewExitCode2Error(errors.Wrapf(os.ErrInvalid, "project dir %s is not a directory", abs))
	}
	return abs, nil
}

// newSession loads configuration for the project selected by flags and
// applies overrides on top.
func newSession(ctx context.Context, flags *GlobalFlags, d *deps, overrides *config.Config) (*session, error) {
	projectDir, err := resolveProjectDir(flags)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if flags.ConfigFile != "" {
		cfg, err = config.LoadFileWithOverrides(ctx, flags.ConfigFile, overrides)
	} else {
		cfg, err = config.LoadWithOverrides(ctx, projectDir, overrides)
	}
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	logger.Debug().
		Str("project_dir", projectDir).
		Strs("targets", cfg.TargetNames()).
		Str("archive_mode", cfg.Archive.Mode).
		Msg("configuration loaded")

	return &session{
		projectDir: projectDir,
		outputDir:  config.ResolveOutputDir(cfg, projectDir),
		cfg:        cfg,
		out:        tui.NewOutput(d.stdout, flags.Output, d.isTTY(d.stdout)),
		logger:     logger,
	}, nil
}

// displayPath shows path relative to the project root when it lies inside it.
func (s *session) displayPath(path string) string {
	rel, err := filepath.Rel(s.projectDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// newOutputFor creates the output for commands that run without a session.
func newOutputFor(flags *GlobalFlags, d *deps) tui.Output {
	return tui.NewOutput(d.stdout, flags.Output, d.isTTY(d.stdout))
}
