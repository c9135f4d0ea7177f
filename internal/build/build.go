// Package build runs the release toolchain for one target at a time.
package build

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/larmbs/relpack/internal/command"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

// Result describes one toolchain invocation.
type Result struct {
	Target     string
	BinaryPath string
	Command    *command.Result
	Duration   time.Duration
}

// Builder invokes the toolchain from the project root.
type Builder struct {
	projectDir string
	executor   *command.Executor
	argv       []string
}

// New returns a Builder that runs argv (with {target}, {source_dir} and
// {binary} placeholders) through executor. A target's own BuildCommand wins
// over argv.
func New(projectDir string, executor *command.Executor, argv []string) *Builder {
	return &Builder{
		projectDir: projectDir,
		executor:   executor,
		argv:       argv,
	}
}

// Command returns the expanded argv for target.
func (b *Builder) Command(target domain.Target) []string {
	tmpl := b.argv
	if len(target.BuildCommand) > 0 {
		tmpl = target.BuildCommand
	}
	return command.Expand(tmpl, command.Vars{
		Target:    target.Name,
		SourceDir: target.SourceDir,
		Binary:    target.Binary,
	})
}

// Build compiles target in release mode. It succeeds only when the toolchain
// exits 0 and the binary exists at its configured path afterwards.
//
// Errors:
//   - ErrBuildFailed carrying the toolchain exit status (see errors.ExitCodeOf)
//   - ErrBuildFailed wrapping ErrCommandTimeout when the build times out
//   - ErrBinaryMissing when the toolchain succeeded without producing the binary
//   - the context error when ctx is canceled
func (b *Builder) Build(ctx context.Context, target domain.Target) (*Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("target", target.Name).Logger()
	ctx = logger.WithContext(ctx)

	argv := b.Command(target)
	res := &Result{
		Target:     target.Name,
		BinaryPath: domain.ResolvePath(b.projectDir, target.Binary),
	}

	start := time.Now()
	cmdResult, err := b.executor.Run(ctx, argv, b.projectDir)
	res.Command = cmdResult
	res.Duration = time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, fmt.Errorf("%w: %s: %w", errors.ErrBuildFailed, target.Name, err)
	}

	info, err := os.Stat(res.BinaryPath)
	if err != nil || info.IsDir() {
		logger.Error().Str("binary", res.BinaryPath).Msg("toolchain succeeded but binary is missing")
		return res, fmt.Errorf("%w: %s: expected %s", errors.ErrBinaryMissing, target.Name, res.BinaryPath)
	}

	logger.Info().
		Str("binary", res.BinaryPath).
		Dur("duration_ms", res.Duration).
		Msg("target built")
	return res, nil
}
