// Package workspace manages the release output directory.
//
// The output directory is disposable: every run removes it and recreates it
// empty before anything is built, so stale artifacts from a previous run never
// leak into new archives.
package workspace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
	"github.com/larmbs/relpack/internal/flock"
)

// Workspace is the output directory of one project.
type Workspace struct {
	projectDir string
	outputDir  string
}

// New returns the workspace for outputDir inside projectDir. A relative
// outputDir is resolved against projectDir.
func New(projectDir, outputDir string) (*Workspace, error) {
	absProject, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve project dir %s", projectDir)
	}
	if outputDir != "" && !filepath.IsAbs(outputDir) {
		outputDir = filepath.Join(absProject, outputDir)
	}
	return &Workspace{
		projectDir: absProject,
		outputDir:  filepath.Clean(outputDir),
	}, nil
}

// Dir returns the absolute output directory.
func (w *Workspace) Dir() string {
	return w.outputDir
}

// ProjectDir returns the absolute project root.
func (w *Workspace) ProjectDir() string {
	return w.projectDir
}

// Reset removes the output directory and recreates it empty.
func (w *Workspace) Reset(ctx context.Context) error {
	if err := CheckSafe(w.outputDir, w.projectDir); err != nil {
		return err
	}
	return Reset(ctx, w.outputDir)
}

// Lock takes the run lock for this workspace. See Lock.
func (w *Workspace) Lock(ctx context.Context) (*flock.Lock, error) {
	return Lock(ctx, w.outputDir)
}

// Reset removes dir and everything under it if present, then creates it empty
// along with any missing parents. An absent dir is not an error.
func Reset(ctx context.Context, dir string) error {
	if err := CheckSafe(dir, ""); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger := zerolog.Ctx(ctx)

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: remove %s: %w", errors.ErrWorkspaceReset, dir, err)
	}
	if err := os.MkdirAll(dir, constants.OutputDirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %w", errors.ErrWorkspaceReset, dir, err)
	}

	logger.Debug().Str("dir", dir).Msg("output directory reset")
	return nil
}

// CheckSafe rejects output directories whose removal would destroy more than
// release artifacts: empty paths, the filesystem root, the current directory,
// the user's home, projectDir or any of its ancestors, and any directory that
// is or contains one of the protected paths.
// projectDir may be empty to skip the project check.
func CheckSafe(dir, projectDir string, protected ...string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.Wrap(errors.ErrUnsafeOutputDir, "output directory is empty")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(errors.ErrUnsafeOutputDir, "resolve %s: %v", dir, err)
	}

	if filepath.Dir(abs) == abs {
		return errors.Wrapf(errors.ErrUnsafeOutputDir, "%s is a filesystem root", dir)
	}
	if cwd, err := os.Getwd(); err == nil && isSameOrAncestor(abs, cwd) {
		return errors.Wrapf(errors.ErrUnsafeOutputDir, "%s contains the working directory", dir)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" && filepath.Clean(home) == abs {
		return errors.Wrapf(errors.ErrUnsafeOutputDir, "%s is the home directory", dir)
	}
	if projectDir != "" {
		absProject, err := filepath.Abs(projectDir)
		if err == nil && isSameOrAncestor(abs, absProject) {
			return errors.Wrapf(errors.ErrUnsafeOutputDir, "%s contains the project root", dir)
		}
	}
	for _, p := range protected {
		if p != "" && isSameOrAncestor(abs, p) {
			return errors.Wrapf(errors.ErrUnsafeOutputDir, "%s contains build input %s", dir, p)
		}
	}
	return nil
}

// TargetInputs returns the absolute source directory, version marker and
// binary path of every target. Resetting an output directory over any of
// them would delete what the run builds from.
func TargetInputs(projectDir string, targets []domain.Target) []string {
	inputs := make([]string, 0, 3*len(targets))
	for _, t := range targets {
		for _, p := range []string{t.SourceDir, t.VersionFile, t.Binary} {
			if strings.TrimSpace(p) != "" {
				inputs = append(inputs, domain.ResolvePath(projectDir, p))
			}
		}
	}
	return inputs
}

// isSameOrAncestor reports whether candidate equals path or is one of its parents.
func isSameOrAncestor(candidate, path string) bool {
	rel, err := filepath.Rel(candidate, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Lock takes an exclusive lock for the output directory dir. The lock file
// lives in the OS temp directory, keyed by the absolute output path, so the
// output directory only ever holds target subdirectories.
// A second concurrent run fails immediately with ErrLockHeld.
func Lock(ctx context.Context, dir string) (*flock.Lock, error) {
	path, err := LockPath(dir)
	if err != nil {
		return nil, err
	}

	l, err := flock.Acquire(path)
	if err != nil {
		if stderrors.Is(err, flock.ErrWouldBlock) {
			return nil, fmt.Errorf("%w: %s", errors.ErrLockHeld, dir)
		}
		return nil, errors.Wrap(err, "lock output directory")
	}

	zerolog.Ctx(ctx).Debug().Str("lock", path).Str("dir", dir).Msg("output lock acquired")
	return l, nil
}

// LockPath returns the lock file location for the output directory dir.
func LockPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", dir)
	}
	sum := sha256.Sum256([]byte(abs))
	name := constants.LockFilePrefix + hex.EncodeToString(sum[:8]) + ".lock"
	return filepath.Join(os.TempDir(), name), nil
}
