// Package pack stages each built target into its package directory and
// archives it.
//
// A package directory holds exactly two files, the release binary and the
// version marker, and then the archive made from them:
//
//	build/client/client
//	build/client/version.txt
//	build/client/client.zip
package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cp "github.com/otiai10/copy"
	"github.com/rs/zerolog"

	"github.com/larmbs/relpack/internal/archive"
	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

// Result describes a packaged target.
type Result struct {
	BinaryPath      string
	PackageDir      string
	ArchivePath     string
	Members         []string
	VersionPackaged bool
	Duration        time.Duration
}

// Packager copies build outputs into package directories and archives them.
type Packager struct {
	projectDir     string
	outputDir      string
	archiver       archive.Archiver
	missingVersion string
}

// Option configures a Packager.
type Option func(*Packager)

// WithMissingVersionPolicy sets what happens when a target has no version
// marker: constants.MissingVersionFail (default) or constants.MissingVersionWarn.
func WithMissingVersionPolicy(policy string) Option {
	return func(p *Packager) {
		p.missingVersion = policy
	}
}

// New returns a Packager reading sources relative to projectDir and writing
// package directories under outputDir.
func New(projectDir, outputDir string, archiver archive.Archiver, opts ...Option) *Packager {
	p := &Packager{
		projectDir:     projectDir,
		outputDir:      outputDir,
		archiver:       archiver,
		missingVersion: constants.MissingVersionFail,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// copyOptions follows symlinked binaries and keeps mode and times.
func copyOptions() cp.Options {
	return cp.Options{
		OnSymlink:     func(string) cp.SymlinkAction { return cp.Deep },
		PreserveTimes: true,
		Sync:          true,
	}
}

// Package stages target into <output>/<target>/ and archives it to
// <output>/<target>/<target>.zip. Nothing is cleaned up on failure.
func (p *Packager) Package(ctx context.Context, target domain.Target) (*Result, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx).With().Str("target", target.Name).Logger()

	pkgDir := target.PackageDir(p.outputDir)
	if err := os.MkdirAll(pkgDir, constants.OutputDirPerm); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", errors.ErrCopyFailed, pkgDir, err)
	}

	result := &Result{
		PackageDir:  pkgDir,
		ArchivePath: target.ArchivePath(p.outputDir),
	}

	binName, err := p.copyBinary(target, pkgDir)
	if err != nil {
		return nil, err
	}
	result.BinaryPath = filepath.Join(pkgDir, binName)
	result.Members = append(result.Members, binName)

	packaged, err := p.copyVersion(target, pkgDir, &logger)
	if err != nil {
		return nil, err
	}
	if packaged {
		result.VersionPackaged = true
		result.Members = append(result.Members, constants.VersionFileName)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.archiver.Archive(ctx, pkgDir, result.ArchivePath, result.Members); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	logger.Info().
		Str("archive", result.ArchivePath).
		Strs("members", result.Members).
		Dur("duration_ms", result.Duration).
		Msg("target packaged")
	return result, nil
}

// copyBinary copies the release binary into pkgDir, keeping its base name and mode.
func (p *Packager) copyBinary(target domain.Target, pkgDir string) (string, error) {
	src := domain.ResolvePath(p.projectDir, target.Binary)
	info, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("%w: binary for %s: %w", errors.ErrCopyFailed, target.Name, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: binary for %s is a directory: %s", errors.ErrCopyFailed, target.Name, src)
	}

	name := target.BinaryName()
	if err := cp.Copy(src, filepath.Join(pkgDir, name), copyOptions()); err != nil {
		return "", fmt.Errorf("%w: copy %s: %w", errors.ErrCopyFailed, src, err)
	}
	return name, nil
}

// VersionMarkerPresent reports whether path is a regular file. A directory
// or other special file at the marker path counts as missing.
func VersionMarkerPresent(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return false, nil
	case err != nil:
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// copyVersion copies the version marker verbatim as version.txt. It reports
// false when the marker is missing and the policy allows packaging without it.
func (p *Packager) copyVersion(target domain.Target, pkgDir string, logger *zerolog.Logger) (bool, error) {
	src := domain.ResolvePath(p.projectDir, target.VersionFile)
	present, err := VersionMarkerPresent(src)
	if err != nil {
		return false, fmt.Errorf("%w: version marker for %s: %w", errors.ErrCopyFailed, target.Name, err)
	}
	if !present {
		if p.missingVersion == constants.MissingVersionWarn {
			logger.Warn().Str("version_file", src).Msg("version marker missing, packaging binary alone")
			return false, nil
		}
		return false, fmt.Errorf("%w: %s", errors.ErrVersionMarkerMissing, src)
	}

	dst := filepath.Join(pkgDir, constants.VersionFileName)
	if err := cp.Copy(src, dst, copyOptions()); err != nil {
		return false, fmt.Errorf("%w: copy %s: %w", errors.ErrCopyFailed, src, err)
	}
	return true, nil
}
