// Package domain provides shared data types for relpack.
//
// These types are shared across the build, pack, pipeline and cli packages
// to avoid duplication and import cycles.
package domain

import (
	"path/filepath"
	"runtime"

	"github.com/larmbs/relpack/internal/constants"
)

// Target is one build output: a release binary plus its version marker.
// All paths are relative to the project root.
type Target struct {
	// Name identifies the target. It is the package subdirectory name and the
	// archive base name.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// SourceDir is the target's source directory.
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir"`

	// Binary is the fixed path where the toolchain writes the release binary.
	Binary string `json:"binary" yaml:"binary" mapstructure:"binary"`

	// VersionFile is the version marker copied verbatim into the package.
	VersionFile string `json:"version_file" yaml:"version_file" mapstructure:"version_file"`

	// BuildCommand overrides the toolchain argv for this target only.
	BuildCommand []string `json:"build_command,omitempty" yaml:"build_command,omitempty" mapstructure:"build_command"`
}

// DefaultTarget returns the conventional layout for a target named name:
// sources in ./<name>, binary in target/release/<name> (<name>.exe on
// Windows), marker in ./<name>/version.txt.
func DefaultTarget(name string) Target {
	return Target{
		Name:        name,
		SourceDir:   name,
		Binary:      filepath.ToSlash(filepath.Join(constants.DefaultReleaseDir, executableName(name, runtime.GOOS))),
		VersionFile: filepath.ToSlash(filepath.Join(name, constants.VersionFileName)),
	}
}

// executableName returns the file name the toolchain gives binary name on goos.
func executableName(name, goos string) string {
	if goos == "windows" {
		return name + constants.WindowsExecutableSuffix
	}
	return name
}

// BinaryName returns the base name the binary keeps inside the package directory.
func (t Target) BinaryName() string {
	return filepath.Base(filepath.FromSlash(t.Binary))
}

// ArchiveName returns the archive file name, e.g. "client.zip".
func (t Target) ArchiveName() string {
	return t.Name + constants.ArchiveExtension
}

// PackageDir returns the target's package directory under outputDir.
func (t Target) PackageDir(outputDir string) string {
	return filepath.Join(outputDir, t.Name)
}

// ArchivePath returns the archive location under outputDir.
func (t Target) ArchivePath(outputDir string) string {
	return filepath.Join(t.PackageDir(outputDir), t.ArchiveName())
}

// ResolvePath makes a configured slash-separated path absolute against projectDir.
func ResolvePath(projectDir, path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectDir, path)
}
