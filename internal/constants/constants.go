// Package constants provides centralized constant values used throughout relpack.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import (
	"os"
	"time"
)

// Directory names and paths used by relpack.
const (
	// RelpackHome is the hidden directory name where relpack keeps its logs and
	// global configuration. It is created in the user's home directory.
	RelpackHome = ".relpack"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// DefaultOutputDir is the output directory recreated on every run,
	// relative to the project root.
	DefaultOutputDir = "build"
)

// Default build targets. Each name doubles as the package subdirectory and
// the archive base name.
const (
	TargetClient   = "client"
	TargetServer   = "server"
	TargetLauncher = "launcher"
)

// DefaultTargets returns the targets packaged when no configuration overrides them,
// in build order.
func DefaultTargets() []string {
	return []string{TargetClient, TargetServer, TargetLauncher}
}

// File names produced or consumed per target.
const (
	// VersionFileName is the name of the version marker next to each target's sources
	// and inside each package directory.
	VersionFileName = "version.txt"

	// ArchiveExtension is appended to the target name to form the archive file name.
	ArchiveExtension = ".zip"

	// DefaultReleaseDir is where the default toolchain writes release binaries.
	DefaultReleaseDir = "target/release"

	// WindowsExecutableSuffix is appended to default binary names on Windows.
	WindowsExecutableSuffix = ".exe"
)

// Timeout configurations for external commands.
const (
	// DefaultBuildTimeout bounds a single toolchain invocation.
	DefaultBuildTimeout = 30 * time.Minute

	// DefaultArchiveTimeout bounds a single archiver invocation.
	DefaultArchiveTimeout = 5 * time.Minute
)

// Permissions used when creating output files and directories.
const (
	// OutputDirPerm is the mode for the output directory and package directories.
	OutputDirPerm os.FileMode = 0o755

	// LogDirPerm is the mode for the log directory.
	LogDirPerm os.FileMode = 0o750

	// LockFilePerm is the mode for the output lock file.
	LockFilePerm os.FileMode = 0o600
)

// Command placeholders expanded in configured toolchain and archiver argv.
const (
	PlaceholderTarget    = "{target}"
	PlaceholderSourceDir = "{source_dir}"
	PlaceholderBinary    = "{binary}"
	PlaceholderArchive   = "{archive}"
	// PlaceholderFiles expands to one argument per archive member.
	PlaceholderFiles = "{files}"
)

// Archive modes.
const (
	ArchiveModeExternal = "external"
	ArchiveModeBuiltin  = "builtin"
)

// Missing version marker policies.
const (
	MissingVersionFail = "fail"
	MissingVersionWarn = "warn"
)
