package config

import (
	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
)

// DefaultToolchainCommand is the release build argv used when none is configured.
func DefaultToolchainCommand() []string {
	return []string{"cargo", "build", "--release", "--bin", constants.PlaceholderTarget}
}

// DefaultArchiveCommand is the archiver argv used when none is configured.
// -X drops extra file attributes so reruns produce stable archives.
func DefaultArchiveCommand() []string {
	return []string{"zip", "-q", "-X", "-r", constants.PlaceholderArchive, constants.PlaceholderFiles}
}

// DefaultTargets returns client, server and launcher with the cargo layout.
func DefaultTargets() []domain.Target {
	names := constants.DefaultTargets()
	targets := make([]domain.Target, 0, len(names))
	for _, name := range names {
		targets = append(targets, domain.DefaultTarget(name))
	}
	return targets
}

// DefaultConfig returns a new Config with the default values.
// These defaults are the base layer that config files, environment variables
// and CLI flags override.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: constants.DefaultOutputDir,
		Targets:   DefaultTargets(),
		Toolchain: ToolchainConfig{
			Command: DefaultToolchainCommand(),
			Timeout: constants.DefaultBuildTimeout,
		},
		Archive: ArchiveConfig{
			// Mode: external mirrors the zip utility invocation of a shell release script.
			Mode:    constants.ArchiveModeExternal,
			Command: DefaultArchiveCommand(),
			Timeout: constants.DefaultArchiveTimeout,
		},
		Package: PackageConfig{
			Parallel: false,
		},
		Version: VersionConfig{
			Missing: constants.MissingVersionFail,
		},
	}
}
