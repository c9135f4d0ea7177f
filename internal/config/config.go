// Package config provides configuration management for relpack with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (RELPACK_* prefix)
//  3. Project config (<project>/.relpack.yaml)
//  4. Global config (~/.relpack/config.yaml)
//  5. Built-in defaults
//
// Each higher level completely overrides the lower level for the same key.
// Lists (targets, command argv) are replaced, never merged.
//
// IMPORTANT: This package may import internal/constants, internal/domain and
// internal/errors, but MUST NOT import any other internal package.
package config

import (
	"time"

	"github.com/larmbs/relpack/internal/domain"
)

// Config is the root configuration structure for relpack.
type Config struct {
	// OutputDir is recreated on every run and receives one subdirectory per target.
	// Relative paths are resolved against the project root.
	// Default: "build"
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// Targets are built and packaged in this order.
	// Default: client, server, launcher with the cargo workspace layout.
	Targets []domain.Target `yaml:"targets" mapstructure:"targets"`

	// Toolchain contains settings for the release compiler invocation.
	Toolchain ToolchainConfig `yaml:"toolchain" mapstructure:"toolchain"`

	// Archive contains settings for producing the per-target zip.
	Archive ArchiveConfig `yaml:"archive" mapstructure:"archive"`

	// Package contains settings for the packaging stage.
	Package PackageConfig `yaml:"package" mapstructure:"package"`

	// Version contains settings for version marker handling.
	Version VersionConfig `yaml:"version" mapstructure:"version"`
}

// ToolchainConfig contains settings for the release build.
type ToolchainConfig struct {
	// Command is the argv run once per target from the project root.
	// Supports {target}, {source_dir} and {binary} placeholders.
	// Default: cargo build --release --bin {target}
	Command []string `yaml:"command" mapstructure:"command"`

	// Timeout bounds each toolchain invocation.
	// Default: 30 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Env lists extra variables exported to the toolchain. Names are
	// upper-cased on load.
	Env map[string]string `yaml:"env,omitempty" mapstructure:"env"`
}

// ArchiveConfig contains settings for archiving a package directory.
type ArchiveConfig struct {
	// Mode selects the archiver: "external" runs Command, "builtin" writes the
	// zip in-process.
	// Default: "external"
	Mode string `yaml:"mode" mapstructure:"mode"`

	// Command is the archiving utility argv, run inside the package directory.
	// Supports {archive} and {files}.
	// Default: zip -q -X -r {archive} {files}
	Command []string `yaml:"command" mapstructure:"command"`

	// Timeout bounds each archiver invocation.
	// Default: 5 minutes
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// PackageConfig contains settings for the packaging stage.
type PackageConfig struct {
	// Parallel packages all targets concurrently once every build succeeded.
	// Default: false
	Parallel bool `yaml:"parallel" mapstructure:"parallel"`
}

// VersionConfig contains settings for version marker handling.
type VersionConfig struct {
	// Missing is the policy when a target has no version marker:
	// "fail" aborts before building, "warn" packages the binary alone.
	// Default: "fail"
	Missing string `yaml:"missing" mapstructure:"missing"`
}

// Target returns the configured target named name.
func (c *Config) Target(name string) (domain.Target, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return domain.Target{}, false
}

// TargetNames returns the configured target names in build order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		names = append(names, t.Name)
	}
	return names
}

// BuildCommand returns the toolchain argv template for target, honoring a
// per-target override.
func (c *Config) BuildCommand(target domain.Target) []string {
	if len(target.BuildCommand) > 0 {
		return target.BuildCommand
	}
	return c.Toolchain.Command
}
