package config

import (
	"slices"
	"strings"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - output_dir must not be empty
//   - at least one target; names unique and usable as a directory name
//   - every target has a binary path and a version file path
//   - a toolchain command exists for every target; timeout positive
//   - archive mode is external or builtin; external needs a command with {archive}
//   - version.missing is fail or warn
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.Wrap(errors.ErrUnsafeOutputDir, "output_dir must not be empty")
	}

	if err := validateTargets(cfg.Targets); err != nil {
		return err
	}

	if err := validateToolchainConfig(cfg); err != nil {
		return err
	}

	if err := validateArchiveConfig(&cfg.Archive); err != nil {
		return err
	}

	return validateVersionConfig(&cfg.Version)
}

// validateTargets checks the targets list.
func validateTargets(targets []domain.Target) error {
	if len(targets) == 0 {
		return errors.Wrap(errors.ErrConfigInvalidTargets, "at least one target is required")
	}

	seen := make(map[string]struct{}, len(targets))
	for i, t := range targets {
		if err := ValidateTargetName(t.Name); err != nil {
			return errors.Wrapf(err, "targets[%d]", i)
		}
		if _, dup := seen[t.Name]; dup {
			return errors.Wrapf(errors.ErrConfigInvalidTargets,
				"duplicate target name %q", t.Name)
		}
		seen[t.Name] = struct{}{}

		if strings.TrimSpace(t.Binary) == "" {
			return errors.Wrapf(errors.ErrConfigInvalidTargets,
				"target %q: binary must not be empty", t.Name)
		}
		if strings.TrimSpace(t.VersionFile) == "" {
			return errors.Wrapf(errors.ErrConfigInvalidTargets,
				"target %q: version_file must not be empty", t.Name)
		}
	}
	return nil
}

// ValidateTargetName checks that name can serve as a package directory and
// archive base name.
func ValidateTargetName(name string) error {
	switch {
	case name == "":
		return errors.Wrap(errors.ErrConfigInvalidTargets, "target name must not be empty")
	case name == "." || name == "..":
		return errors.Wrapf(errors.ErrConfigInvalidTargets, "target name %q is reserved", name)
	case strings.ContainsAny(name, `/\`):
		return errors.Wrapf(errors.ErrConfigInvalidTargets,
			"target name %q must not contain path separators", name)
	case strings.TrimSpace(name) != name:
		return errors.Wrapf(errors.ErrConfigInvalidTargets,
			"target name %q must not have surrounding whitespace", name)
	}
	return nil
}

// validateToolchainConfig checks that every target resolves to a build command.
func validateToolchainConfig(cfg *Config) error {
	if cfg.Toolchain.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidToolchain,
			"toolchain.timeout must be positive, got %s", cfg.Toolchain.Timeout)
	}
	for _, t := range cfg.Targets {
		if len(cfg.BuildCommand(t)) == 0 {
			return errors.Wrapf(errors.ErrConfigInvalidToolchain,
				"no build command for target %q: set toolchain.command or targets[].build_command", t.Name)
		}
	}
	return nil
}

// validateArchiveConfig checks archive-specific configuration values.
func validateArchiveConfig(cfg *ArchiveConfig) error {
	switch cfg.Mode {
	case constants.ArchiveModeBuiltin:
	case constants.ArchiveModeExternal:
		if len(cfg.Command) == 0 {
			return errors.Wrap(errors.ErrConfigInvalidArchive,
				"archive.command must not be empty in external mode")
		}
		if !slices.ContainsFunc(cfg.Command, func(arg string) bool {
			return strings.Contains(arg, constants.PlaceholderArchive)
		}) {
			return errors.Wrapf(errors.ErrConfigInvalidArchive,
				"archive.command must reference %s", constants.PlaceholderArchive)
		}
	default:
		return errors.Wrapf(errors.ErrConfigInvalidArchive,
			"archive.mode must be %q or %q, got %q",
			constants.ArchiveModeExternal, constants.ArchiveModeBuiltin, cfg.Mode)
	}

	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidArchive,
			"archive.timeout must be positive, got %s", cfg.Timeout)
	}
	return nil
}

// validateVersionConfig checks version-specific configuration values.
func validateVersionConfig(cfg *VersionConfig) error {
	switch cfg.Missing {
	case constants.MissingVersionFail, constants.MissingVersionWarn:
		return nil
	default:
		return errors.Wrapf(errors.ErrConfigInvalidVersion,
			"version.missing must be %q or %q, got %q",
			constants.MissingVersionFail, constants.MissingVersionWarn, cfg.Missing)
	}
}
