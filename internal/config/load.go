package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/errors"
)

// newViperInstance creates a new Viper instance with standard relpack configuration.
// This includes environment variable prefix (RELPACK_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(ctx context.Context, v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	cfg.Toolchain.Env = normalizeEnv(cfg.Toolchain.Env)

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("output_dir", cfg.OutputDir).
		Strs("targets", cfg.TargetNames()).
		Str("archive.mode", cfg.Archive.Mode).
		Dur("toolchain.timeout", cfg.Toolchain.Timeout).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration for the project rooted at projectDir.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (RELPACK_* prefix)
//  2. Project config (<projectDir>/.relpack.yaml)
//  3. Global config (~/.relpack/config.yaml)
//  4. Built-in defaults
//
// Missing config files are not an error.
func Load(ctx context.Context, projectDir string) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	projectConfigPath := ProjectConfigPath(projectDir)
	if fileExists(projectConfigPath) {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrap(err, "failed to read project config file")
		}
	}

	return unmarshalAndValidate(ctx, v)
}

// LoadFile reads configuration from an explicit file on top of the defaults,
// skipping the global and project files. Environment variables still apply.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	v := newViperInstance()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file: %s", path)
	}
	return unmarshalAndValidate(ctx, v)
}

// loadGlobalConfig attempts to load the global config file (~/.relpack/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied.
func LoadWithOverrides(ctx context.Context, projectDir string, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx, projectDir)
	if err != nil {
		return nil, err
	}
	return withOverrides(cfg, overrides)
}

// LoadFileWithOverrides is LoadFile followed by CLI flag overrides.
func LoadFileWithOverrides(ctx context.Context, path string, overrides *Config) (*Config, error) {
	cfg, err := LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return withOverrides(cfg, overrides)
}

func withOverrides(cfg, overrides *Config) (*Config, error) {
	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level.
func LoadFromPaths(ctx context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(ctx, v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("output_dir", defaults.OutputDir)

	targets := make([]map[string]any, 0, len(defaults.Targets))
	for _, t := range defaults.Targets {
		targets = append(targets, map[string]any{
			"name":         t.Name,
			"source_dir":   t.SourceDir,
			"binary":       t.Binary,
			"version_file": t.VersionFile,
		})
	}
	v.SetDefault("targets", targets)

	v.SetDefault("toolchain.command", defaults.Toolchain.Command)
	v.SetDefault("toolchain.timeout", defaults.Toolchain.Timeout.String())
	v.SetDefault("toolchain.env", map[string]string{})

	v.SetDefault("archive.mode", defaults.Archive.Mode)
	v.SetDefault("archive.command", defaults.Archive.Command)
	v.SetDefault("archive.timeout", defaults.Archive.Timeout.String())

	v.SetDefault("package.parallel", defaults.Package.Parallel)

	v.SetDefault("version.missing", defaults.Version.Missing)
}

// applyOverrides merges non-zero override values into the config.
//
// IMPORTANT: Package.Parallel is a bool and cannot be overridden to false
// here. The CLI handles it with cmd.Flags().Changed.
func applyOverrides(cfg, overrides *Config) {
	if overrides.OutputDir != "" {
		cfg.OutputDir = overrides.OutputDir
	}
	if len(overrides.Targets) > 0 {
		cfg.Targets = overrides.Targets
	}
	if len(overrides.Toolchain.Command) > 0 {
		cfg.Toolchain.Command = overrides.Toolchain.Command
	}
	if overrides.Toolchain.Timeout != 0 {
		cfg.Toolchain.Timeout = overrides.Toolchain.Timeout
	}
	if overrides.Archive.Mode != "" {
		cfg.Archive.Mode = overrides.Archive.Mode
	}
	if len(overrides.Archive.Command) > 0 {
		cfg.Archive.Command = overrides.Archive.Command
	}
	if overrides.Archive.Timeout != 0 {
		cfg.Archive.Timeout = overrides.Archive.Timeout
	}
	if overrides.Package.Parallel {
		cfg.Package.Parallel = true
	}
	if overrides.Version.Missing != "" {
		cfg.Version.Missing = overrides.Version.Missing
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// Durations decode from strings like "30m"; a plain string decodes into an
// argv slice by splitting on whitespace.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(" "),
		),
	)
}

// normalizeEnv upper-cases variable names. Viper folds keys to lower case,
// so names are restored to the conventional form.
func normalizeEnv(env map[string]string) map[string]string {
	if len(env) == 0 {
		return env
	}
	out := make(map[string]string, len(env))
	for k, v := range env {
		out[strings.ToUpper(k)] = v
	}
	return out
}
