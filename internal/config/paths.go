package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/errors"
)

// GlobalConfigDir returns the relpack home directory.
// RELPACK_HOME wins when set; otherwise this is ~/.relpack.
//
// Returns an error if the home directory cannot be determined.
func GlobalConfigDir() (string, error) {
	if home := os.Getenv(constants.HomeEnvVar); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.RelpackHome), nil
}

// GlobalConfigPath returns the full path to the global configuration file.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, constants.GlobalConfigName), nil
}

// ProjectConfigPath returns the path to the project configuration file in projectDir.
func ProjectConfigPath(projectDir string) string {
	return filepath.Join(projectDir, constants.ProjectConfigName)
}

// ResolveOutputDir returns the absolute output directory for cfg in projectDir.
func ResolveOutputDir(cfg *Config, projectDir string) string {
	if filepath.IsAbs(cfg.OutputDir) {
		return filepath.Clean(cfg.OutputDir)
	}
	return filepath.Join(projectDir, cfg.OutputDir)
}
