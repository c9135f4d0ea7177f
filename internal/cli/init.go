package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/larmbs/relpack/internal/config"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

// configFilePerm is the mode of a generated .relpack.yaml.
const configFilePerm = 0o644

// InitFlags holds flags specific to the init command.
type InitFlags struct {
	// Force overwrites an existing config, keeping a .backup copy.
	Force bool
}

// initConfig is the YAML document written by relpack init. Durations are
// written as strings ("30m0s") so the file stays readable.
type initConfig struct {
	OutputDir string          `yaml:"output_dir"`
	Targets   []domain.Target `yaml:"targets"`
	Toolchain struct {
		Command []string          `yaml:"command"`
		Timeout string            `yaml:"timeout"`
		Env     map[string]string `yaml:"env,omitempty"`
	} `yaml:"toolchain"`
	Archive struct {
		Mode    string   `yaml:"mode"`
		Command []string `yaml:"command"`
		Timeout string   `yaml:"timeout"`
	} `yaml:"archive"`
	Package struct {
		Parallel bool `yaml:"parallel"`
	} `yaml:"package"`
	Version struct {
		Missing string `yaml:"missing"`
	} `yaml:"version"`
}

func newInitConfig(cfg *config.Config) initConfig {
	var doc initConfig
	doc.OutputDir = cfg.OutputDir
	doc.Targets = cfg.Targets
	doc.Toolchain.Command = cfg.Toolchain.Command
	doc.Toolchain.Timeout = cfg.Toolchain.Timeout.String()
	doc.Toolchain.Env = cfg.Toolchain.Env
	doc.Archive.Mode = cfg.Archive.Mode
	doc.Archive.Command = cfg.Archive.Command
	doc.Archive.Timeout = cfg.Archive.Timeout.String()
	doc.Package.Parallel = cfg.Package.Parallel
	doc.Version.Missing = cfg.Version.Missing
	return doc
}

// AddInitCommand adds the init subcommand.
func AddInitCommand(root *cobra.Command, flags *GlobalFlags, d *deps) {
	initFlags := &InitFlags{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to .relpack.yaml",
		Long: `Write the built-in defaults to .relpack.yaml in the project root so they
can be edited: the output directory, the targets and their paths, the
toolchain and archiver commands, and the version marker policy.

Examples:
  relpack init          # create .relpack.yaml
  relpack init --force  # overwrite, keeping .relpack.yaml.backup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.Context(), flags, initFlags, d)
		},
	}
	cmd.Flags().BoolVarP(&initFlags.Force, "force", "f", false, "overwrite an existing .relpack.yaml")
	root.AddCommand(cmd)
}

func runInit(ctx context.Context, flags *GlobalFlags, initFlags *InitFlags, d *deps) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	projectDir, err := resolveProjectDir(flags)
	if err != nil {
		return err
	}
	path := config.ProjectConfigPath(projectDir)
	logger := GetLogger()

	if _, statErr := os.Stat(path); statErr == nil {
		if !initFlags.Force {
			return errors.Wrapf(errors.ErrConfigExists, "%s (use --force to overwrite)", path)
		}
		backup := path + ".backup"
		if err := copyConfigFile(path, backup); err != nil {
			logger.Warn().Err(err).Str("backup_path", backup).Msg("failed to create config backup")
		}
	}

	data, err := yaml.Marshal(newInitConfig(config.DefaultConfig()))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	header := fmt.Sprintf("# relpack configuration\n# Generated by relpack init on %s\n\n",
		time.Now().Format(time.RFC3339))

	if err := os.WriteFile(path, []byte(header+string(data)), configFilePerm); err != nil { //nolint:gosec // config is meant to be readable
		return fmt.Errorf("failed to write config file: %w", err)
	}
	logger.Debug().Str("path", path).Msg("config written")

	out := newOutputFor(flags, d)
	out.Success("Wrote " + path)
	if flags.Output == OutputJSON {
		return out.JSON(map[string]string{"config_path": path})
	}
	return nil
}

func copyConfigFile(src, dst string) error {
	data, err := os.ReadFile(src) //nolint:gosec // project config file
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, configFilePerm) //nolint:gosec // config is meant to be readable
}
