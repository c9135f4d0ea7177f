package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/errors"
	"github.com/larmbs/relpack/internal/tui"
)

// Exit codes for the CLI. A failing toolchain or archiver passes its own
// status through instead.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitInvalidInput = 2
	ExitInterrupted  = 130
)

// Output format constants.
const (
	OutputText = tui.FormatText
	OutputJSON = tui.FormatJSON
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// Output is the output format (text or json).
	Output string
	// Verbose enables debug logging and streams toolchain output.
	Verbose bool
	// Quiet limits logging to warnings and errors.
	Quiet bool
	// ProjectDir is the project root. Defaults to the working directory.
	ProjectDir string
	// ConfigFile replaces the global and project config files.
	ConfigFile string
}

// AddGlobalFlags adds the persistent flags to cmd.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging and stream toolchain output")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "only log warnings and errors")
	pf.StringVarP(&flags.ProjectDir, "project-dir", "C", "", "project root (default: current directory)")
	pf.StringVar(&flags.ConfigFile, "config", "", "config file (replaces global and project config)")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// BindGlobalFlags binds the persistent flags to v so RELPACK_OUTPUT,
// RELPACK_VERBOSE and friends work as flag defaults.
func BindGlobalFlags(v *viper.Viper, cmd *cobra.Command) error {
	rootFlags := cmd.Root().PersistentFlags()
	for _, name := range []string{"output", "verbose", "quiet"} {
		if err := v.BindPFlag(name, rootFlags.Lookup(name)); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()
	return nil
}

// ResolveGlobalFlags copies environment-provided values into flags that were
// not set on the command line.
func ResolveGlobalFlags(v *viper.Viper, flags *GlobalFlags) {
	flags.Output = v.GetString("output")
	flags.Verbose = v.GetBool("verbose")
	flags.Quiet = v.GetBool("quiet") && !flags.Verbose
}

// ValidOutputFormats returns the accepted --output values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat reports whether format is accepted.
func IsValidOutputFormat(format string) bool {
	for _, valid := range ValidOutputFormats() {
		if format == valid {
			return true
		}
	}
	return false
}

// ExitCodeForError maps err to the process exit status:
//   - 0 for nil
//   - 130 when the run was interrupted
//   - the external tool's status when a build or archive step failed
//   - 2 for invalid flags, arguments or configuration
//   - 1 otherwise
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if stderrors.Is(err, errors.ErrInterrupted) {
		return ExitInterrupted
	}

	if code, ok := errors.ExitCodeOf(err); ok {
		return code
	}

	if errors.IsExitCode2Error(err) || isInvalidInput(err) {
		return ExitInvalidInput
	}

	return ExitError
}

//nolint:gochecknoglobals // lookup table
var invalidInputSentinels = []error{
	errors.ErrInvalidOutputFormat,
	errors.ErrUnknownTarget,
	errors.ErrConfigInvalidTargets,
	errors.ErrConfigInvalidToolchain,
	errors.ErrConfigInvalidArchive,
	errors.ErrConfigInvalidVersion,
}

func isInvalidInput(err error) bool {
	for _, sentinel := range invalidInputSentinels {
		if stderrors.Is(err, sentinel) {
			return true
		}
	}
	return isInvalidInputError(err.Error())
}

// isInvalidInputError matches cobra's own flag and argument errors.
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts at most",
		"accepts 0 arg",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
