package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Using a slice (not a map) because errors.Is() requires proper error chain traversal.
//
//nolint:gochecknoglobals // Pre-built mapping for efficiency
var errorInfoEntries = []errorEntry{
	// ===================
	// Workspace
	// ===================
	{
		err: ErrWorkspaceReset,
		info: ErrorInfo{
			Message: "Could not recreate the output directory.",
			Action:  "Check permissions and free disk space for the output directory.",
		},
	},
	{
		err: ErrUnsafeOutputDir,
		info: ErrorInfo{
			Message: "Refusing to delete the configured output directory.",
			Action:  "Set output_dir in .relpack.yaml to a subdirectory of the project, e.g. 'build'.",
		},
	},
	{
		err: ErrLockHeld,
		info: ErrorInfo{
			Message: "Another relpack run is using this output directory.",
			Action:  "Wait for the other run to finish and try again.",
		},
	},

	// ===================
	// Build
	// ===================
	{
		err: ErrBuildFailed,
		info: ErrorInfo{
			Message: "The toolchain failed to build a target. Check the compiler output above.",
			Action:  "Fix the compile error and rerun relpack.",
		},
	},
	{
		err: ErrBinaryMissing,
		info: ErrorInfo{
			Message: "The toolchain succeeded but the release binary was not found.",
			Action:  "Check the 'binary' path of the target in .relpack.yaml.",
		},
	},
	{
		err: ErrCommandTimeout,
		info: ErrorInfo{
			Message: "An external command timed out.",
			Action:  "Increase toolchain.timeout or archive.timeout in .relpack.yaml.",
		},
	},

	// ===================
	// Packaging
	// ===================
	{
		err: ErrVersionMarkerMissing,
		info: ErrorInfo{
			Message: "A target has no version marker file.",
			Action:  "Create the target's version.txt or set version.missing to 'warn'.",
		},
	},
	{
		err: ErrCopyFailed,
		info: ErrorInfo{
			Message: "Could not copy files into a package directory.",
			Action:  "Check permissions on the output directory.",
		},
	},
	{
		err: ErrArchiveFailed,
		info: ErrorInfo{
			Message: "Could not create a target archive.",
			Action:  "Check that the archiver is installed or set archive.mode to 'builtin'.",
		},
	},
	{
		err: ErrUnsafeArchiveMember,
		info: ErrorInfo{
			Message: "An archive contains an absolute or parent-relative path.",
			Action:  "Rebuild the archives with 'relpack build'.",
		},
	},
	{
		err: ErrArchiveMismatch,
		info: ErrorInfo{
			Message: "A packaged archive does not match its target.",
			Action:  "Rebuild the archives with 'relpack build'.",
		},
	},

	// ===================
	// Configuration
	// ===================
	{
		err: ErrConfigNil,
		info: ErrorInfo{
			Message: "Configuration is not loaded.",
			Action:  "Ensure .relpack.yaml exists and is valid YAML.",
		},
	},
	{
		err: ErrConfigInvalidTargets,
		info: ErrorInfo{
			Message: "Invalid targets configuration.",
			Action:  "Check the 'targets' section in .relpack.yaml.",
		},
	},
	{
		err: ErrConfigInvalidToolchain,
		info: ErrorInfo{
			Message: "Invalid toolchain configuration.",
			Action:  "Check the 'toolchain' section in .relpack.yaml.",
		},
	},
	{
		err: ErrConfigInvalidArchive,
		info: ErrorInfo{
			Message: "Invalid archive configuration.",
			Action:  "Check the 'archive' section in .relpack.yaml.",
		},
	},
	{
		err: ErrConfigInvalidVersion,
		info: ErrorInfo{
			Message: "Invalid version configuration.",
			Action:  "Set version.missing to 'fail' or 'warn'.",
		},
	},
	{
		err: ErrConfigExists,
		info: ErrorInfo{
			Message: "A configuration file already exists.",
			Action:  "Use --force to overwrite it.",
		},
	},

	// ===================
	// User Interaction
	// ===================
	{
		err: ErrInterrupted,
		info: ErrorInfo{
			Message: "Run was interrupted.",
			Action:  "Rerun relpack; the output directory is reset on every run.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrUnknownTarget,
		info: ErrorInfo{
			Message: "The specified target is not configured.",
			Action:  "Run 'relpack targets' to see configured targets.",
		},
	},
}

// errorInfoMap provides O(1) lookup for direct sentinel error matches.
//
//nolint:gochecknoglobals // Pre-built mapping for O(1) lookup performance
var errorInfoMap = buildErrorInfoMap()

func buildErrorInfoMap() map[error]ErrorInfo {
	m := make(map[error]ErrorInfo, len(errorInfoEntries))
	for _, entry := range errorInfoEntries {
		m[entry.err] = entry.info
	}
	return m
}

// getErrorInfo looks up the ErrorInfo for a given error.
// It first tries a direct map lookup for unwrapped sentinel errors,
// then falls back to errors.Is() traversal for wrapped errors.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	if info, ok := errorInfoMap[err]; ok {
		return info
	}

	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}

	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action the user can take to resolve or work around the issue.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
