// Package errors provides centralized error handling for relpack.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for error categorization.
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrWorkspaceReset indicates the output directory could not be removed or recreated.
	ErrWorkspaceReset = errors.New("workspace reset failed")

	// ErrUnsafeOutputDir indicates the configured output directory would destroy
	// the project root, the filesystem root, or one of their ancestors.
	ErrUnsafeOutputDir = errors.New("unsafe output directory")

	// ErrLockHeld indicates another relpack run already holds the output lock.
	ErrLockHeld = errors.New("output directory locked by another run")

	// ErrBuildFailed indicates the toolchain exited non-zero for a target.
	ErrBuildFailed = errors.New("build failed")

	// ErrBinaryMissing indicates the toolchain reported success but the release
	// binary is not at its expected path.
	ErrBinaryMissing = errors.New("release binary missing")

	// ErrCommandTimeout indicates an external command exceeded its timeout.
	ErrCommandTimeout = errors.New("command timed out")

	// ErrCommandFailed indicates an external command could not be started or exited non-zero.
	ErrCommandFailed = errors.New("command failed")

	// ErrCopyFailed indicates a binary or version marker could not be copied
	// into its package directory.
	ErrCopyFailed = errors.New("copy failed")

	// ErrArchiveFailed indicates the archiver could not produce a target's zip.
	ErrArchiveFailed = errors.New("archive failed")

	// ErrVersionMarkerMissing indicates a target has no version marker file.
	ErrVersionMarkerMissing = errors.New("version marker missing")

	// ErrUnsafeArchiveMember indicates an archive contains an absolute or
	// parent-relative member path.
	ErrUnsafeArchiveMember = errors.New("unsafe archive member path")

	// ErrArchiveMismatch indicates a packaged archive does not contain exactly
	// the expected members and content.
	ErrArchiveMismatch = errors.New("archive contents mismatch")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidTargets indicates the targets section is empty or malformed.
	ErrConfigInvalidTargets = errors.New("invalid targets configuration")

	// ErrConfigInvalidToolchain indicates the toolchain section is malformed.
	ErrConfigInvalidToolchain = errors.New("invalid toolchain configuration")

	// ErrConfigInvalidArchive indicates the archive section is malformed.
	ErrConfigInvalidArchive = errors.New("invalid archive configuration")

	// ErrConfigInvalidVersion indicates the version section is malformed.
	ErrConfigInvalidVersion = errors.New("invalid version configuration")

	// ErrConfigExists indicates relpack init would overwrite an existing config file.
	ErrConfigExists = errors.New("config file already exists")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidTransition indicates the pipeline attempted an illegal state change.
	ErrInvalidTransition = errors.New("invalid pipeline state transition")

	// ErrInterrupted indicates the run was canceled by SIGINT or SIGTERM.
	ErrInterrupted = errors.New("interrupted")

	// ErrUnknownTarget indicates a target name that is not configured.
	ErrUnknownTarget = errors.New("unknown target")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}

// ExitCodeError carries the exit status of a failed external tool so the CLI can
// propagate it as its own exit status.
type ExitCodeError struct {
	// Tool is argv[0] of the failing command.
	Tool string
	// Code is the tool's exit status.
	Code int
	Err  error
}

// NewExitCodeError wraps err with the exit status of tool.
func NewExitCodeError(tool string, code int, err error) *ExitCodeError {
	return &ExitCodeError{Tool: tool, Code: code, Err: err}
}

// Error implements the error interface.
func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("%s exited with status %d: %v", e.Tool, e.Code, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// ExitCodeOf returns the propagated tool exit status from anywhere in err's chain.
func ExitCodeOf(err error) (int, bool) {
	var e *ExitCodeError
	if errors.As(err, &e) && e.Code > 0 {
		return e.Code, true
	}
	return 0, false
}
