// Package command runs the external tools relpack orchestrates: the release
// toolchain and the archiving utility.
//
// SECURITY NOTE: the argv executed by this package comes from the project
// configuration (.relpack.yaml) or the user's global config. It is treated as
// trusted input, the same trust model as a Makefile or a CI script. Commands are
// executed directly (no shell) so placeholder values such as target names are
// never re-parsed.
package command

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// ExitCodeNotFound is reported when the program does not exist, matching the
// status a POSIX shell returns for an unknown command.
const ExitCodeNotFound = 127

// Runner defines the interface for executing external commands.
// This allows for testing by injecting mock implementations.
type Runner interface {
	// Run executes argv in workDir and returns its output.
	Run(ctx context.Context, workDir string, argv []string) (stdout, stderr string, exitCode int, err error)
}

// LiveOutputRunner defines a runner that supports live output streaming.
type LiveOutputRunner interface {
	Runner
	// RunWithLiveOutput executes argv and streams output to liveOut while also capturing it.
	RunWithLiveOutput(ctx context.Context, workDir string, argv []string, liveOut io.Writer) (stdout, stderr string, exitCode int, err error)
}

// DefaultRunner implements Runner and LiveOutputRunner using os/exec.
type DefaultRunner struct {
	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// Run executes argv without a shell.
func (r *DefaultRunner) Run(ctx context.Context, workDir string, argv []string) (stdout, stderr string, exitCode int, err error) {
	return r.runCommand(ctx, workDir, argv, nil)
}

// RunWithLiveOutput executes argv and streams output to liveOut while also capturing it.
func (r *DefaultRunner) RunWithLiveOutput(ctx context.Context, workDir string, argv []string, liveOut io.Writer) (stdout, stderr string, exitCode int, err error) {
	return r.runCommand(ctx, workDir, argv, liveOut)
}

// runCommand executes argv with optional live output streaming.
func (r *DefaultRunner) runCommand(ctx context.Context, workDir string, argv []string, liveOut io.Writer) (stdout, stderr string, exitCode int, err error) {
	if len(argv) == 0 {
		return "", "", 1, ErrEmptyCommand
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // argv comes from trusted project config
	cmd.Dir = workDir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var outBuf, errBuf bytes.Buffer
	if liveOut != nil {
		cmd.Stdout = io.MultiWriter(&outBuf, liveOut)
		cmd.Stderr = io.MultiWriter(&errBuf, liveOut)
	} else {
		cmd.Stdout = &outBuf
		cmd.Stderr = &errBuf
	}

	err = cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr) && exitErr.ExitCode() > 0:
			exitCode = exitErr.ExitCode()
		case errors.Is(err, exec.ErrNotFound):
			exitCode = ExitCodeNotFound
		default:
			exitCode = 1
		}
	}

	return stdout, stderr, exitCode, err
}

// ErrEmptyCommand is returned when a runner is given an empty argv.
var ErrEmptyCommand = errors.New("empty command")

// Ensure DefaultRunner implements Runner and LiveOutputRunner.
var (
	_ Runner           = (*DefaultRunner)(nil)
	_ LiveOutputRunner = (*DefaultRunner)(nil)
)
