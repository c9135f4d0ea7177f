package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	relerrors "github.com/larmbs/relpack/internal/errors"
	"github.com/larmbs/relpack/internal/logging"
)

// DefaultTimeout is the timeout used when an executor is created without one.
const DefaultTimeout = 5 * time.Minute

// Executor runs external commands with a timeout and structured logging.
type Executor struct {
	runner     Runner
	timeout    time.Duration
	liveOutput io.Writer // Optional: if set, streams command output in real-time
}

// NewExecutor creates an executor with the default os/exec runner.
func NewExecutor(timeout time.Duration) *Executor {
	return NewExecutorWithRunner(timeout, &DefaultRunner{})
}

// NewExecutorWithRunner creates an executor with a custom runner (for testing).
func NewExecutorWithRunner(timeout time.Duration, runner Runner) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		runner:  runner,
		timeout: timeout,
	}
}

// SetLiveOutput configures the executor to stream command output in real-time.
// When set, stdout and stderr are written to w as they are produced.
func (e *Executor) SetLiveOutput(w io.Writer) {
	e.liveOutput = w
}

// Timeout returns the per-command timeout.
func (e *Executor) Timeout() time.Duration {
	return e.timeout
}

// Run executes argv in workDir. The returned Result is always non-nil.
//
// Errors:
//   - ErrCommandTimeout when the command outlives the executor timeout
//   - the parent context error when ctx is canceled
//   - an *errors.ExitCodeError wrapping ErrCommandFailed otherwise
func (e *Executor) Run(ctx context.Context, argv []string, workDir string) (*Result, error) {
	log := zerolog.Ctx(ctx)
	display := Display(argv)

	result := &Result{
		Command: display,
		Argv:    argv,
		WorkDir: workDir,
	}

	if len(argv) == 0 {
		result.Error = ErrEmptyCommand.Error()
		return result, fmt.Errorf("%w: %w", relerrors.ErrCommandFailed, ErrEmptyCommand)
	}

	if err := ctx.Err(); err != nil {
		result.Error = "context canceled"
		return result, err
	}

	log.Info().
		Str("command", logging.FilterSensitiveValue(display)).
		Str("work_dir", workDir).
		Msg("executing command")

	cmdCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result.StartedAt = time.Now()
	stdout, stderr, exitCode, runErr := e.execute(cmdCtx, argv, workDir)
	result.CompletedAt = time.Now()

	duration := result.CompletedAt.Sub(result.StartedAt)
	result.DurationMs = duration.Milliseconds()
	result.Stdout = stdout
	result.Stderr = stderr
	result.ExitCode = exitCode

	return result, e.handleOutcome(ctx, cmdCtx, result, runErr, duration, log)
}

// execute runs the command, streaming output when live output is configured.
func (e *Executor) execute(ctx context.Context, argv []string, workDir string) (stdout, stderr string, exitCode int, err error) {
	if e.liveOutput != nil {
		if liveRunner, ok := e.runner.(LiveOutputRunner); ok {
			return liveRunner.RunWithLiveOutput(ctx, workDir, argv, e.liveOutput)
		}
	}
	return e.runner.Run(ctx, workDir, argv)
}

// handleOutcome classifies the command result and logs it.
func (e *Executor) handleOutcome(ctx, cmdCtx context.Context, result *Result, runErr error, duration time.Duration, log *zerolog.Logger) error {
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		result.Error = "command timed out"
		log.Error().
			Str("command", result.Command).
			Dur("timeout", e.timeout).
			Str("stderr", logging.FilterSensitiveValue(result.Stderr)).
			Msg("command timed out")
		return fmt.Errorf("%w after %s: %s", relerrors.ErrCommandTimeout, e.timeout, result.Command)
	}

	if ctx.Err() != nil {
		result.Error = "context canceled"
		return ctx.Err()
	}

	if runErr != nil || result.ExitCode != 0 {
		if runErr != nil {
			result.Error = runErr.Error()
		} else {
			result.Error = fmt.Sprintf("exit code %d", result.ExitCode)
		}

		log.Error().
			Str("command", result.Command).
			Int("exit_code", result.ExitCode).
			Dur("duration_ms", duration).
			Str("stderr", logging.FilterSensitiveValue(result.Stderr)).
			Msg("command failed")

		code := result.ExitCode
		if code == 0 {
			code = 1
		}
		return relerrors.NewExitCodeError(result.Argv[0], code, relerrors.ErrCommandFailed)
	}

	result.Success = true
	log.Info().
		Str("command", result.Command).
		Dur("duration_ms", duration).
		Msg("command completed")

	return nil
}
