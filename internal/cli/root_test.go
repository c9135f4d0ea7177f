package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larmbs/relpack/internal/errors"
)

// bufferDeps returns deps that write to buf and never touch a toolchain.
func bufferDeps(buf *bytes.Buffer) *deps {
	return &deps{
		newRunner: (&fakeToolchain{}).runner,
		stdout:    buf,
		stderr:    buf,
		logOut:    io.Discard,
		isTTY:     func(io.Writer) bool { return false },
	}
}

func TestRootCmd_Help(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	cmd := newRootCmdWithDeps(&GlobalFlags{}, BuildInfo{Version: "test"}, bufferDeps(buf))
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "relpack")
	assert.Contains(t, output, "version.txt")
	for _, flag := range []string{"--output", "--verbose", "--quiet", "--project-dir", "--config", "--archive-mode", "--version"} {
		assert.Contains(t, output, flag)
	}
	for _, sub := range []string{"build", "verify", "targets", "init"} {
		assert.Contains(t, output, sub)
	}
}

func TestRootCmd_Version(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		info           BuildInfo
		expectContains []string
	}{
		{
			name: "full version info",
			info: BuildInfo{
				Version: "1.0.0",
				Commit:  "abc1234",
				Date:    "2026-01-01",
			},
			expectContains: []string{"1.0.0", "abc1234", "2026-01-01"},
		},
		{
			name:           "default dev version",
			info:           BuildInfo{},
			expectContains: []string{"dev", "none", "unknown"},
		},
		{
			name: "partial version info",
			info: BuildInfo{
				Version: "2.0.0-beta",
			},
			expectContains: []string{"2.0.0-beta", "none", "unknown"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			buf := new(bytes.Buffer)
			cmd := newRootCmdWithDeps(&GlobalFlags{}, tc.info, bufferDeps(buf))
			cmd.SetArgs([]string{"--version"})

			require.NoError(t, cmd.Execute())

			output := buf.String()
			for _, expected := range tc.expectContains {
				assert.Contains(t, output, expected)
			}
		})
	}
}

func TestRootCmd_OutputFlag(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedValue string
		expectError   bool
	}{
		{
			name:          "text output",
			args:          []string{"--output", "text"},
			expectedValue: OutputText,
		},
		{
			name:          "json output",
			args:          []string{"--output", "json"},
			expectedValue: OutputJSON,
		},
		{
			name:          "shorthand output",
			args:          []string{"-o", "json"},
			expectedValue: OutputJSON,
		},
		{
			name:        "invalid output format",
			args:        []string{"--output", "xml"},
			expectError: true,
		},
		{
			name:        "empty output format",
			args:        []string{"--output", ""},
			expectError: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			flags := &GlobalFlags{}
			cmd := newRootCmdWithDeps(flags, BuildInfo{}, env.deps)
			cmd.SetArgs(append([]string{"targets", "-C", env.projectDir}, tc.args...))

			err := cmd.ExecuteContext(context.Background())

			if tc.expectError {
				require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
				assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, flags.Output)
		})
	}
}

func TestRootCmd_VerboseQuietMutuallyExclusive(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	cmd := newRootCmdWithDeps(&GlobalFlags{}, BuildInfo{}, bufferDeps(buf))
	cmd.SetArgs([]string{"targets", "--verbose", "--quiet"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
	assert.Contains(t, err.Error(), "quiet")
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_LevelFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectVerbose bool
		expectQuiet   bool
	}{
		{name: "verbose long form", args: []string{"--verbose"}, expectVerbose: true},
		{name: "verbose short form", args: []string{"-v"}, expectVerbose: true},
		{name: "quiet long form", args: []string{"--quiet"}, expectQuiet: true},
		{name: "quiet short form", args: []string{"-q"}, expectQuiet: true},
		{name: "neither", args: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			flags := &GlobalFlags{}
			cmd := newRootCmdWithDeps(flags, BuildInfo{}, env.deps)
			cmd.SetArgs(append([]string{"targets", "-C", env.projectDir}, tc.args...))

			require.NoError(t, cmd.ExecuteContext(context.Background()))
			assert.Equal(t, tc.expectVerbose, flags.Verbose)
			assert.Equal(t, tc.expectQuiet, flags.Quiet)
		})
	}
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	cmd := newRootCmdWithDeps(&GlobalFlags{}, BuildInfo{}, bufferDeps(buf))
	cmd.SetArgs([]string{"deploy"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestExecute_PrintsErrorOnce(t *testing.T) {
	t.Parallel()

	buf := new(bytes.Buffer)
	err := execute(context.Background(), BuildInfo{}, bufferDeps(buf), []string{"--output", "yaml", "targets"})
	require.Error(t, err)

	output := buf.String()
	assert.Equal(t, 1, bytes.Count([]byte(output), []byte("✗")))
	assert.Contains(t, output, "yaml")
	assert.NotContains(t, output, "Usage:")
}

func TestExecute_MissingProjectDir(t *testing.T) {
	env := newTestEnv(t)

	err := execute(context.Background(), BuildInfo{}, env.deps, []string{"-C", env.path("nope"), "targets"})
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
	assert.Contains(t, env.stderr.String(), "nope")
}

func TestFormatVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		info     BuildInfo
		expected string
	}{
		{
			name: "all fields set",
			info: BuildInfo{
				Version: "1.0.0",
				Commit:  "abc123",
				Date:    "2026-01-01",
			},
			expected: "1.0.0 (commit: abc123, built: 2026-01-01)",
		},
		{
			name:     "empty info uses defaults",
			info:     BuildInfo{},
			expected: "dev (commit: none, built: unknown)",
		},
		{
			name: "partial info fills defaults",
			info: BuildInfo{
				Version: "2.0.0",
			},
			expected: "2.0.0 (commit: none, built: unknown)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, formatVersion(tc.info))
		})
	}
}

func TestGetLogger(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.run(t, "targets", "--verbose"))

	logger := GetLogger()
	assert.NotNil(t, logger)
	assert.Contains(t, env.logs.String(), "configuration loaded")
}

func TestExecute_CanceledContextIsInterrupt(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := execute(ctx, BuildInfo{}, env.deps, []string{"-C", env.projectDir, "build", "--archive-mode", "builtin"})
	require.ErrorIs(t, err, errors.ErrInterrupted)
	assert.Equal(t, ExitInterrupted, ExitCodeForError(err))
	assert.Empty(t, env.toolchain.built())
}
