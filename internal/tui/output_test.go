package tui

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larmbs/relpack/internal/errors"
)

func TestNewOutput(t *testing.T) {
	var buf bytes.Buffer

	assert.IsType(t, &JSONOutput{}, NewOutput(&buf, FormatJSON, true))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, FormatText, false))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, "", false))
}

func TestTTYOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Success("Packaged 3 targets into build")
	out.Warning("version marker missing for launcher")
	out.Info("using builtin archiver")

	got := buf.String()
	assert.Contains(t, got, "✓ Packaged 3 targets into build")
	assert.Contains(t, got, "⚠ version marker missing for launcher")
	assert.Contains(t, got, "ℹ using builtin archiver")
}

func TestTTYOutput_Error_KnownSentinel(t *testing.T) {
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	err := fmt.Errorf("build server: %w", errors.NewExitCodeError("cargo", 101, errors.ErrBuildFailed))
	out.Error(err)

	got := buf.String()
	assert.Contains(t, got, "✗ build server")
	assert.Contains(t, got, "The toolchain failed to build a target")
	assert.Contains(t, got, "▸ Try: Fix the compile error and rerun relpack.")
}

func TestTTYOutput_Error_UnknownError(t *testing.T) {
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Error(stderrors.New("disk on fire"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "no explanation or suggestion for unknown errors")
	assert.Contains(t, lines[0], "✗ disk on fire")
}

func TestTTYOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	out := NewTTYOutput(&buf)

	out.Table(
		[]string{"TARGET", "BINARY", "VERSION"},
		[][]string{
			{"client", "target/release/client", "1.4.0"},
			{"launcher", "target/release/launcher"},
		},
	)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "TARGET    BINARY"))
	assert.True(t, strings.HasPrefix(lines[1], "client    target/release/client    1.4.0"))
	assert.Equal(t, "launcher  target/release/launcher", lines[2], "missing cells render empty")
}

func TestTTYOutput_Table_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTTYOutput(&buf).Table(nil, [][]string{{"x"}})
	assert.Empty(t, buf.String())
}

func TestTTYOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTTYOutput(&buf).JSON(map[string]int{"targets": 3}))
	assert.JSONEq(t, `{"targets":3}`, buf.String())
}

func TestTTYOutput_Spinner_NonInteractive(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutput(&buf, FormatText, false)

	sp := out.Spinner(context.Background(), "Build client")
	sp.Update("Build client")
	sp.Update("Build server")
	sp.Update("")
	sp.Stop()

	got := buf.String()
	assert.Equal(t, 1, strings.Count(got, "Build client"), "repeated messages print once")
	assert.Contains(t, got, "… Build server")
	assert.NotContains(t, got, "\033[K", "no animation when not on a terminal")
}

func TestJSONOutput_Messages(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONOutput(&buf)

	out.Success("done")
	out.Warning("careful")
	out.Info("fyi")

	dec := json.NewDecoder(&buf)
	for _, want := range []jsonMessage{
		{Type: "success", Message: "done"},
		{Type: "warning", Message: "careful"},
		{Type: "info", Message: "fyi"},
	} {
		var got jsonMessage
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, want, got)
	}
}

func TestJSONOutput_Error(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONOutput(&buf)

	out.Error(fmt.Errorf("build server: %w", errors.NewExitCodeError("cargo", 101, errors.ErrBuildFailed)))

	var got jsonError
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got.Type)
	assert.Contains(t, got.Message, "build server")
	assert.NotEmpty(t, got.Details)
	assert.NotEmpty(t, got.Suggestion)
	assert.Equal(t, 101, got.ExitCode)
}

func TestJSONOutput_Error_Plain(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Error(stderrors.New("boom"))

	var got jsonError
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, jsonError{Type: "error", Message: "boom"}, got)
}

func TestJSONOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	NewJSONOutput(&buf).Table([]string{"TARGET"}, nil)

	assert.JSONEq(t, `{"type":"table","headers":["TARGET"],"rows":[]}`, buf.String())
}

func TestJSONOutput_SpinnerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	sp := NewJSONOutput(&buf).Spinner(context.Background(), "Build client")
	sp.Update("Build server")
	sp.Stop()

	assert.Empty(t, buf.String())
}
