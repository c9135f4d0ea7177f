package tui

import (
	"context"
	"io"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Output writes command results in the selected format.
type Output interface {
	// Success prints a success message.
	Success(msg string)
	// Error prints an error with its suggested action, if any.
	Error(err error)
	// Warning prints a warning.
	Warning(msg string)
	// Info prints an informational message.
	Info(msg string)
	// Table prints rows under headers.
	Table(headers []string, rows [][]string)
	// JSON prints v as indented JSON.
	JSON(v any) error
	// Spinner starts a progress indicator. Stop it when the work ends.
	Spinner(ctx context.Context, msg string) Spinner
}

// Spinner shows progress for a long-running operation.
type Spinner interface {
	Update(msg string)
	Stop()
}

// NewOutput returns JSON output for FormatJSON and styled text otherwise.
// Text output only animates a spinner when tty is true.
func NewOutput(w io.Writer, format string, tty bool) Output {
	if format == FormatJSON {
		return NewJSONOutput(w)
	}
	out := NewTTYOutput(w)
	out.animate = tty
	return out
}
