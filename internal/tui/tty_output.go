package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	relerrors "github.com/larmbs/relpack/internal/errors"
)

// TTYOutput writes styled text.
type TTYOutput struct {
	w       io.Writer
	styles  *OutputStyles
	table   *TableStyles
	animate bool
}

// NewTTYOutput creates a TTYOutput. NO_COLOR is honored.
func NewTTYOutput(w io.Writer) *TTYOutput {
	CheckNoColor()

	return &TTYOutput{
		w:      w,
		styles: NewOutputStyles(),
		table:  NewTableStyles(),
	}
}

// Success prints "✓ msg".
func (o *TTYOutput) Success(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Success.Render("✓ "+msg))
}

// Error prints "✗ err", followed by the operator explanation and suggested
// action when the error matches a known sentinel.
//
//	✗ build server: build failed: cargo exited with code 101
//	  The toolchain failed to build a target. Check the compiler output above.
//	  ▸ Try: Fix the compile error and rerun relpack.
func (o *TTYOutput) Error(err error) {
	_, _ = fmt.Fprintln(o.w, o.styles.Error.Render("✗ "+err.Error()))

	msg, action := relerrors.Actionable(err)
	if msg != "" && msg != err.Error() {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  "+msg))
	}
	if action != "" {
		_, _ = fmt.Fprintln(o.w, o.styles.Dim.Render("  ▸ Try: "+action))
	}
}

// Warning prints "⚠ msg".
func (o *TTYOutput) Warning(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Warning.Render("⚠ "+msg))
}

// Info prints "ℹ msg".
func (o *TTYOutput) Info(msg string) {
	_, _ = fmt.Fprintln(o.w, o.styles.Info.Render("ℹ "+msg))
}

// Table prints aligned columns. Widths are measured in terminal cells so
// wide runes and pre-styled cells line up.
func (o *TTYOutput) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := columnWidths(headers, rows)

	parts := make([]string, 0, len(headers))
	for i, h := range headers {
		parts = append(parts, o.table.Header.Render(padCell(h, widths[i])))
	}
	_, _ = fmt.Fprintln(o.w, strings.TrimRight(strings.Join(parts, "  "), " "))

	for _, row := range rows {
		parts = parts[:0]
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			parts = append(parts, o.table.Cell.Render(padCell(cell, widths[i])))
		}
		_, _ = fmt.Fprintln(o.w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
}

// JSON prints v as indented JSON.
func (o *TTYOutput) JSON(v any) error {
	return encodeJSON(o.w, v)
}

// Spinner animates on a terminal and prints one status line per update otherwise.
func (o *TTYOutput) Spinner(ctx context.Context, msg string) Spinner {
	if o.animate {
		return NewSpinnerAdapter(ctx, o.w, msg)
	}
	return newLineSpinner(o.w, o.styles, msg)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
