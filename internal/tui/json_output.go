package tui

import (
	"context"
	"encoding/json"
	"io"

	relerrors "github.com/larmbs/relpack/internal/errors"
)

// JSONOutput writes one JSON object per message, for scripts and CI.
type JSONOutput struct {
	w       io.Writer
	encoder *json.Encoder
}

// NewJSONOutput creates a JSONOutput.
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{
		w:       w,
		encoder: json.NewEncoder(w),
	}
}

type jsonMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type jsonError struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	ExitCode   int    `json:"exit_code,omitempty"`
}

type jsonTable struct {
	Type    string     `json:"type"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Success writes {"type":"success","message":...}.
func (o *JSONOutput) Success(msg string) {
	//nolint:errchkjson // interface has no error return
	_ = o.encoder.Encode(jsonMessage{Type: "success", Message: msg})
}

// Error writes the error with its explanation, suggested action and the
// propagated tool exit code when there is one.
func (o *JSONOutput) Error(err error) {
	out := jsonError{Type: "error", Message: err.Error()}

	msg, action := relerrors.Actionable(err)
	if msg != err.Error() {
		out.Details = msg
	}
	out.Suggestion = action
	if code, ok := relerrors.ExitCodeOf(err); ok {
		out.ExitCode = code
	}

	//nolint:errchkjson // interface has no error return
	_ = o.encoder.Encode(out)
}

// Warning writes {"type":"warning","message":...}.
func (o *JSONOutput) Warning(msg string) {
	//nolint:errchkjson // interface has no error return
	_ = o.encoder.Encode(jsonMessage{Type: "warning", Message: msg})
}

// Info writes {"type":"info","message":...}.
func (o *JSONOutput) Info(msg string) {
	//nolint:errchkjson // interface has no error return
	_ = o.encoder.Encode(jsonMessage{Type: "info", Message: msg})
}

// Table writes the rows as one JSON object.
func (o *JSONOutput) Table(headers []string, rows [][]string) {
	if rows == nil {
		rows = [][]string{}
	}
	//nolint:errchkjson // interface has no error return
	_ = o.encoder.Encode(jsonTable{Type: "table", Headers: headers, Rows: rows})
}

// JSON prints v as indented JSON.
func (o *JSONOutput) JSON(v any) error {
	return encodeJSON(o.w, v)
}

// Spinner returns a spinner that prints nothing.
func (o *JSONOutput) Spinner(_ context.Context, _ string) Spinner {
	return &NoopSpinner{}
}
