package command

import (
	"strings"
	"time"
)

// Result captures the outcome of a single external command.
type Result struct {
	Command     string    `json:"command"`
	Argv        []string  `json:"argv"`
	WorkDir     string    `json:"work_dir,omitempty"`
	Success     bool      `json:"success"`
	ExitCode    int       `json:"exit_code"`
	Stdout      string    `json:"stdout"`
	Stderr      string    `json:"stderr"`
	DurationMs  int64     `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Display joins argv for logs and operator messages.
func Display(argv []string) string {
	return strings.Join(argv, " ")
}
