package domain

import "time"

// TargetResult captures what happened to a single target during a run.
type TargetResult struct {
	Name              string       `json:"name"`
	Status            TargetStatus `json:"status"`
	BinaryPath        string       `json:"binary_path,omitempty"`
	PackageDir        string       `json:"package_dir,omitempty"`
	ArchivePath       string       `json:"archive_path,omitempty"`
	ArchiveMembers    []string     `json:"archive_members,omitempty"`
	VersionPackaged   bool         `json:"version_packaged"`
	BuildDurationMs   int64        `json:"build_duration_ms"`
	PackageDurationMs int64        `json:"package_duration_ms"`
	Error             string       `json:"error,omitempty"`
}

// Report is the outcome of one pipeline run. It is returned on success and
// on failure so callers can show how far the run got.
type Report struct {
	RunID       string          `json:"run_id"`
	Success     bool            `json:"success"`
	State       PipelineState   `json:"state"`
	History     []PipelineState `json:"history"`
	FailedStage string          `json:"failed_stage,omitempty"`
	OutputDir   string          `json:"output_dir"`
	Targets     []TargetResult  `json:"targets"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt time.Time       `json:"completed_at"`
	DurationMs  int64           `json:"duration_ms"`
}

// Target returns the result for name, or nil if name is not part of the report.
func (r *Report) Target(name string) *TargetResult {
	for i := range r.Targets {
		if r.Targets[i].Name == name {
			return &r.Targets[i]
		}
	}
	return nil
}

// ArchiveMember describes one entry of a packaged zip archive.
type ArchiveMember struct {
	Name   string `json:"name"`
	Size   uint64 `json:"size"`
	Mode   string `json:"mode"`
	SHA256 string `json:"sha256"`
}
