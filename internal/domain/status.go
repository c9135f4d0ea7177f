package domain

import "github.com/larmbs/relpack/internal/constants"

// Re-export the status types from constants so report consumers can import
// domain alone.
type (
	// TargetStatus is the progress of one target through a run.
	TargetStatus = constants.TargetStatus

	// PipelineState is where a run is in its state machine.
	PipelineState = constants.PipelineState
)

// Re-export TargetStatus constants for convenience.
const (
	TargetStatusPending  = constants.TargetStatusPending
	TargetStatusBuilt    = constants.TargetStatusBuilt
	TargetStatusPackaged = constants.TargetStatusPackaged
	TargetStatusFailed   = constants.TargetStatusFailed
)

// Failed returns the results of targets that failed, in target order.
func (r *Report) Failed() []TargetResult {
	var failed []TargetResult
	for _, t := range r.Targets {
		if t.Status == TargetStatusFailed {
			failed = append(failed, t)
		}
	}
	return failed
}
