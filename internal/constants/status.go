package constants

// PipelineState represents where a relpack run is in its state machine.
// Status values use snake_case for JSON serialization compatibility.
type PipelineState string

// Pipeline states. The run moves strictly forward:
//
//	Pending → Reset
//	Reset → Built (once per target, in order)
//	Built → Built, AllPackaged
//	AllPackaged → Done
//	any non-terminal state → Aborted
const (
	// PipelineStatePending indicates the run has not touched the filesystem yet.
	PipelineStatePending PipelineState = "pending"

	// PipelineStateReset indicates the output directory was recreated empty.
	PipelineStateReset PipelineState = "reset"

	// PipelineStateBuilt indicates at least one target has a verified release binary.
	// The report records which targets are built.
	PipelineStateBuilt PipelineState = "built"

	// PipelineStateAllPackaged indicates every target has an archive.
	PipelineStateAllPackaged PipelineState = "all_packaged"

	// PipelineStateDone indicates the success message was emitted.
	PipelineStateDone PipelineState = "done"

	// PipelineStateAborted indicates a stage failed or the run was interrupted.
	// No further side effects happen after this state.
	PipelineStateAborted PipelineState = "aborted"
)

// String returns the string representation of the PipelineState.
func (s PipelineState) String() string {
	return string(s)
}

// TargetStatus represents the progress of a single target through the pipeline.
type TargetStatus string

// Target status constants.
const (
	TargetStatusPending  TargetStatus = "pending"
	TargetStatusBuilt    TargetStatus = "built"
	TargetStatusPackaged TargetStatus = "packaged"
	TargetStatusFailed   TargetStatus = "failed"
)

// String returns the string representation of the TargetStatus.
func (s TargetStatus) String() string {
	return string(s)
}

// StageProgressStatus represents the progress state of a pipeline stage.
// These are reported by the pipeline runner to its progress callback.
type StageProgressStatus string

// Stage progress status constants.
const (
	// StageProgressStarting indicates a stage is beginning execution.
	StageProgressStarting StageProgressStatus = "starting"

	// StageProgressCompleted indicates a stage finished successfully.
	StageProgressCompleted StageProgressStatus = "completed"

	// StageProgressFailed indicates a stage failed.
	StageProgressFailed StageProgressStatus = "failed"

	// StageProgressSkipped indicates a stage never ran because the run aborted first.
	StageProgressSkipped StageProgressStatus = "skipped"
)

// String returns the string representation of the StageProgressStatus.
func (s StageProgressStatus) String() string {
	return string(s)
}
