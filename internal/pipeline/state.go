package pipeline

import (
	"fmt"
	"slices"
	"sync"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

// ValidTransitions defines all allowed state transitions of a run.
// Format: from_state -> []to_states
//
// The state machine follows this flow:
//
//	Pending → Reset
//	Reset → Built
//	Built → Built (next target), AllPackaged
//	AllPackaged → Done
//	Pending, Reset, Built, AllPackaged → Aborted
//
//nolint:gochecknoglobals // Exported for testing and read-only lookup table
var ValidTransitions = map[constants.PipelineState][]constants.PipelineState{
	constants.PipelineStatePending:     {constants.PipelineStateReset, constants.PipelineStateAborted},
	constants.PipelineStateReset:       {constants.PipelineStateBuilt, constants.PipelineStateAborted},
	constants.PipelineStateBuilt:       {constants.PipelineStateBuilt, constants.PipelineStateAllPackaged, constants.PipelineStateAborted},
	constants.PipelineStateAllPackaged: {constants.PipelineStateDone, constants.PipelineStateAborted},
}

// IsValidTransition checks if a transition from one state to another is allowed.
// Terminal and unknown states allow no transitions.
func IsValidTransition(from, to constants.PipelineState) bool {
	return slices.Contains(ValidTransitions[from], to)
}

// IsTerminalState returns true for Done and Aborted.
func IsTerminalState(state constants.PipelineState) bool {
	return state == constants.PipelineStateDone || state == constants.PipelineStateAborted
}

// machine applies transitions to a report. It is safe for concurrent use by
// parallel packaging goroutines.
type machine struct {
	mu     sync.Mutex
	report *domain.Report
}

func newMachine(report *domain.Report) *machine {
	report.State = constants.PipelineStatePending
	report.History = []constants.PipelineState{constants.PipelineStatePending}
	return &machine{report: report}
}

// transition moves the run to state, recording it in the history.
func (m *machine) transition(to constants.PipelineState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.report.State
	if !IsValidTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", errors.ErrInvalidTransition, from, to)
	}
	m.report.State = to
	m.report.History = append(m.report.History, to)
	return nil
}

// state returns the current state.
func (m *machine) state() constants.PipelineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.report.State
}

// updateTarget applies fn to the named target result under the lock.
func (m *machine) updateTarget(name string, fn func(*domain.TargetResult)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tr := m.report.Target(name); tr != nil {
		fn(tr)
	}
}
