// Package pipeline runs a release: reset the output directory, build every
// target, then package every target.
//
// The run is fail-fast. All builds finish before any packaging starts, so a
// failed build leaves no archive behind for any target. The first failure
// moves the run to the Aborted state and nothing else is touched.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/larmbs/relpack/internal/build"
	"github.com/larmbs/relpack/internal/clock"
	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
	"github.com/larmbs/relpack/internal/pack"
	"github.com/larmbs/relpack/internal/workspace"
)

// Workspace is the output directory a run resets.
type Workspace interface {
	Reset(ctx context.Context) error
	Dir() string
	ProjectDir() string
}

// Builder compiles one target.
type Builder interface {
	Build(ctx context.Context, target domain.Target) (*build.Result, error)
}

// Packager stages and archives one built target.
type Packager interface {
	Package(ctx context.Context, target domain.Target) (*pack.Result, error)
}

// Options configures a run.
type Options struct {
	// Targets are built and packaged in this order.
	Targets []domain.Target

	// Parallel packages targets concurrently once every build succeeded.
	Parallel bool

	// MissingVersion is the version marker policy checked before building.
	MissingVersion string

	// Progress receives stage updates. Optional.
	Progress ProgressCallback

	// Clock stamps the report. Defaults to the system clock.
	Clock clock.Clock
}

// Pipeline orchestrates one release run.
type Pipeline struct {
	workspace Workspace
	builder   Builder
	packager  Packager
	opts      Options
}

// New creates a pipeline.
func New(ws Workspace, builder Builder, packager Packager, opts Options) *Pipeline {
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.MissingVersion == "" {
		opts.MissingVersion = constants.MissingVersionFail
	}
	return &Pipeline{
		workspace: ws,
		builder:   builder,
		packager:  packager,
		opts:      opts,
	}
}

// run carries the state of one Run call.
type run struct {
	*Pipeline
	report  *domain.Report
	machine *machine
	log     zerolog.Logger
	start   time.Time

	progressMu sync.Mutex
	reported   map[string]bool
}

// Run executes the stages in order and returns the report. The report is
// always non-nil and reflects how far the run got, even on error.
//
// Errors:
//   - ErrWorkspaceReset / ErrUnsafeOutputDir when the output cannot be reset
//   - ErrVersionMarkerMissing when a marker is missing and the policy is "fail"
//   - ErrBuildFailed / ErrBinaryMissing from the first failing build
//   - ErrCopyFailed / ErrArchiveFailed from the first failing package step
//   - ErrInterrupted when ctx is canceled
func (p *Pipeline) Run(ctx context.Context) (*domain.Report, error) {
	start := p.opts.Clock.Now()
	report := &domain.Report{
		RunID:     uuid.NewString(),
		OutputDir: p.workspace.Dir(),
		StartedAt: start,
		Targets:   make([]domain.TargetResult, 0, len(p.opts.Targets)),
	}
	for _, t := range p.opts.Targets {
		report.Targets = append(report.Targets, domain.TargetResult{
			Name:   t.Name,
			Status: constants.TargetStatusPending,
		})
	}

	r := &run{
		Pipeline: p,
		report:   report,
		machine:  newMachine(report),
		log: zerolog.Ctx(ctx).With().
			Str("component", "pipeline").
			Str("run_id", report.RunID).
			Logger(),
		start:    start,
		reported: make(map[string]bool),
	}
	ctx = r.log.WithContext(ctx)

	if len(p.opts.Targets) == 0 {
		return r.abort(ctx, "", errors.Wrap(errors.ErrConfigInvalidTargets, "no targets to build"))
	}

	r.log.Info().
		Str("output_dir", report.OutputDir).
		Int("targets", len(p.opts.Targets)).
		Msg("starting release pipeline")

	if err := r.reset(ctx); err != nil {
		return r.abort(ctx, StageReset, err)
	}
	if err := r.preflight(ctx); err != nil {
		return r.abort(ctx, StagePreflight, err)
	}
	if stage, err := r.buildAll(ctx); err != nil {
		return r.abort(ctx, stage, err)
	}
	if stage, err := r.packageAll(ctx); err != nil {
		return r.abort(ctx, stage, err)
	}

	if err := r.machine.transition(constants.PipelineStateDone); err != nil {
		return r.abort(ctx, "", err)
	}
	report.Success = true
	r.finalize()

	r.log.Info().
		Int64("duration_ms", report.DurationMs).
		Msg("release pipeline completed successfully")
	return report, nil
}

// reset recreates the output directory.
func (r *run) reset(ctx context.Context) error {
	r.reportProgress(StageReset, constants.StageProgressStarting)
	if err := ctx.Err(); err != nil {
		return err
	}
	projectDir := r.workspace.ProjectDir()
	if err := workspace.CheckSafe(r.workspace.Dir(), projectDir,
		workspace.TargetInputs(projectDir, r.opts.Targets)...); err != nil {
		return err
	}
	if err := r.workspace.Reset(ctx); err != nil {
		return err
	}
	if err := r.machine.transition(constants.PipelineStateReset); err != nil {
		return err
	}
	r.reportProgress(StageReset, constants.StageProgressCompleted)
	return nil
}

// preflight checks every version marker before any compile starts.
func (r *run) preflight(ctx context.Context) error {
	r.reportProgress(StagePreflight, constants.StageProgressStarting)
	if err := ctx.Err(); err != nil {
		return err
	}

	missing := MissingVersionMarkers(r.workspace.ProjectDir(), r.opts.Targets)
	if len(missing) > 0 {
		if r.opts.MissingVersion != constants.MissingVersionWarn {
			return fmt.Errorf("%w: targets %v", errors.ErrVersionMarkerMissing, missing)
		}
		r.log.Warn().Strs("targets", missing).Msg("version markers missing, binaries will be packaged alone")
	}

	r.reportProgress(StagePreflight, constants.StageProgressCompleted)
	return nil
}

// buildAll builds every target in order, stopping at the first failure.
// It returns the failing stage name with the error.
func (r *run) buildAll(ctx context.Context) (string, error) {
	for _, target := range r.opts.Targets {
		stage := BuildStage(target.Name)
		r.reportProgress(stage, constants.StageProgressStarting)

		if err := ctx.Err(); err != nil {
			return stage, err
		}

		res, err := r.builder.Build(ctx, target)
		r.machine.updateTarget(target.Name, func(tr *domain.TargetResult) {
			if res != nil {
				tr.BinaryPath = res.BinaryPath
				tr.BuildDurationMs = res.Duration.Milliseconds()
			}
		})
		if err != nil {
			return stage, err
		}

		if err := r.machine.transition(constants.PipelineStateBuilt); err != nil {
			return stage, err
		}
		r.machine.updateTarget(target.Name, func(tr *domain.TargetResult) {
			tr.Status = constants.TargetStatusBuilt
		})
		r.reportProgress(stage, constants.StageProgressCompleted)
	}
	return "", nil
}

// packageAll packages every built target, sequentially or in parallel.
func (r *run) packageAll(ctx context.Context) (string, error) {
	var stage string
	var err error
	if r.opts.Parallel {
		stage, err = r.packageParallel(ctx)
	} else {
		stage, err = r.packageSequential(ctx)
	}
	if err != nil {
		return stage, err
	}
	return "", r.machine.transition(constants.PipelineStateAllPackaged)
}

// packageSequential packages targets in order, stopping at the first failure.
func (r *run) packageSequential(ctx context.Context) (string, error) {
	for _, target := range r.opts.Targets {
		if err := r.packageOne(ctx, target); err != nil {
			return PackageStage(target.Name), err
		}
	}
	return "", nil
}

// packageParallel packages all targets concurrently. The first failure
// cancels the others and is the one reported.
func (r *run) packageParallel(ctx context.Context) (string, error) {
	g, gctx := errgroup.WithContext(ctx)

	var once sync.Once
	var failedStage string
	var firstErr error

	for _, target := range r.opts.Targets {
		g.Go(func() error {
			if err := r.packageOne(gctx, target); err != nil {
				once.Do(func() {
					failedStage = PackageStage(target.Name)
					firstErr = err
				})
				return err
			}
			return nil
		})
	}

	_ = g.Wait()
	if firstErr != nil {
		return failedStage, firstErr
	}
	return "", nil
}

// packageOne packages a single target and records the outcome.
func (r *run) packageOne(ctx context.Context, target domain.Target) error {
	stage := PackageStage(target.Name)
	r.reportProgress(stage, constants.StageProgressStarting)

	if err := ctx.Err(); err != nil {
		return err
	}

	res, err := r.packager.Package(ctx, target)
	if err != nil {
		r.machine.updateTarget(target.Name, func(tr *domain.TargetResult) {
			tr.Status = constants.TargetStatusFailed
			tr.Error = err.Error()
		})
		return err
	}

	r.machine.updateTarget(target.Name, func(tr *domain.TargetResult) {
		tr.Status = constants.TargetStatusPackaged
		tr.PackageDir = res.PackageDir
		tr.ArchivePath = res.ArchivePath
		tr.ArchiveMembers = res.Members
		tr.VersionPackaged = res.VersionPackaged
		tr.PackageDurationMs = res.Duration.Milliseconds()
	})
	r.reportProgress(stage, constants.StageProgressCompleted)
	return nil
}

// abort moves the run to Aborted and returns the report with the stage error.
// Cancellation is reported as ErrInterrupted.
func (r *run) abort(ctx context.Context, stage string, err error) (*domain.Report, error) {
	if ctx.Err() != nil && !stderrors.Is(err, errors.ErrInterrupted) {
		err = fmt.Errorf("%w: %w", errors.ErrInterrupted, err)
	}

	if stage != "" {
		r.reportProgress(stage, constants.StageProgressFailed)
		if kind, target := SplitStage(stage); kind == StageKindBuild && target != "" {
			r.machine.updateTarget(target, func(tr *domain.TargetResult) {
				tr.Status = constants.TargetStatusFailed
				tr.Error = err.Error()
			})
		}
	}
	r.skipRemaining()

	if !IsTerminalState(r.machine.state()) {
		_ = r.machine.transition(constants.PipelineStateAborted)
	}
	r.report.FailedStage = stage
	r.report.Success = false
	r.finalize()

	evt := r.log.Error().Err(err).Str("stage", stage)
	if code, ok := errors.ExitCodeOf(err); ok {
		evt = evt.Int("exit_code", code)
	}
	evt.Msg("release pipeline aborted")

	return r.report, err
}

// finalize stamps completion time and duration.
func (r *run) finalize() {
	r.report.CompletedAt = r.opts.Clock.Now()
	r.report.DurationMs = r.report.CompletedAt.Sub(r.start).Milliseconds()
}

// skipRemaining reports every stage the aborted run never reached as skipped.
func (r *run) skipRemaining() {
	for _, stage := range Stages(r.opts.Targets) {
		r.progressMu.Lock()
		seen := r.reported[stage]
		r.progressMu.Unlock()
		if !seen {
			r.reportProgress(stage, constants.StageProgressSkipped)
		}
	}
}

// reportProgress calls the progress callback if configured. Calls are
// serialized so callbacks need no locking of their own.
func (r *run) reportProgress(stage string, status constants.StageProgressStatus) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.reported[stage] = true
	if r.opts.Progress == nil {
		return
	}
	r.opts.Progress(stage, status)
}
