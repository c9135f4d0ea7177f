package cli

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/pipeline"
	"github.com/larmbs/relpack/internal/tui"
)

// progressReporter turns pipeline stage events into spinner updates and log entries.
type progressReporter struct {
	spinner tui.Spinner
	logger  *zerolog.Logger
}

func newProgressReporter(spinner tui.Spinner, logger *zerolog.Logger) *progressReporter {
	return &progressReporter{spinner: spinner, logger: logger}
}

// Report satisfies pipeline.ProgressCallback.
func (p *progressReporter) Report(stage string, status constants.StageProgressStatus) {
	label := tui.StageLabel(stage)
	_, target := pipeline.SplitStage(stage)

	switch status {
	case constants.StageProgressStarting:
		p.spinner.Update(label)
		p.logger.Debug().Str("stage", stage).Msg("stage started")
	case constants.StageProgressCompleted:
		evt := p.logger.Debug().Str("stage", stage)
		if target != "" {
			evt = evt.Str("target", target)
		}
		evt.Msg("stage completed")
	case constants.StageProgressFailed:
		p.logger.Debug().Str("stage", stage).Msg("stage failed")
	case constants.StageProgressSkipped:
		p.logger.Debug().Str("stage", stage).Msg("stage skipped")
	}
}

// tuiLiveWriter is where streamed toolchain output goes.
func tuiLiveWriter(d *deps) io.Writer {
	return tui.NewSpinnerAwareWriter(d.stderr)
}
