package pipeline

import (
	"strings"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
)

// Fixed stage names. Per-target stages are "build:<target>" and "package:<target>".
const (
	StageReset     = "reset"
	StagePreflight = "preflight"

	StageKindBuild   = "build"
	StageKindPackage = "package"

	buildPrefix   = StageKindBuild + ":"
	packagePrefix = StageKindPackage + ":"
)

// ProgressCallback is called to report progress during a run.
// The stage parameter is a stage name as returned by Stages.
type ProgressCallback func(stage string, status constants.StageProgressStatus)

// BuildStage returns the build stage name for target.
func BuildStage(target string) string {
	return buildPrefix + target
}

// PackageStage returns the package stage name for target.
func PackageStage(target string) string {
	return packagePrefix + target
}

// Stages returns the ordered stage names a run over targets goes through.
func Stages(targets []domain.Target) []string {
	stages := make([]string, 0, 2+2*len(targets))
	stages = append(stages, StageReset, StagePreflight)
	for _, t := range targets {
		stages = append(stages, BuildStage(t.Name))
	}
	for _, t := range targets {
		stages = append(stages, PackageStage(t.Name))
	}
	return stages
}

// SplitStage splits a stage name into its kind ("reset", "build", ...) and
// target, which is empty for fixed stages.
func SplitStage(stage string) (kind, target string) {
	kind, target, found := strings.Cut(stage, ":")
	if !found {
		return stage, ""
	}
	return kind, target
}
