package pipeline

import (
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/pack"
)

// MissingVersionMarkers returns the names of targets whose version marker is
// not a regular file under projectDir, in target order.
func MissingVersionMarkers(projectDir string, targets []domain.Target) []string {
	var missing []string
	for _, t := range targets {
		present, err := pack.VersionMarkerPresent(domain.ResolvePath(projectDir, t.VersionFile))
		if err != nil || !present {
			missing = append(missing, t.Name)
		}
	}
	return missing
}
