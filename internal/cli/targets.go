package cli

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/tui"
)

// versionMissing is shown when a target has no version marker.
const versionMissing = "missing"

// TargetInfo describes one configured target for "relpack targets".
type TargetInfo struct {
	domain.Target

	Version    string     `json:"version"`
	Archive    string     `json:"archive"`
	PackagedAt *time.Time `json:"packaged_at,omitempty"`
}

// AddTargetsCommand adds the targets subcommand.
func AddTargetsCommand(root *cobra.Command, flags *GlobalFlags, d *deps) {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List configured build targets",
		Long: `Show every target relpack builds, in build order, with its binary path,
the contents of its version marker, and when it was last packaged.

Examples:
  relpack targets          # table
  relpack targets -o json  # JSON array`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTargets(cmd.Context(), flags, d)
		},
	}
	root.AddCommand(cmd)
}

func runTargets(ctx context.Context, flags *GlobalFlags, d *deps) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := newSession(ctx, flags, d, nil)
	if err != nil {
		return err
	}

	infos := make([]TargetInfo, 0, len(s.cfg.Targets))
	for _, t := range s.cfg.Targets {
		infos = append(infos, describeTarget(s, t))
	}

	if flags.Output == OutputJSON {
		return s.out.JSON(infos)
	}

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		packaged := "not packaged"
		if info.PackagedAt != nil {
			packaged = tui.RelativeTime(*info.PackagedAt)
		}
		rows = append(rows, []string{info.Name, info.Binary, info.Version, packaged})
	}
	s.out.Table([]string{"TARGET", "BINARY", "VERSION", "PACKAGED"}, rows)
	return nil
}

func describeTarget(s *session, t domain.Target) TargetInfo {
	info := TargetInfo{
		Target:  t,
		Version: versionMissing,
		Archive: t.ArchivePath(s.outputDir),
	}

	if data, err := os.ReadFile(domain.ResolvePath(s.projectDir, t.VersionFile)); err == nil { //nolint:gosec // path from project config
		info.Version = strings.TrimSpace(string(data))
	}

	if st, err := os.Stat(info.Archive); err == nil {
		mod := st.ModTime()
		info.PackagedAt = &mod
	}
	return info
}
