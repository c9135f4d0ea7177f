package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/larmbs/relpack/internal/archive"
	"github.com/larmbs/relpack/internal/config"
	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
	"github.com/larmbs/relpack/internal/pack"
	"github.com/larmbs/relpack/internal/tui"
)

// VerifyResult is the outcome of checking one target's archive.
type VerifyResult struct {
	Target  string                 `json:"target"`
	Archive string                 `json:"archive"`
	OK      bool                   `json:"ok"`
	Members []domain.ArchiveMember `json:"members,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// AddVerifyCommand adds the verify subcommand.
func AddVerifyCommand(root *cobra.Command, flags *GlobalFlags, d *deps) {
	cmd := &cobra.Command{
		Use:   "verify [target...]",
		Short: "Check packaged archives against their sources",
		Long: `Open <output>/<target>/<target>.zip for every target and check that it
holds exactly the binary and version.txt under relative names, and that both
match the files they were packaged from. Name targets to check only those.

Examples:
  relpack verify          # check every archive
  relpack verify server   # check build/server/server.zip only
  relpack verify -o json  # machine-readable results`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), flags, d, args)
		},
	}
	root.AddCommand(cmd)
}

func runVerify(ctx context.Context, flags *GlobalFlags, d *deps, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := newSession(ctx, flags, d, nil)
	if err != nil {
		return err
	}

	targets, err := selectTargets(s.cfg, names)
	if err != nil {
		return err
	}

	results := make([]VerifyResult, 0, len(targets))
	failed := 0
	for _, t := range targets {
		res := verifyTarget(s, t)
		if !res.OK {
			failed++
			s.logger.Warn().Str("target", t.Name).Str("reason", res.Error).Msg("archive failed verification")
		}
		results = append(results, res)
	}

	if flags.Output == OutputJSON {
		if err := s.out.JSON(results); err != nil {
			return err
		}
	} else {
		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, verifyRow(s, r))
		}
		s.out.Table([]string{"TARGET", "ARCHIVE", "MEMBERS", "STATUS"}, rows)
	}

	if failed > 0 {
		return errors.Wrapf(errors.ErrArchiveMismatch, "%d of %d archives failed verification", failed, len(results))
	}
	s.out.Success(fmt.Sprintf("Verified %d archives in %s", len(results), s.displayPath(s.outputDir)))
	return nil
}

// selectTargets returns the named targets in the order given, or every
// configured target when names is empty.
func selectTargets(cfg *config.Config, names []string) ([]domain.Target, error) {
	if len(names) == 0 {
		return cfg.Targets, nil
	}
	targets := make([]domain.Target, 0, len(names))
	for _, name := range names {
		t, ok := cfg.Target(name)
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownTarget, "%s (configured: %s)", name, strings.Join(cfg.TargetNames(), ", "))
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func verifyRow(s *session, r VerifyResult) []string {
	names := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		names = append(names, m.Name)
	}
	status := tui.FormatTargetStatus(constants.TargetStatusPackaged)
	if !r.OK {
		status = tui.FormatTargetStatus(constants.TargetStatusFailed) + ": " + r.Error
	}
	return []string{r.Target, s.displayPath(r.Archive), strings.Join(names, ", "), status}
}

// verifyTarget checks one archive. The version marker is required unless the
// policy is warn and the source marker is absent.
func verifyTarget(s *session, t domain.Target) VerifyResult {
	res := VerifyResult{Target: t.Name, Archive: t.ArchivePath(s.outputDir)}

	members, err := archive.Inspect(res.Archive)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Members = members

	versionSrc := domain.ResolvePath(s.projectDir, t.VersionFile)
	var versionData []byte
	present, err := pack.VersionMarkerPresent(versionSrc)
	switch {
	case err != nil:
		res.Error = fmt.Sprintf("%s: %v", errors.ErrVersionMarkerMissing, err)
		return res
	case present:
		if versionData, err = os.ReadFile(versionSrc); err != nil { //nolint:gosec // path from project config
			res.Error = fmt.Sprintf("%s: %v", errors.ErrVersionMarkerMissing, err)
			return res
		}
	case s.cfg.Version.Missing != constants.MissingVersionWarn:
		res.Error = fmt.Sprintf("%s: %s", errors.ErrVersionMarkerMissing, versionSrc)
		return res
	}

	want := []string{t.BinaryName()}
	if versionData != nil {
		want = append(want, constants.VersionFileName)
	}
	if err := archive.ExpectMembers(members, want...); err != nil {
		res.Error = err.Error()
		return res
	}

	if versionData != nil {
		if err := matchDigest(members, constants.VersionFileName, archive.Digest(versionData)); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	// The build output may be gone after a clean; only compare when present.
	if binData, err := os.ReadFile(domain.ResolvePath(s.projectDir, t.Binary)); err == nil { //nolint:gosec // path from project config
		if err := matchDigest(members, t.BinaryName(), archive.Digest(binData)); err != nil {
			res.Error = err.Error()
			return res
		}
	}

	res.OK = true
	return res
}

func matchDigest(members []domain.ArchiveMember, name, digest string) error {
	for _, m := range members {
		if m.Name == name {
			if m.SHA256 != digest {
				return errors.Wrapf(errors.ErrArchiveMismatch, "%s differs from its source", name)
			}
			return nil
		}
	}
	return errors.Wrapf(errors.ErrArchiveMismatch, "%s not in archive", name)
}
