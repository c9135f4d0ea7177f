// Package archive produces and inspects the per-target zip archives.
//
// Two archivers are available. External runs a configured archiving utility
// (zip by default) inside the package directory, so member paths are relative
// to it. Builtin writes the zip in-process from a go-billy filesystem chrooted
// at the package directory, which makes absolute member paths impossible.
package archive

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/larmbs/relpack/internal/errors"
)

// Archiver packs the named members of a package directory into one archive.
type Archiver interface {
	// Archive writes archivePath containing members, each a path relative to
	// packageDir. archivePath must be inside packageDir.
	Archive(ctx context.Context, packageDir, archivePath string, members []string) error

	// Mode returns the archive.mode name the archiver implements.
	Mode() string
}

// relativeArchive returns archivePath relative to packageDir, rejecting paths
// that leave it.
func relativeArchive(packageDir, archivePath string) (string, error) {
	rel, err := filepath.Rel(packageDir, archivePath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrArchiveFailed, "archive %s: %v", archivePath, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(errors.ErrArchiveFailed,
			"archive %s is not inside package directory %s", archivePath, packageDir)
	}
	return rel, nil
}

// normalizeMembers validates and sorts member names, dropping duplicates.
func normalizeMembers(members []string, archiveRel string) ([]string, error) {
	out := make([]string, 0, len(members))
	for _, m := range members {
		if err := CheckMemberName(filepath.ToSlash(m)); err != nil {
			return nil, err
		}
		if filepath.Clean(m) == filepath.Clean(archiveRel) {
			continue
		}
		out = append(out, filepath.ToSlash(filepath.Clean(m)))
	}
	if len(out) == 0 {
		return nil, errors.Wrap(errors.ErrArchiveFailed, "no members to archive")
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// CheckMemberName rejects member names that would escape the extraction
// directory: absolute paths, drive letters, and any ".." element.
func CheckMemberName(name string) error {
	switch {
	case name == "":
		return errors.Wrap(errors.ErrUnsafeArchiveMember, "empty member name")
	case strings.HasPrefix(name, "/"), strings.HasPrefix(name, `\`):
		return errors.Wrapf(errors.ErrUnsafeArchiveMember, "absolute member name %q", name)
	case len(name) >= 2 && name[1] == ':':
		return errors.Wrapf(errors.ErrUnsafeArchiveMember, "member name %q has a drive letter", name)
	}
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return errors.Wrapf(errors.ErrUnsafeArchiveMember, "member name %q leaves the archive root", name)
		}
	}
	return nil
}
