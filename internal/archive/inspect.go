package archive

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

// Inspect opens the zip at path and lists its members sorted by name, with a
// sha256 of each member's content. Unsafe member names fail with
// ErrUnsafeArchiveMember.
func Inspect(path string) ([]domain.ArchiveMember, error) {
	// Insecure names are reported below with the offending member.
	r, err := zip.OpenReader(path)
	if err != nil && !stderrors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("open zip archive %s: %w", path, err)
	}
	defer r.Close() //nolint:errcheck // zip reader close

	members := make([]domain.ArchiveMember, 0, len(r.File))
	for _, f := range r.File {
		if err := CheckMemberName(f.Name); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		sum, err := memberDigest(f)
		if err != nil {
			return nil, err
		}
		members = append(members, domain.ArchiveMember{
			Name:   f.Name,
			Size:   f.UncompressedSize64,
			Mode:   f.Mode().String(),
			SHA256: sum,
		})
	}

	slices.SortFunc(members, func(a, b domain.ArchiveMember) int {
		return strings.Compare(a.Name, b.Name)
	})
	return members, nil
}

// memberDigest returns the hex sha256 of a member's uncompressed content.
func memberDigest(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer rc.Close() //nolint:errcheck // zip member close

	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil { //nolint:gosec // archives are our own release output
		return "", fmt.Errorf("read member %s: %w", f.Name, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ExpectMembers checks that members holds exactly the names in want.
func ExpectMembers(members []domain.ArchiveMember, want ...string) error {
	got := make([]string, 0, len(members))
	for _, m := range members {
		got = append(got, m.Name)
	}
	expected := slices.Clone(want)
	slices.Sort(expected)

	if !slices.Equal(got, expected) {
		return errors.Wrapf(errors.ErrArchiveMismatch,
			"members %v, want %v", got, expected)
	}
	return nil
}

// Digest returns the hex sha256 of data, comparable with ArchiveMember.SHA256.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
