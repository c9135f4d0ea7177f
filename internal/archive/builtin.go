package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/errors"
)

// FSFactory returns a filesystem rooted at dir.
type FSFactory func(dir string) (billy.Filesystem, error)

// OSFS is the FSFactory backed by the host filesystem.
func OSFS(dir string) (billy.Filesystem, error) {
	return osfs.New(dir), nil
}

// ChrootFS returns an FSFactory that chroots root at each requested dir.
func ChrootFS(root billy.Filesystem) FSFactory {
	return func(dir string) (billy.Filesystem, error) {
		return root.Chroot(dir)
	}
}

// Builtin writes zip archives in-process.
type Builtin struct {
	open FSFactory
}

// NewBuiltin returns a Builtin archiver on the host filesystem.
func NewBuiltin() *Builtin {
	return NewBuiltinFS(OSFS)
}

// NewBuiltinFS returns a Builtin archiver reading and writing through open.
func NewBuiltinFS(open FSFactory) *Builtin {
	return &Builtin{open: open}
}

// Mode implements Archiver.
func (b *Builtin) Mode() string {
	return constants.ArchiveModeBuiltin
}

// Archive implements Archiver. Members are written in sorted order, deflated,
// with their file modes.
func (b *Builtin) Archive(ctx context.Context, packageDir, archivePath string, members []string) error {
	archiveRel, err := relativeArchive(packageDir, archivePath)
	if err != nil {
		return err
	}
	files, err := normalizeMembers(members, archiveRel)
	if err != nil {
		return err
	}

	fsys, err := b.open(packageDir)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", errors.ErrArchiveFailed, packageDir, err)
	}

	out, err := fsys.OpenFile(archiveRel, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", errors.ErrArchiveFailed, archivePath, err)
	}

	if err := writeZip(ctx, fsys, out, files); err != nil {
		_ = out.Close()
		return fmt.Errorf("%w: %s: %w", errors.ErrArchiveFailed, archivePath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", errors.ErrArchiveFailed, archivePath, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("archive", archivePath).
		Strs("members", files).
		Msg("archive written")
	return nil
}

// writeZip streams members from fsys into w.
func writeZip(ctx context.Context, fsys billy.Filesystem, w io.Writer, members []string) error {
	zw := zip.NewWriter(w)

	for _, name := range members {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		if err := addMember(zw, fsys, name); err != nil {
			_ = zw.Close()
			return err
		}
	}

	return zw.Close()
}

// addMember copies one file from fsys into zw.
func addMember(zw *zip.Writer, fsys billy.Filesystem, name string) error {
	info, err := fsys.Stat(name)
	if err != nil {
		return fmt.Errorf("stat member %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("member %s is not a regular file", name)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", name, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add member %s: %w", name, err)
	}

	src, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open member %s: %w", name, err)
	}
	defer src.Close() //nolint:errcheck // read-only member

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write member %s: %w", name, err)
	}
	return nil
}

var _ Archiver = (*Builtin)(nil)
