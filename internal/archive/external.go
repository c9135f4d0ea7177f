package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/larmbs/relpack/internal/command"
	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/errors"
)

// External archives by running an external utility in the package directory.
type External struct {
	executor *command.Executor
	argv     []string
}

// NewExternal returns an archiver running argv through executor. argv may use
// the {archive} and {files} placeholders.
func NewExternal(executor *command.Executor, argv []string) *External {
	return &External{executor: executor, argv: argv}
}

// Mode implements Archiver.
func (e *External) Mode() string {
	return constants.ArchiveModeExternal
}

// Archive implements Archiver.
// A failing utility yields ErrArchiveFailed carrying its exit status.
func (e *External) Archive(ctx context.Context, packageDir, archivePath string, members []string) error {
	archiveRel, err := relativeArchive(packageDir, archivePath)
	if err != nil {
		return err
	}
	files, err := normalizeMembers(members, archiveRel)
	if err != nil {
		return err
	}

	// zip appends to an existing archive, so start from nothing.
	if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove stale %s: %w", errors.ErrArchiveFailed, archivePath, err)
	}

	argv := command.Expand(e.argv, command.Vars{
		Archive: archiveRel,
		Files:   files,
	})

	zerolog.Ctx(ctx).Debug().
		Str("archive", archivePath).
		Strs("members", files).
		Msg("running external archiver")

	if _, err := e.executor.Run(ctx, argv, packageDir); err != nil {
		return fmt.Errorf("%w: %s: %w", errors.ErrArchiveFailed, archivePath, err)
	}

	if _, err := os.Stat(archivePath); err != nil {
		return fmt.Errorf("%w: archiver exited 0 but %s is missing", errors.ErrArchiveFailed, archivePath)
	}
	return nil
}

var _ Archiver = (*External)(nil)
