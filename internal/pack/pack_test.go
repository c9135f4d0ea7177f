package pack

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larmbs/relpack/internal/archive"
	"github.com/larmbs/relpack/internal/constants"
	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

// project lays out a cargo-style workspace with built binaries.
func project(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(root, name, "version.txt"), []byte(name+"-1.2.3\n"), 0o600))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "target", "release"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(root, "target", "release", name), []byte("bin:"+name), 0o755)) //nolint:gosec // executable fixture
	}
	return root
}

// failingArchiver records calls and fails with err.
type failingArchiver struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *failingArchiver) Archive(context.Context, string, string, []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *failingArchiver) Mode() string { return "fake" }

func TestPackage_StagesAndArchives(t *testing.T) {
	root := project(t, "client")
	out := filepath.Join(root, "build")
	p := New(root, out, archive.NewBuiltin())

	res, err := p.Package(testContext(), domain.DefaultTarget("client"))
	require.NoError(t, err)

	pkgDir := filepath.Join(out, "client")
	assert.Equal(t, pkgDir, res.PackageDir)
	assert.Equal(t, filepath.Join(pkgDir, "client.zip"), res.ArchivePath)
	assert.Equal(t, filepath.Join(pkgDir, "client"), res.BinaryPath)
	assert.Equal(t, []string{"client", "version.txt"}, res.Members)
	assert.True(t, res.VersionPackaged)

	entries, err := os.ReadDir(pkgDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"client", "version.txt", "client.zip"}, names)

	members, err := archive.Inspect(res.ArchivePath)
	require.NoError(t, err)
	require.NoError(t, archive.ExpectMembers(members, "client", "version.txt"))
	assert.Equal(t, archive.Digest([]byte("bin:client")), members[0].SHA256)
}

func TestPackage_VersionCopiedVerbatim(t *testing.T) {
	root := project(t, "server")
	marker := []byte("  0.9.0-rc.1\r\n\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "server", "version.txt"), marker, 0o600))
	out := filepath.Join(root, "build")

	_, err := New(root, out, archive.NewBuiltin()).Package(testContext(), domain.DefaultTarget("server"))
	require.NoError(t, err)

	staged, err := os.ReadFile(filepath.Join(out, "server", "version.txt")) // #nosec G304 -- test temp dir
	require.NoError(t, err)
	assert.Equal(t, marker, staged)

	members, err := archive.Inspect(filepath.Join(out, "server", "server.zip"))
	require.NoError(t, err)
	assert.Equal(t, archive.Digest(marker), members[1].SHA256)
}

func TestPackage_PreservesExecutableMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not tracked on windows")
	}
	root := project(t, "launcher")
	out := filepath.Join(root, "build")

	res, err := New(root, out, archive.NewBuiltin()).Package(testContext(), domain.DefaultTarget("launcher"))
	require.NoError(t, err)

	info, err := os.Stat(res.BinaryPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestPackage_Idempotent(t *testing.T) {
	root := project(t, "client")
	out := filepath.Join(root, "build")
	p := New(root, out, archive.NewBuiltin())

	_, err := p.Package(testContext(), domain.DefaultTarget("client"))
	require.NoError(t, err)
	res, err := p.Package(testContext(), domain.DefaultTarget("client"))
	require.NoError(t, err)

	members, err := archive.Inspect(res.ArchivePath)
	require.NoError(t, err)
	require.NoError(t, archive.ExpectMembers(members, "client", "version.txt"))
}

func TestPackage_MissingBinary(t *testing.T) {
	root := project(t, "client")
	require.NoError(t, os.Remove(filepath.Join(root, "target", "release", "client")))
	arch := &failingArchiver{}

	_, err := New(root, filepath.Join(root, "build"), arch).Package(testContext(), domain.DefaultTarget("client"))
	require.ErrorIs(t, err, errors.ErrCopyFailed)
	assert.Zero(t, arch.calls, "nothing is archived without a binary")
}

func TestPackage_MissingVersionFailsByDefault(t *testing.T) {
	root := project(t, "client")
	require.NoError(t, os.Remove(filepath.Join(root, "client", "version.txt")))
	arch := &failingArchiver{}

	_, err := New(root, filepath.Join(root, "build"), arch).Package(testContext(), domain.DefaultTarget("client"))
	require.ErrorIs(t, err, errors.ErrVersionMarkerMissing)
	assert.Zero(t, arch.calls)
}

func TestPackage_MissingVersionWarnPackagesBinaryAlone(t *testing.T) {
	root := project(t, "client")
	require.NoError(t, os.Remove(filepath.Join(root, "client", "version.txt")))
	out := filepath.Join(root, "build")

	p := New(root, out, archive.NewBuiltin(), WithMissingVersionPolicy(constants.MissingVersionWarn))
	res, err := p.Package(testContext(), domain.DefaultTarget("client"))
	require.NoError(t, err)

	assert.False(t, res.VersionPackaged)
	assert.Equal(t, []string{"client"}, res.Members)
	assert.NoFileExists(t, filepath.Join(out, "client", "version.txt"))
}

func TestPackage_VersionMarkerDirectoryIsMissing(t *testing.T) {
	tests := []struct {
		name   string
		policy string
	}{
		{name: "fail policy", policy: constants.MissingVersionFail},
		{name: "warn policy", policy: constants.MissingVersionWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := project(t, "server")
			marker := filepath.Join(root, "server", "version.txt")
			require.NoError(t, os.Remove(marker))
			require.NoError(t, os.MkdirAll(marker, 0o750))
			require.NoError(t, os.WriteFile(filepath.Join(marker, "junk"), []byte("junk"), 0o600))
			out := filepath.Join(root, "build")

			p := New(root, out, archive.NewBuiltin(), WithMissingVersionPolicy(tt.policy))
			res, err := p.Package(testContext(), domain.DefaultTarget("server"))

			if tt.policy == constants.MissingVersionFail {
				require.ErrorIs(t, err, errors.ErrVersionMarkerMissing)
				return
			}
			require.NoError(t, err)
			assert.False(t, res.VersionPackaged)
			assert.Equal(t, []string{"server"}, res.Members)
			assert.NoDirExists(t, filepath.Join(out, "server", "version.txt"))

			members, err := archive.Inspect(res.ArchivePath)
			require.NoError(t, err)
			require.NoError(t, archive.ExpectMembers(members, "server"))
		})
	}
}

func TestVersionMarkerPresent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "version.txt")
	require.NoError(t, os.WriteFile(file, []byte("1.0.0\n"), 0o600))

	present, err := VersionMarkerPresent(file)
	require.NoError(t, err)
	assert.True(t, present)

	present, err = VersionMarkerPresent(dir)
	require.NoError(t, err)
	assert.False(t, present)

	present, err = VersionMarkerPresent(filepath.Join(dir, "absent.txt"))
	require.NoError(t, err)
	assert.False(t, present)
}

func TestPackage_ArchiveFailureLeavesStagedFiles(t *testing.T) {
	root := project(t, "server")
	out := filepath.Join(root, "build")
	arch := &failingArchiver{err: errors.NewExitCodeError("zip", 15, errors.ErrArchiveFailed)}

	_, err := New(root, out, arch).Package(testContext(), domain.DefaultTarget("server"))
	require.ErrorIs(t, err, errors.ErrArchiveFailed)

	code, ok := errors.ExitCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, 15, code)
	assert.FileExists(t, filepath.Join(out, "server", "server"))
	assert.FileExists(t, filepath.Join(out, "server", "version.txt"))
}

func TestPackage_CustomLayout(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dist", "bin"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dist", "bin", "game-server"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "VERSION"), []byte("7\n"), 0o600))
	out := filepath.Join(root, "build")

	target := domain.Target{
		Name:        "server",
		Binary:      "dist/bin/game-server",
		VersionFile: "VERSION",
	}
	res, err := New(root, out, archive.NewBuiltin()).Package(testContext(), target)
	require.NoError(t, err)

	assert.Equal(t, []string{"game-server", "version.txt"}, res.Members)
	assert.Equal(t, filepath.Join(out, "server", "server.zip"), res.ArchivePath)
}

func TestPackage_CanceledBeforeArchive(t *testing.T) {
	root := project(t, "client")
	arch := &failingArchiver{}
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := New(root, filepath.Join(root, "build"), arch).Package(ctx, domain.DefaultTarget("client"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, arch.calls)
}
