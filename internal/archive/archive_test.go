package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larmbs/relpack/internal/domain"
	"github.com/larmbs/relpack/internal/errors"
)

func testContext() context.Context {
	logger := zerolog.Nop()
	return logger.WithContext(context.Background())
}

// writeZipFile builds a zip at path with the given member names and contents.
func writeZipFile(t *testing.T, path string, members map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestCheckMemberName(t *testing.T) {
	valid := []string{"client", "version.txt", "bin/client", "./client"}
	for _, name := range valid {
		assert.NoError(t, CheckMemberName(name), name)
	}

	invalid := []string{"", "/etc/passwd", `\windows\system32`, "C:/client", "../client", "a/../../b", `..\x`}
	for _, name := range invalid {
		assert.ErrorIs(t, CheckMemberName(name), errors.ErrUnsafeArchiveMember, name)
	}
}

func TestRelativeArchive(t *testing.T) {
	pkg := filepath.Join(t.TempDir(), "client")

	rel, err := relativeArchive(pkg, filepath.Join(pkg, "client.zip"))
	require.NoError(t, err)
	assert.Equal(t, "client.zip", rel)

	_, err = relativeArchive(pkg, filepath.Join(filepath.Dir(pkg), "client.zip"))
	require.ErrorIs(t, err, errors.ErrArchiveFailed)

	_, err = relativeArchive(pkg, pkg)
	require.ErrorIs(t, err, errors.ErrArchiveFailed)
}

func TestNormalizeMembers(t *testing.T) {
	got, err := normalizeMembers([]string{"version.txt", "client", "client.zip", "client"}, "client.zip")
	require.NoError(t, err)
	assert.Equal(t, []string{"client", "version.txt"}, got, "sorted, deduplicated, archive excluded")

	_, err = normalizeMembers([]string{"client.zip"}, "client.zip")
	require.ErrorIs(t, err, errors.ErrArchiveFailed)

	_, err = normalizeMembers([]string{"../server"}, "client.zip")
	require.ErrorIs(t, err, errors.ErrUnsafeArchiveMember)
}

func TestInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.zip")
	writeZipFile(t, path, map[string]string{
		"version.txt": "1.4.2\n",
		"client":      "ELF",
	})

	members, err := Inspect(path)
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, "client", members[0].Name)
	assert.Equal(t, uint64(3), members[0].Size)
	assert.Equal(t, Digest([]byte("ELF")), members[0].SHA256)
	assert.Equal(t, "version.txt", members[1].Name)
	assert.Equal(t, Digest([]byte("1.4.2\n")), members[1].SHA256)
}

func TestInspect_RejectsUnsafeMembers(t *testing.T) {
	for _, name := range []string{"/abs/client", "../client"} {
		path := filepath.Join(t.TempDir(), "evil.zip")
		writeZipFile(t, path, map[string]string{name: "x"})

		_, err := Inspect(path)
		assert.ErrorIs(t, err, errors.ErrUnsafeArchiveMember, name)
	}
}

func TestInspect_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.zip")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := Inspect(path)
	require.Error(t, err)
}

func TestExpectMembers(t *testing.T) {
	members := []domain.ArchiveMember{{Name: "client"}, {Name: "version.txt"}}

	require.NoError(t, ExpectMembers(members, "version.txt", "client"))

	err := ExpectMembers(members, "client")
	require.ErrorIs(t, err, errors.ErrArchiveMismatch)

	err = ExpectMembers(members[:1], "client", "version.txt")
	require.ErrorIs(t, err, errors.ErrArchiveMismatch)
}
