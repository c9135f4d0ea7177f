package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/larmbs/relpack/internal/command"
	"github.com/larmbs/relpack/internal/domain"
)

// fakeToolchain stands in for cargo. "--bin <name>" writes
// target/release/<name> under the work dir unless name is in fail.
type fakeToolchain struct {
	mu    sync.Mutex
	calls [][]string
	envs  [][]string
	fail  map[string]int
}

func (f *fakeToolchain) runner(env []string) command.Runner {
	f.mu.Lock()
	f.envs = append(f.envs, env)
	f.mu.Unlock()
	return fakeRunner{f}
}

func (f *fakeToolchain) built() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, argv := range f.calls {
		if i := slices.Index(argv, "--bin"); i >= 0 && i+1 < len(argv) {
			names = append(names, argv[i+1])
		}
	}
	return names
}

type fakeRunner struct{ f *fakeToolchain }

func (r fakeRunner) Run(_ context.Context, workDir string, argv []string) (string, string, int, error) {
	r.f.mu.Lock()
	r.f.calls = append(r.f.calls, argv)
	r.f.mu.Unlock()

	i := slices.Index(argv, "--bin")
	if i < 0 || i+1 >= len(argv) {
		return "", "unexpected command", 1, fmt.Errorf("unexpected command %v", argv)
	}
	name := argv[i+1]
	if code, ok := r.f.fail[name]; ok {
		return "", "error: could not compile `" + name + "`", code, fmt.Errorf("exit status %d", code)
	}

	bin := filepath.Join(workDir, filepath.FromSlash(domain.DefaultTarget(name).Binary))
	if err := os.MkdirAll(filepath.Dir(bin), 0o750); err != nil {
		return "", err.Error(), 1, err
	}
	if err := os.WriteFile(bin, []byte("binary "+name), 0o600); err != nil {
		return "", err.Error(), 1, err
	}
	return "Finished release", "", 0, nil
}

// testEnv is a project directory with the default layout plus captured output.
type testEnv struct {
	projectDir string
	toolchain  *fakeToolchain
	stdout     *bytes.Buffer
	stderr     *bytes.Buffer
	logs       *bytes.Buffer
	deps       *deps
}

// newTestEnv creates client, server and launcher source dirs with version
// markers. It sets RELPACK_HOME, so callers must not run in parallel.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	t.Setenv("RELPACK_HOME", t.TempDir())
	projectDir := t.TempDir()
	for _, name := range []string{"client", "server", "launcher"} {
		writeFile(t, filepath.Join(projectDir, name, "version.txt"), "1.4.2\n")
	}

	env := &testEnv{
		projectDir: projectDir,
		toolchain:  &fakeToolchain{fail: map[string]int{}},
		stdout:     new(bytes.Buffer),
		stderr:     new(bytes.Buffer),
		logs:       new(bytes.Buffer),
	}
	env.deps = &deps{
		newRunner: env.toolchain.runner,
		stdout:    env.stdout,
		stderr:    env.stderr,
		logOut:    env.logs,
		isTTY:     func(io.Writer) bool { return false },
	}
	return env
}

// run executes relpack against the project with the builtin archiver.
func (e *testEnv) run(t *testing.T, args ...string) error {
	t.Helper()
	full := append([]string{"-C", e.projectDir}, args...)
	return execute(context.Background(), BuildInfo{Version: "test"}, e.deps, full)
}

func (e *testEnv) path(parts ...string) string {
	return filepath.Join(append([]string{e.projectDir}, parts...)...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// decodeJSONStream decodes every JSON document written to out, in order.
func decodeJSONStream(t *testing.T, out string) []json.RawMessage {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(out))
	var docs []json.RawMessage
	for dec.More() {
		var doc json.RawMessage
		require.NoError(t, dec.Decode(&doc))
		docs = append(docs, doc)
	}
	return docs
}
