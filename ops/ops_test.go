package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a2-ai/dvs/config"
	"github.com/a2-ai/dvs/layout"
)

// fakeBackend is a minimal Backend for tests: a fixed root, nothing ever
// ignored unless explicitly listed.
type fakeBackend struct {
	root    string
	ignored map[string]bool
}

func (b *fakeBackend) Root() string { return b.root }

func (b *fakeBackend) IsIgnored(path string) (bool, error) {
	return b.ignored[path], nil
}

// newTestRepo creates a temp repo root with an initialized layout and
// returns a ready-to-use *Repo plus the root path.
func newTestRepo(t *testing.T) (*Repo, string) {
	t.Helper()
	root := t.TempDir()
	l := layout.New(root)
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	repo := Open(&fakeBackend{root: root, ignored: map[string]bool{}}, config.Default())
	return repo, root
}

func writeTestFile(t *testing.T, root, rel string, contents []byte) string {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(abs, contents, 0o644); err != nil {
		t.Fatalf("writing %s: %v", abs, err)
	}
	return abs
}
