// Package backend adapts the core to a surrounding version-control
// checkout: locating the repository root and answering whether a path is
// ignored. The marker and ignore-rule source are implementation choices;
// this package picks a git checkout (or a standalone ".dvs/" directory)
// as the marker and a .gitignore file (parsed with go-gitignore) as the
// ignore-rule source.
package backend

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/a2-ai/dvs/internal/dvserr"
)

// Backend locates a repository root and evaluates ignore rules against
// working-tree paths relative to it.
type Backend struct {
	root    string
	ignorer *gitignore.GitIgnore // nil if no .gitignore present
}

// markers are checked, in order, at each ancestor directory while
// searching upward for the repository root.
var markers = []string{".git", ".dvs"}

// Discover searches upward from start for a repository root, recognizing
// either a ".git" or a standalone ".dvs" directory as the marker.
func Discover(start string) (*Backend, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, dvserr.Wrap(dvserr.IOError, "resolving start path", err).WithPath(start)
	}

	dir := abs
	for {
		for _, marker := range markers {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return newBackend(dir)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, dvserr.New(dvserr.NotInGitRepo, "no repository root found above").WithPath(start)
		}
		dir = parent
	}
}

func newBackend(root string) (*Backend, error) {
	b := &Backend{root: root}
	ignoreFile := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(ignoreFile); err == nil {
		ig, err := gitignore.CompileIgnoreFile(ignoreFile)
		if err != nil {
			return nil, dvserr.Wrap(dvserr.GitError, "parsing .gitignore", err).WithPath(ignoreFile)
		}
		b.ignorer = ig
	}
	return b, nil
}

// Root returns the repository root.
func (b *Backend) Root() string {
	return b.root
}

// IsIgnored reports whether path (relative to Root, or absolute under
// it) is ignored. The state directory itself is always ignored.
func (b *Backend) IsIgnored(path string) (bool, error) {
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(b.root, path)
		if err != nil {
			return false, dvserr.Wrap(dvserr.FileOutsideRepo, "resolving relative path", err).WithPath(path)
		}
		rel = r
	}
	rel = filepath.ToSlash(rel)

	if rel == ".dvs" || strings.HasPrefix(rel, ".dvs/") {
		return true, nil
	}
	if b.ignorer == nil {
		return false, nil
	}
	return b.ignorer.MatchesPath(rel), nil
}
