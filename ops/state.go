package ops

import (
	"os"
	"path/filepath"

	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/layout"
	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/pointer"
	"github.com/a2-ai/dvs/snapshot"
)

// skipDirs names directories the tracked-file scan never descends into:
// the state directory and the common source-control metadata directory.
var skipDirs = map[string]bool{
	".dvs": true,
	".git": true,
}

// scanTrackedFiles walks root and returns every pointer record found,
// keyed by its repo-relative data path. Malformed sidecars are skipped
// rather than failing the whole scan, matching the reflog/audit readers'
// best-effort tolerance elsewhere in the core.
func scanTrackedFiles(root string) ([]snapshot.MetadataEntry, error) {
	var out []snapshot.MetadataEntry
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		dataPath, format, ok := pointer.DataPathFor(path)
		if !ok {
			return nil
		}
		rec, _, err := pointer.Load(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(root, dataPath)
		if err != nil {
			return nil
		}
		out = append(out, snapshot.MetadataEntry{
			Path:   filepath.ToSlash(rel),
			Record: *rec,
			Format: format,
		})
		return nil
	})
	if err != nil {
		return nil, dvserr.Wrap(dvserr.IOError, "scanning tracked files", err).WithPath(root)
	}
	return out, nil
}

// captureState builds the current workspace state for a repo rooted at
// root: every tracked pointer record plus the repo manifest, if any.
func captureState(root string, l layout.Layout) (*snapshot.State, error) {
	entries, err := scanTrackedFiles(root)
	if err != nil {
		return nil, err
	}
	s := &snapshot.State{Entries: entries}

	if _, err := os.Stat(l.ManifestPath()); err == nil {
		m, err := manifest.Load(l.ManifestPath())
		if err != nil {
			return nil, err
		}
		s.Manifest = m
	}
	return s, nil
}
