// Package layout implements the fixed on-disk directory conventions under
// a repo's state folder (.dvs/).
package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/a2-ai/dvs/oid"
)

// Layout is a value type: every method derives a path from Root, nothing
// is cached or held open.
type Layout struct {
	Root string // repo root
}

// New returns the layout rooted at repoRoot.
func New(repoRoot string) Layout {
	return Layout{Root: repoRoot}
}

// StateDir is the layout's top-level directory, ".dvs".
func (l Layout) StateDir() string {
	return filepath.Join(l.Root, ".dvs")
}

// ManifestPath is the repo-root dvs.lock file.
func (l Layout) ManifestPath() string {
	return filepath.Join(l.Root, "dvs.lock")
}

// ConfigPath is .dvs/config.toml.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.StateDir(), "config.toml")
}

// CacheDir is .dvs/cache/objects.
func (l Layout) CacheDir() string {
	return filepath.Join(l.StateDir(), "cache", "objects")
}

// CachePath returns the cache path for o.
func (l Layout) CachePath(o oid.OID) string {
	return filepath.Join(l.CacheDir(), o.StoragePath())
}

// SnapshotsDir is .dvs/state/snapshots.
func (l Layout) SnapshotsDir() string {
	return filepath.Join(l.StateDir(), "state", "snapshots")
}

// SnapshotPath returns the snapshot file path for state id.
func (l Layout) SnapshotPath(id string) string {
	return filepath.Join(l.SnapshotsDir(), id+".json")
}

// MaterializedPath is .dvs/state/materialized.json.
func (l Layout) MaterializedPath() string {
	return filepath.Join(l.StateDir(), "state", "materialized.json")
}

// HeadPath is .dvs/refs/HEAD.
func (l Layout) HeadPath() string {
	return filepath.Join(l.StateDir(), "refs", "HEAD")
}

// ReflogPath is .dvs/logs/refs/HEAD.
func (l Layout) ReflogPath() string {
	return filepath.Join(l.StateDir(), "logs", "refs", "HEAD")
}

// AuditLogPath is .dvs/logs/audit.jsonl.
func (l Layout) AuditLogPath() string {
	return filepath.Join(l.StateDir(), "logs", "audit.jsonl")
}

// LocksDir is .dvs/locks.
func (l Layout) LocksDir() string {
	return filepath.Join(l.StateDir(), "locks")
}

// LockPath returns the advisory lock file path for name.
func (l Layout) LockPath(name string) string {
	return filepath.Join(l.LocksDir(), name+".lock")
}

// Init creates every directory this layout's components need.
func (l Layout) Init() error {
	dirs := []string{
		l.CacheDir(),
		l.SnapshotsDir(),
		filepath.Dir(l.HeadPath()),
		filepath.Dir(l.ReflogPath()),
		filepath.Dir(l.AuditLogPath()),
		l.LocksDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o777); err != nil {
			return err
		}
	}
	return nil
}

// IsCached reports whether o's bytes are present in the local cache.
func (l Layout) IsCached(o oid.OID) bool {
	_, err := os.Stat(l.CachePath(o))
	return err == nil
}

// CachedOIDs walks the cache directory and reconstructs every valid OID it
// finds. Entries whose fan-out directory or hex segment don't validate
// for any known algorithm are silently skipped.
func (l Layout) CachedOIDs() ([]oid.OID, error) {
	var out []oid.OID
	root := l.CacheDir()
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		algo := oid.Algorithm(parts[0])
		hex := parts[1] + parts[2]
		o, err := oid.New(algo, hex)
		if err != nil {
			return nil
		}
		out = append(out, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
