package snapshot

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/layout"
	"github.com/a2-ai/dvs/oid"
)

// idAlgo is the algorithm used to derive a state's content-addressed id.
// It is independent of any given file's tracked hash algorithm.
const idAlgo = oid.BLAKE3

// Store persists workspace states under a layout's snapshots directory,
// content-addressed by a digest of their canonical encoding.
type Store struct {
	Layout layout.Layout
}

// NewStore returns a snapshot store rooted at l.
func NewStore(l layout.Layout) *Store {
	return &Store{Layout: l}
}

// ComputeID derives s's content-addressed id from its canonical encoding.
func ComputeID(s *State) (string, error) {
	data, err := s.canonicalJSON()
	if err != nil {
		return "", fmt.Errorf("snapshot: encoding state: %w", err)
	}
	return oid.DigestBytes(data, idAlgo)
}

// Save computes s's id and writes it if not already present. A successful
// Save guarantees a subsequent Load(id) returns an equal state.
func (st *Store) Save(s *State) (string, error) {
	id, err := ComputeID(s)
	if err != nil {
		return "", err
	}
	path := st.Layout.SnapshotPath(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}
	data, err := s.canonicalJSON()
	if err != nil {
		return "", fmt.Errorf("snapshot: encoding state: %w", err)
	}
	if err := atomicfile.WriteBytes(path, data, 0o644); err != nil {
		return "", dvserr.Wrap(dvserr.IOError, "writing snapshot", err).WithPath(path)
	}
	return id, nil
}

// Load reads and parses the state stored under id.
func (st *Store) Load(id string) (*State, error) {
	path := st.Layout.SnapshotPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dvserr.New(dvserr.NotFound, "snapshot not found").WithPath(path)
		}
		return nil, dvserr.Wrap(dvserr.IOError, "reading snapshot", err).WithPath(path)
	}
	s, err := fromCanonicalJSON(data)
	if err != nil {
		return nil, dvserr.Wrap(dvserr.JSONError, "parsing snapshot", err).WithPath(path)
	}
	return s, nil
}

// Exists reports whether a snapshot for id has been saved.
func (st *Store) Exists(id string) bool {
	_, err := os.Stat(st.Layout.SnapshotPath(id))
	return err == nil
}

// List returns every snapshot id present, sorted.
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.Layout.SnapshotsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dvserr.Wrap(dvserr.IOError, "listing snapshots", err).WithPath(st.Layout.SnapshotsDir())
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".json") {
			ids = append(ids, strings.TrimSuffix(name, ".json"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// FindByPrefix resolves a (possibly abbreviated) id prefix to a full
// snapshot id. An empty or ambiguous prefix is an error.
func (st *Store) FindByPrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", dvserr.New(dvserr.NotFound, "empty snapshot prefix")
	}
	ids, err := st.List()
	if err != nil {
		return "", err
	}
	var matches []string
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", dvserr.New(dvserr.NotFound, "no snapshot matches prefix").WithPath(prefix)
	case 1:
		return matches[0], nil
	default:
		return "", dvserr.New(dvserr.NotFound, fmt.Sprintf("ambiguous snapshot prefix %q matches %d snapshots", prefix, len(matches))).WithPath(prefix)
	}
}
