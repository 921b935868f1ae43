// Package manifest implements the repo-level catalog of tracked blobs:
// dvs.lock, the one file a surrounding source-control system versions.
package manifest

import (
	"encoding/json"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/oid"
)

// CurrentVersion is the schema version written by this package.
const CurrentVersion = 1

// Compression names the codec applied to a manifest entry's stored bytes.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
	CompressionLZ4  Compression = "lz4"
)

// Entry is one tracked (path -> OID) catalog row.
type Entry struct {
	Path        string
	OID         oid.OID
	Bytes       uint64
	Compression Compression // "" behaves as CompressionNone
	Remote      string      // "" behaves as "origin"
}

// EffectiveCompression returns the entry's compression, defaulting to
// CompressionNone.
func (e Entry) EffectiveCompression() Compression {
	if e.Compression == "" {
		return CompressionNone
	}
	return e.Compression
}

// EffectiveRemote returns the entry's remote name, defaulting to "origin".
func (e Entry) EffectiveRemote() string {
	if e.Remote == "" {
		return "origin"
	}
	return e.Remote
}

// Manifest is the repo's tracked-blob catalog. Entries preserve insertion
// order for deterministic serialization.
type Manifest struct {
	Version int
	BaseURL string // "" means no remote configured
	entries []Entry
	byPath  map[string]int // path -> index into entries
}

// New returns an empty manifest at CurrentVersion.
func New() *Manifest {
	return &Manifest{Version: CurrentVersion, byPath: make(map[string]int)}
}

// WithBaseURL sets the manifest's base URL and returns it for chaining.
func (m *Manifest) WithBaseURL(url string) *Manifest {
	m.BaseURL = url
	return m
}

// Upsert inserts e or replaces the existing entry with the same path.
func (m *Manifest) Upsert(e Entry) {
	if i, ok := m.byPath[e.Path]; ok {
		m.entries[i] = e
		return
	}
	m.byPath[e.Path] = len(m.entries)
	m.entries = append(m.entries, e)
}

// Remove deletes the entry for path, if any.
func (m *Manifest) Remove(path string) {
	i, ok := m.byPath[path]
	if !ok {
		return
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.byPath, path)
	for p, idx := range m.byPath {
		if idx > i {
			m.byPath[p] = idx - 1
		}
	}
}

// Get returns the entry for path, if any.
func (m *Manifest) Get(path string) (Entry, bool) {
	i, ok := m.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Entries returns the manifest's entries in insertion order. The returned
// slice must not be mutated by the caller.
func (m *Manifest) Entries() []Entry {
	return m.entries
}

// Len returns the number of tracked entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// IsEmpty reports whether the manifest has no entries.
func (m *Manifest) IsEmpty() bool {
	return len(m.entries) == 0
}

// UniqueOIDs returns the distinct OIDs referenced by the manifest.
func (m *Manifest) UniqueOIDs() []oid.OID {
	seen := make(map[string]bool, len(m.entries))
	var out []oid.OID
	for _, e := range m.entries {
		key := e.OID.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e.OID)
	}
	return out
}

// ByPath returns a path -> entry view of the manifest.
func (m *Manifest) ByPath() map[string]Entry {
	out := make(map[string]Entry, len(m.entries))
	for _, e := range m.entries {
		out[e.Path] = e
	}
	return out
}

// ByOID groups entries by the OID they reference.
func (m *Manifest) ByOID() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, e := range m.entries {
		key := e.OID.String()
		out[key] = append(out[key], e)
	}
	return out
}

// Merge upserts every entry of other into m (replacing by path) and
// adopts other's base URL when m has none set.
func (m *Manifest) Merge(other *Manifest) {
	for _, e := range other.entries {
		m.Upsert(e)
	}
	if m.BaseURL == "" {
		m.BaseURL = other.BaseURL
	}
}

// Clone returns a deep copy of m.
func (m *Manifest) Clone() *Manifest {
	cp := New()
	cp.Version = m.Version
	cp.BaseURL = m.BaseURL
	for _, e := range m.entries {
		cp.Upsert(e)
	}
	return cp
}

// wireEntry and wireManifest define the on-disk dvs.lock JSON shape.
type wireEntry struct {
	Path        string `json:"path"`
	OID         string `json:"oid"`
	Bytes       uint64 `json:"bytes"`
	Compression string `json:"compression,omitempty"`
	Remote      string `json:"remote,omitempty"`
}

type wireManifest struct {
	Version int         `json:"version"`
	BaseURL string      `json:"base_url,omitempty"`
	Entries []wireEntry `json:"entries"`
}

// MarshalJSON renders the manifest in the pretty-printed, deterministic
// dvs.lock form.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	w := wireManifest{Version: m.Version, BaseURL: m.BaseURL, Entries: make([]wireEntry, len(m.entries))}
	for i, e := range m.entries {
		we := wireEntry{Path: e.Path, OID: e.OID.String(), Bytes: e.Bytes}
		if e.EffectiveCompression() != CompressionNone {
			we.Compression = string(e.Compression)
		}
		if e.EffectiveRemote() != "origin" {
			we.Remote = e.Remote
		}
		w.Entries[i] = we
	}
	return json.MarshalIndent(w, "", "  ")
}

// UnmarshalJSON parses the dvs.lock form into m.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var w wireManifest
	if err := json.Unmarshal(data, &w); err != nil {
		return dvserr.Wrap(dvserr.JSONError, "parsing manifest", err)
	}
	m.Version = w.Version
	m.BaseURL = w.BaseURL
	m.entries = nil
	m.byPath = make(map[string]int)
	for _, we := range w.Entries {
		o, err := oid.Parse(we.OID)
		if err != nil {
			return dvserr.Wrap(dvserr.ConfigError, "parsing manifest entry oid", err).WithPath(we.Path)
		}
		m.Upsert(Entry{
			Path:        we.Path,
			OID:         o,
			Bytes:       we.Bytes,
			Compression: Compression(we.Compression),
			Remote:      we.Remote,
		})
	}
	return nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m := New()
	if err := m.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes m to path atomically as pretty-printed JSON.
func (m *Manifest) Save(path string) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return dvserr.Wrap(dvserr.JSONError, "serializing manifest", err).WithPath(path)
	}
	if err := atomicfile.WriteBytes(path, data, 0o644); err != nil {
		return dvserr.Wrap(dvserr.IOError, "writing manifest", err).WithPath(path)
	}
	return nil
}
