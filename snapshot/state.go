// Package snapshot implements the workspace-state snapshot store: a
// content-addressed, immutable record of the pointer records (and
// optionally the manifest) tracked at a point in time.
package snapshot

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/pointer"
)

// MetadataEntry is one tracked file's pointer record as captured into a
// state, alongside the sidecar format it was stored in.
type MetadataEntry struct {
	Path   string
	Record pointer.Record
	Format pointer.Format
}

// State is a frozen view of the workspace: every tracked file's pointer
// record, and optionally the repo manifest (captured so rollback can
// restore it).
type State struct {
	Manifest *manifest.Manifest // nil if none captured
	Entries  []MetadataEntry
}

// New returns an empty state.
func New() *State {
	return &State{}
}

// wireEntry and wireState mirror pointer.wireRecord's field names so a
// state's canonical encoding is stable across processes and platforms.
type wireEntry struct {
	Path        string `json:"path"`
	DigestHex   string `json:"blake3_checksum"`
	Size        uint64 `json:"size"`
	AddTime     string `json:"add_time"`
	Message     string `json:"message,omitempty"`
	SavedBy     string `json:"saved_by"`
	HashAlgo    string `json:"hash_algo,omitempty"`
	Compression string `json:"compression,omitempty"`
	Format      string `json:"format"`
}

type wireState struct {
	Manifest json.RawMessage `json:"manifest,omitempty"`
	Entries  []wireEntry     `json:"entries"`
}

func formatTag(f pointer.Format) string {
	switch f {
	case pointer.TOML:
		return "toml"
	case pointer.JSON:
		return "json"
	default:
		return ""
	}
}

func formatFromTag(tag string) pointer.Format {
	switch tag {
	case "toml":
		return pointer.TOML
	case "json":
		return pointer.JSON
	default:
		return pointer.Unknown
	}
}

// canonicalJSON renders s the same way every time: entries in their given
// order, no whitespace, so that equal states produce equal bytes.
func (s *State) canonicalJSON() ([]byte, error) {
	w := wireState{Entries: make([]wireEntry, len(s.Entries))}
	for i, e := range s.Entries {
		we := wireEntry{
			Path:        e.Path,
			DigestHex:   e.Record.DigestHex,
			Size:        e.Record.Size,
			AddTime:     e.Record.AddTime.UTC().Format(time.RFC3339),
			Message:     e.Record.Message,
			SavedBy:     e.Record.SavedBy,
			Compression: e.Record.Compression,
			Format:      formatTag(e.Format),
		}
		if e.Record.Algo != "" && e.Record.Algo != oid.BLAKE3 {
			we.HashAlgo = string(e.Record.Algo)
		}
		w.Entries[i] = we
	}
	if s.Manifest != nil {
		mdata, err := s.Manifest.MarshalJSON()
		if err != nil {
			return nil, err
		}
		// Compact the indented manifest encoding to keep the enclosing
		// document compact and stable.
		var compact bytes.Buffer
		if err := json.Compact(&compact, mdata); err != nil {
			return nil, err
		}
		w.Manifest = compact.Bytes()
	}
	return json.Marshal(w)
}

// fromCanonicalJSON parses the bytes written by canonicalJSON.
func fromCanonicalJSON(data []byte) (*State, error) {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	s := &State{Entries: make([]MetadataEntry, len(w.Entries))}
	for i, we := range w.Entries {
		t, err := time.Parse(time.RFC3339, we.AddTime)
		if err != nil {
			return nil, err
		}
		algo := oid.BLAKE3
		if we.HashAlgo != "" {
			algo = oid.Algorithm(we.HashAlgo)
		}
		s.Entries[i] = MetadataEntry{
			Path: we.Path,
			Record: pointer.Record{
				DigestHex:   we.DigestHex,
				Size:        we.Size,
				AddTime:     t,
				Message:     we.Message,
				SavedBy:     we.SavedBy,
				Algo:        algo,
				Compression: we.Compression,
			},
			Format: formatFromTag(we.Format),
		}
	}
	if len(w.Manifest) > 0 {
		m := manifest.New()
		if err := m.UnmarshalJSON(w.Manifest); err != nil {
			return nil, err
		}
		s.Manifest = m
	}
	return s, nil
}

// ByPath returns the entry recorded for path, if any.
func (s *State) ByPath(path string) (MetadataEntry, bool) {
	for _, e := range s.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return MetadataEntry{}, false
}

// Equal reports whether s and other serialize identically.
func (s *State) Equal(other *State) bool {
	a, errA := s.canonicalJSON()
	b, errB := other.canonicalJSON()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}
