// Package pointer implements the per-file pointer record: a small sidecar
// file beside a tracked working-tree file, carrying its digest and
// provenance.
package pointer

import (
	"strings"
	"time"

	"github.com/a2-ai/dvs/oid"
)

// Record is the content of one pointer-record sidecar file.
type Record struct {
	// DigestHex is the hex digest of the tracked file's bytes. The field
	// name is kept as blake3_checksum on the wire for back-compat even
	// when Algo names a different algorithm.
	DigestHex string
	Size      uint64
	AddTime   time.Time
	Message   string
	SavedBy   string
	// Algo is the hash algorithm the digest was computed under. The zero
	// value means BLAKE3 (legacy files omit the field entirely).
	Algo oid.Algorithm
	// Compression names the codec applied to the tracked file's bytes at
	// rest in the object store ("none|zstd|gzip|lz4"). The zero value
	// means uncompressed.
	Compression string
}

// EffectiveAlgo returns Algo, defaulting to BLAKE3 when unset.
func (r *Record) EffectiveAlgo() oid.Algorithm {
	if r.Algo == "" {
		return oid.BLAKE3
	}
	return r.Algo
}

// Format names a pointer-record serialization.
type Format int

const (
	// Unknown marks the absence of an existing sidecar file.
	Unknown Format = iota
	JSON
	TOML
)

// Suffix returns the sidecar file suffix for f ("" for Unknown).
func (f Format) Suffix() string {
	switch f {
	case JSON:
		return ".dvs"
	case TOML:
		return ".dvs.toml"
	default:
		return ""
	}
}

// MetadataPathFor returns the sidecar path for a tracked data file under
// the given format.
func MetadataPathFor(dataPath string, format Format) string {
	return dataPath + format.Suffix()
}

// DataPathFor returns the tracked data path a sidecar path describes, and
// the format it was found in.
func DataPathFor(metaPath string) (string, Format, bool) {
	if strings.HasSuffix(metaPath, ".dvs.toml") {
		return strings.TrimSuffix(metaPath, ".dvs.toml"), TOML, true
	}
	if strings.HasSuffix(metaPath, ".dvs") {
		return strings.TrimSuffix(metaPath, ".dvs"), JSON, true
	}
	return "", Unknown, false
}
