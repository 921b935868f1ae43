package pointer

import (
	"fmt"
	"os"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
)

// Load reads and parses the pointer record at metaPath, inferring the
// format from its extension.
func Load(metaPath string) (*Record, Format, error) {
	_, format, ok := DataPathFor(metaPath)
	if !ok {
		return nil, Unknown, dvserr.New(dvserr.MetadataNotFound, "unrecognized pointer-record extension").WithPath(metaPath)
	}
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, format, dvserr.Wrap(dvserr.MetadataNotFound, "pointer record not found", err).WithPath(metaPath)
		}
		return nil, format, dvserr.Wrap(dvserr.IOError, "reading pointer record", err).WithPath(metaPath)
	}

	var rec *Record
	switch format {
	case TOML:
		rec, err = unmarshalTOML(data)
	case JSON:
		rec, err = unmarshalJSON(data)
	}
	if err != nil {
		code := dvserr.JSONError
		if format == TOML {
			code = dvserr.TOMLError
		}
		return nil, format, dvserr.Wrap(code, "parsing pointer record", err).WithPath(metaPath)
	}
	return rec, format, nil
}

// FindExistingFormat reports which sidecar format (if any) already exists
// for dataPath. TOML wins when both exist.
func FindExistingFormat(dataPath string) Format {
	if _, err := os.Stat(MetadataPathFor(dataPath, TOML)); err == nil {
		return TOML
	}
	if _, err := os.Stat(MetadataPathFor(dataPath, JSON)); err == nil {
		return JSON
	}
	return Unknown
}

// LoadForData loads the pointer record for dataPath, trying TOML then
// JSON.
func LoadForData(dataPath string) (*Record, Format, error) {
	format := FindExistingFormat(dataPath)
	if format == Unknown {
		return nil, Unknown, dvserr.New(dvserr.MetadataNotFound, "no pointer record for data file").WithPath(dataPath)
	}
	return Load(MetadataPathFor(dataPath, format))
}

// Save writes r to metaPath atomically, in the format implied by its
// extension.
func Save(r *Record, metaPath string) error {
	_, format, ok := DataPathFor(metaPath)
	if !ok {
		return dvserr.New(dvserr.ConfigError, "unrecognized pointer-record extension").WithPath(metaPath)
	}

	var data []byte
	var err error
	switch format {
	case TOML:
		data, err = marshalTOML(r)
	case JSON:
		data, err = marshalJSON(r)
	}
	if err != nil {
		return dvserr.Wrap(dvserr.JSONError, "serializing pointer record", err).WithPath(metaPath)
	}

	if err := atomicfile.WriteBytes(metaPath, data, 0o644); err != nil {
		return dvserr.Wrap(dvserr.IOError, "writing pointer record", err).WithPath(metaPath)
	}
	return nil
}

// Remove deletes the sidecar at metaPath, tolerating its absence.
func Remove(metaPath string) error {
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("pointer: removing %s: %w", metaPath, err)
	}
	return nil
}
