package pointer

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/a2-ai/dvs/oid"
	toml "github.com/pelletier/go-toml/v2"
)

// wireRecord is the serialized shape shared by both formats: hash_algo and
// message are omitted when they take their default value.
type wireRecord struct {
	DigestHex   string `json:"blake3_checksum" toml:"blake3_checksum"`
	Size        uint64 `json:"size" toml:"size"`
	AddTime     string `json:"add_time" toml:"add_time"`
	Message     string `json:"message,omitempty" toml:"message,omitempty"`
	SavedBy     string `json:"saved_by" toml:"saved_by"`
	HashAlgo    string `json:"hash_algo,omitempty" toml:"hash_algo,omitempty"`
	Compression string `json:"compression,omitempty" toml:"compression,omitempty"`
}

func toWire(r *Record) wireRecord {
	w := wireRecord{
		DigestHex:   r.DigestHex,
		Size:        r.Size,
		AddTime:     r.AddTime.UTC().Format(time.RFC3339),
		Message:     r.Message,
		SavedBy:     r.SavedBy,
		Compression: r.Compression,
	}
	if r.Algo != "" && r.Algo != oid.BLAKE3 {
		w.HashAlgo = string(r.Algo)
	}
	return w
}

func fromWire(w wireRecord) (*Record, error) {
	t, err := time.Parse(time.RFC3339, w.AddTime)
	if err != nil {
		return nil, err
	}
	algo := oid.BLAKE3
	if w.HashAlgo != "" {
		algo = oid.Algorithm(w.HashAlgo)
	}
	return &Record{
		DigestHex:   w.DigestHex,
		Size:        w.Size,
		AddTime:     t,
		Message:     w.Message,
		SavedBy:     w.SavedBy,
		Algo:        algo,
		Compression: w.Compression,
	}, nil
}

func marshalJSON(r *Record) ([]byte, error) {
	return json.MarshalIndent(toWire(r), "", "  ")
}

func unmarshalJSON(data []byte) (*Record, error) {
	var w wireRecord
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	return fromWire(w)
}

func marshalTOML(r *Record) ([]byte, error) {
	return toml.Marshal(toWire(r))
}

func unmarshalTOML(data []byte) (*Record, error) {
	var w wireRecord
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, err
	}
	return fromWire(w)
}
