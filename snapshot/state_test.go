package snapshot

import (
	"testing"
	"time"

	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/pointer"
)

func sampleState() *State {
	return &State{
		Entries: []MetadataEntry{
			{
				Path: "data.csv",
				Record: pointer.Record{
					DigestHex: "deadbeef",
					Size:      14,
					AddTime:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
					SavedBy:   "alice",
				},
				Format: pointer.JSON,
			},
		},
	}
}

func TestCanonicalJSONDeterministic(t *testing.T) {
	s1 := sampleState()
	s2 := sampleState()

	a, err := s1.canonicalJSON()
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	b, err := s2.canonicalJSON()
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected identical encodings, got\n%s\nvs\n%s", a, b)
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := sampleState()
	s.Manifest = manifest.New()
	s.Manifest.Upsert(manifest.Entry{
		Path:  "data.csv",
		OID:   mustOID(t, "deadbeef"),
		Bytes: 14,
	})

	data, err := s.canonicalJSON()
	if err != nil {
		t.Fatalf("canonicalJSON: %v", err)
	}
	got, err := fromCanonicalJSON(data)
	if err != nil {
		t.Fatalf("fromCanonicalJSON: %v", err)
	}
	if !s.Equal(got) {
		t.Fatal("round trip produced a different state")
	}
}

func mustOID(t *testing.T, hex string) oid.OID {
	t.Helper()
	full := hex + "0000000000000000000000000000000000000000000000000000"
	o, err := oid.New(oid.BLAKE3, full[:64])
	if err != nil {
		t.Fatalf("building oid: %v", err)
	}
	return o
}
