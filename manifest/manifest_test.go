package manifest

import (
	"path/filepath"
	"testing"

	"github.com/a2-ai/dvs/oid"
)

func mustOID(t *testing.T, s string) oid.OID {
	t.Helper()
	o, err := oid.Parse(s)
	if err != nil {
		t.Fatalf("oid.Parse(%q): %v", s, err)
	}
	return o
}

func TestUpsertAndRemove(t *testing.T) {
	m := New()
	a := mustOID(t, "blake3:"+repeat('a', 64))
	b := mustOID(t, "blake3:"+repeat('b', 64))

	m.Upsert(Entry{Path: "a.csv", OID: a, Bytes: 10})
	m.Upsert(Entry{Path: "b.csv", OID: b, Bytes: 20})
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	// upsert replaces by path, not append
	m.Upsert(Entry{Path: "a.csv", OID: b, Bytes: 99})
	if m.Len() != 2 {
		t.Fatalf("Len() after replace = %d, want 2", m.Len())
	}
	got, ok := m.Get("a.csv")
	if !ok || got.Bytes != 99 {
		t.Fatalf("Get(a.csv) = %+v, ok=%v, want Bytes=99", got, ok)
	}

	m.Remove("a.csv")
	if _, ok := m.Get("a.csv"); ok {
		t.Fatal("a.csv should be removed")
	}
	if m.Len() != 1 {
		t.Fatalf("Len() after remove = %d, want 1", m.Len())
	}
}

func TestMergeAdoptsBaseURLOnlyWhenUnset(t *testing.T) {
	dst := New()
	src := New().WithBaseURL("https://example.test")
	o := mustOID(t, "blake3:"+repeat('a', 64))
	src.Upsert(Entry{Path: "x.csv", OID: o, Bytes: 1})

	dst.Merge(src)
	if dst.BaseURL != "https://example.test" {
		t.Fatalf("BaseURL = %q, want adopted from src", dst.BaseURL)
	}
	if _, ok := dst.Get("x.csv"); !ok {
		t.Fatal("expected merged entry x.csv")
	}

	other := New().WithBaseURL("https://should-not-win.test")
	dst.Merge(other)
	if dst.BaseURL != "https://example.test" {
		t.Fatalf("BaseURL should not change once set, got %q", dst.BaseURL)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := New().WithBaseURL("https://example.test")
	m.Upsert(Entry{
		Path:        "data.csv",
		OID:         mustOID(t, "blake3:"+repeat('a', 64)),
		Bytes:       14,
		Compression: CompressionZstd,
		Remote:      "mirror",
	})
	m.Upsert(Entry{
		Path:  "plain.csv",
		OID:   mustOID(t, "sha256:"+repeat('b', 64)),
		Bytes: 7,
	})

	path := filepath.Join(t.TempDir(), "dvs.lock")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 2 || got.BaseURL != m.BaseURL {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	e, ok := got.Get("plain.csv")
	if !ok || e.EffectiveCompression() != CompressionNone || e.EffectiveRemote() != "origin" {
		t.Fatalf("defaulted entry mismatch: %+v", e)
	}
}

func repeat(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}
