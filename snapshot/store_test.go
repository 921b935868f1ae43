package snapshot

import (
	"testing"
	"time"

	"github.com/a2-ai/dvs/layout"
	"github.com/a2-ai/dvs/pointer"
)

func TestSaveIsIdempotent(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	st := NewStore(l)

	s := sampleState()
	id1, err := st.Save(s)
	if err != nil {
		t.Fatalf("first Save: %v", err)
	}
	id2, err := st.Save(s)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected identical ids, got %q and %q", id1, id2)
	}

	ids, err := st.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected exactly one snapshot on disk, got %d", len(ids))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	l.Init()
	st := NewStore(l)

	s := sampleState()
	id, err := st.Save(s)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !st.Exists(id) {
		t.Fatal("expected Exists true after Save")
	}

	got, err := st.Load(id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Equal(got) {
		t.Fatal("loaded state differs from saved state")
	}
}

func TestFindByPrefixAmbiguous(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	l.Init()
	st := NewStore(l)

	s1 := &State{Entries: []MetadataEntry{{
		Path:   "a.txt",
		Record: pointer.Record{DigestHex: "aa", Size: 1, AddTime: time.Now().UTC(), SavedBy: "alice"},
		Format: pointer.JSON,
	}}}
	s2 := &State{Entries: []MetadataEntry{{
		Path:   "b.txt",
		Record: pointer.Record{DigestHex: "bb", Size: 2, AddTime: time.Now().UTC(), SavedBy: "alice"},
		Format: pointer.JSON,
	}}}

	id1, err := st.Save(s1)
	if err != nil {
		t.Fatalf("Save s1: %v", err)
	}
	id2, err := st.Save(s2)
	if err != nil {
		t.Fatalf("Save s2: %v", err)
	}

	if _, err := st.FindByPrefix(id1); err != nil {
		t.Fatalf("FindByPrefix(id1): %v", err)
	}
	if _, err := st.FindByPrefix(id2); err != nil {
		t.Fatalf("FindByPrefix(id2): %v", err)
	}
	if _, err := st.FindByPrefix(""); err == nil {
		t.Fatal("expected empty prefix to be ambiguous")
	}
}
