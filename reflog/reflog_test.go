package reflog

import (
	"os"
	"testing"

	"github.com/a2-ai/dvs/layout"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	root := t.TempDir()
	l := layout.New(root)
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return New(l)
}

func TestReadHeadEmptyBeforeAnyUpdate(t *testing.T) {
	lg := newTestLog(t)
	id, err := lg.ReadHead()
	if err != nil {
		t.Fatalf("ReadHead: %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty HEAD, got %q", id)
	}
}

func TestRecordUpdatesHeadAndAppends(t *testing.T) {
	lg := newTestLog(t)

	if err := lg.Record("alice", OpAdd, "first", "", StateRef("s1"), []string{"data.csv"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	head, err := lg.ReadHead()
	if err != nil {
		t.Fatalf("ReadHead: %v", err)
	}
	if head != "s1" {
		t.Fatalf("ReadHead() = %q, want %q", head, "s1")
	}

	all, err := lg.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	if all[0].Op != OpAdd || all[0].New != StateRef("s1") {
		t.Fatalf("unexpected entry: %+v", all[0])
	}
}

func TestReadRecentOrdering(t *testing.T) {
	lg := newTestLog(t)
	lg.Record("alice", OpAdd, "", "", StateRef("s1"), nil)
	lg.Record("alice", OpAdd, "", StateRef("s1"), StateRef("s2"), nil)
	lg.Record("alice", OpAdd, "", StateRef("s2"), StateRef("s3"), nil)

	recent, err := lg.ReadRecent()
	if err != nil {
		t.Fatalf("ReadRecent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	if recent[0].New != StateRef("s3") {
		t.Fatalf("expected newest first, got %+v", recent[0])
	}

	e, err := lg.GetByIndex(1)
	if err != nil {
		t.Fatalf("GetByIndex(1): %v", err)
	}
	if e.New != StateRef("s2") {
		t.Fatalf("GetByIndex(1) = %+v, want new=%q", e, StateRef("s2"))
	}
}

func TestReadAllSkipsMalformedTrailingLine(t *testing.T) {
	lg := newTestLog(t)
	lg.Record("alice", OpAdd, "", "", StateRef("s1"), nil)

	f, err := os.OpenFile(lg.Layout.ReflogPath(), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening reflog: %v", err)
	}
	f.WriteString("{not valid json\n")
	f.Close()

	all, err := lg.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected malformed line to be skipped, got %d entries", len(all))
	}
}
