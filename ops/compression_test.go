package ops

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/a2-ai/dvs/config"
	"github.com/a2-ai/dvs/layout"
	"github.com/a2-ai/dvs/manifest"
)

func TestAddWithCompressionStoresEncodedBytes(t *testing.T) {
	repo, root := newTestRepo(t)
	content := []byte("a,b,c\n1,2,3\n1,2,3\n1,2,3\n1,2,3\n")
	writeTestFile(t, root, "data.csv", content)

	ctx := context.Background()
	results, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Actor: "alice", Compression: manifest.CompressionGzip})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	added := results[0]
	if added.Err != nil {
		t.Fatalf("unexpected error: %v", added.Err)
	}

	stored, err := os.ReadFile(repo.Layout.CachePath(added.OID))
	if err != nil {
		t.Fatalf("reading stored object: %v", err)
	}
	if bytes.Equal(stored, content) {
		t.Fatal("expected stored bytes to be gzip-compressed, got raw content")
	}

	summary, err := Verify(ctx, repo, []string{"data.csv"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if summary.Failed != 0 {
		t.Fatalf("expected verify to pass a compressed object, got %+v", summary.Results)
	}

	m := manifest.New()
	m.Upsert(manifest.Entry{Path: "data.csv", OID: added.OID, Bytes: added.Size, Compression: manifest.CompressionGzip})

	if err := os.Remove(filepath.Join(root, "data.csv")); err != nil {
		t.Fatalf("removing working file: %v", err)
	}

	matSummary, err := Materialize(ctx, repo, m, nil)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if matSummary.Materialized != 1 || matSummary.Failed != 0 {
		t.Fatalf("unexpected materialize summary: %+v", matSummary)
	}

	got, err := os.ReadFile(filepath.Join(root, "data.csv"))
	if err != nil {
		t.Fatalf("reading materialized file: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Fatalf("materialized content mismatch: got %q want %q", got, content)
	}
}

func TestOpenAppliesConfiguredFileMode(t *testing.T) {
	root := t.TempDir()
	l := layout.New(root)
	if err := l.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg := config.Default()
	cfg.Permissions.FileMode = "0600"
	repo := Open(&fakeBackend{root: root, ignored: map[string]bool{}}, cfg)

	writeTestFile(t, root, "data.csv", []byte("x"))
	ctx := context.Background()
	results, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Actor: "alice"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	info, err := os.Stat(repo.Layout.CachePath(results[0].OID))
	if err != nil {
		t.Fatalf("stat stored object: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %o", info.Mode().Perm())
	}
}
