package ops

import (
	"context"
	"testing"

	"github.com/a2-ai/dvs/oid"
)

func TestAddSingleFile(t *testing.T) {
	repo, root := newTestRepo(t)
	writeTestFile(t, root, "data.csv", []byte("a,b,c\n1,2,3\n"))

	results, err := Add(context.Background(), repo, []string{"data.csv"}, AddOptions{Message: "first", Actor: "alice"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if r.Outcome != Copied {
		t.Fatalf("expected Copied, got %v", r.Outcome)
	}
	if r.Size != 12 {
		t.Fatalf("expected size 12, got %d", r.Size)
	}

	wantHex, err := oid.DigestBytes([]byte("a,b,c\n1,2,3\n"), oid.BLAKE3)
	if err != nil {
		t.Fatalf("DigestBytes: %v", err)
	}
	if r.OID.Hex != wantHex {
		t.Fatalf("digest mismatch: got %s want %s", r.OID.Hex, wantHex)
	}

	has, err := repo.Cache.Has(context.Background(), r.OID)
	if err != nil {
		t.Fatalf("Has: %v", err)
	}
	if !has {
		t.Fatal("expected object to be present in cache after add")
	}
}

func TestAddUnchangedFileIsPresent(t *testing.T) {
	repo, root := newTestRepo(t)
	writeTestFile(t, root, "data.csv", []byte("a,b,c\n1,2,3\n"))

	ctx := context.Background()
	if _, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Actor: "alice"}); err != nil {
		t.Fatalf("first Add: %v", err)
	}

	results, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Actor: "alice"})
	if err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if results[0].Outcome != Present {
		t.Fatalf("expected Present, got %v", results[0].Outcome)
	}
}

func TestAddNoFilesMatchedIsError(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := Add(context.Background(), repo, []string{"nope-*.csv"}, AddOptions{Actor: "alice"}); err == nil {
		t.Fatal("expected no_files_matched error")
	}
}
