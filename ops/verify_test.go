package ops

import (
	"context"
	"os"
	"strings"
	"testing"
)

func TestVerifyAfterAddIsOK(t *testing.T) {
	repo, root := newTestRepo(t)
	writeTestFile(t, root, "data.csv", []byte("a,b,c\n1,2,3\n"))

	ctx := context.Background()
	if _, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Actor: "alice"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	summary, err := Verify(ctx, repo, []string{"data.csv"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if summary.Failed != 0 || summary.Passed != 1 {
		t.Fatalf("expected all checks to pass, got %+v", summary.Results)
	}
}

func TestVerifyDetectsStorageCorruption(t *testing.T) {
	repo, root := newTestRepo(t)
	writeTestFile(t, root, "data.csv", []byte("a,b,c\n1,2,3\n"))

	ctx := context.Background()
	results, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Actor: "alice"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	cachePath := repo.Layout.CachePath(results[0].OID)
	if err := os.WriteFile(cachePath, []byte("CORRUPTED"), 0o644); err != nil {
		t.Fatalf("corrupting storage object: %v", err)
	}

	summary, err := Verify(ctx, repo, []string{"data.csv"})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("expected 1 failure, got %+v", summary.Results)
	}
	r := summary.Results[0]
	if !r.LocalOK || r.StorageOK || !r.MetadataOK || r.OK {
		t.Fatalf("unexpected result: %+v", r)
	}
	if !strings.Contains(r.Details, "storage file corrupted") {
		t.Fatalf("expected corruption detail, got %q", r.Details)
	}
}
