package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/reflog"
	"github.com/a2-ai/dvs/snapshot"
)

// TestScenariosAThroughF runs the six literal fixtures end to end against
// one working tree, in the order the data actually depends on: add, add
// again unchanged, materialize after delete, verify after corruption,
// merge-repo into a second repo, then rollback by index.
func TestScenariosAThroughF(t *testing.T) {
	ctx := context.Background()
	repo, root := newTestRepo(t)
	rl := reflog.New(repo.Layout)
	snapStore := snapshot.NewStore(repo.Layout)
	m := manifest.New()

	content := []byte("a,b,c\n1,2,3\n")
	writeTestFile(t, root, "data.csv", content)

	// Scenario A: add a single text file.
	addResults, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Message: "first", Actor: "alice"})
	if err != nil {
		t.Fatalf("scenario A: Add: %v", err)
	}
	if len(addResults) != 1 || addResults[0].Outcome != Copied {
		t.Fatalf("scenario A: expected a single Copied result, got %+v", addResults)
	}
	if addResults[0].Size != uint64(len(content)) {
		t.Fatalf("scenario A: size = %d, want %d", addResults[0].Size, len(content))
	}
	wantHex, err := oid.DigestBytes(content, oid.BLAKE3)
	if err != nil {
		t.Fatalf("scenario A: DigestBytes: %v", err)
	}
	if addResults[0].OID.Hex != wantHex {
		t.Fatalf("scenario A: digest mismatch: got %s want %s", addResults[0].OID.Hex, wantHex)
	}
	if _, err := os.Stat(filepath.Join(root, "data.csv.dvs")); err != nil {
		t.Fatalf("scenario A: expected data.csv.dvs to exist: %v", err)
	}
	if _, err := os.Stat(repo.Layout.CachePath(addResults[0].OID)); err != nil {
		t.Fatalf("scenario A: expected storage object to exist: %v", err)
	}
	m.Upsert(manifest.Entry{Path: "data.csv", OID: addResults[0].OID, Bytes: addResults[0].Size})

	stateA, err := captureState(root, repo.Layout)
	if err != nil {
		t.Fatalf("scenario A: captureState: %v", err)
	}
	idA, err := snapStore.Save(stateA)
	if err != nil {
		t.Fatalf("scenario A: saving snapshot: %v", err)
	}
	if err := rl.Record("alice", reflog.OpAdd, "first", "", reflog.StateRef(idA), []string{"data.csv"}); err != nil {
		t.Fatalf("scenario A: recording reflog: %v", err)
	}

	addVerify, err := Verify(ctx, repo, []string{"data.csv"})
	if err != nil {
		t.Fatalf("scenario A: Verify: %v", err)
	}
	if addVerify.Failed != 0 {
		t.Fatalf("scenario A: expected verify to pass, got %+v", addVerify.Results)
	}

	// Scenario B: add the same unchanged file again.
	addAgain, err := Add(ctx, repo, []string{"data.csv"}, AddOptions{Actor: "alice"})
	if err != nil {
		t.Fatalf("scenario B: Add: %v", err)
	}
	if addAgain[0].Outcome != Present {
		t.Fatalf("scenario B: expected Present, got %v", addAgain[0].Outcome)
	}
	cacheInfoBefore, err := os.Stat(repo.Layout.CachePath(addResults[0].OID))
	if err != nil {
		t.Fatalf("scenario B: stat storage object: %v", err)
	}

	// Scenario C: materialize after delete.
	if err := os.Remove(filepath.Join(root, "data.csv")); err != nil {
		t.Fatalf("scenario C: removing working file: %v", err)
	}
	matSummary, err := Materialize(ctx, repo, m, nil)
	if err != nil {
		t.Fatalf("scenario C: Materialize: %v", err)
	}
	if matSummary.Materialized != 1 || matSummary.UpToDate != 0 || matSummary.Failed != 0 {
		t.Fatalf("scenario C: unexpected summary: %+v", matSummary)
	}
	restored, err := os.ReadFile(filepath.Join(root, "data.csv"))
	if err != nil {
		t.Fatalf("scenario C: reading materialized file: %v", err)
	}
	if string(restored) != string(content) {
		t.Fatalf("scenario C: unexpected contents: %q", restored)
	}
	matState, err := loadMaterializedState(repo.Layout.MaterializedPath())
	if err != nil {
		t.Fatalf("scenario C: loadMaterializedState: %v", err)
	}
	if entry, ok := matState.get("data.csv"); !ok || !entry.OID.Equal(addResults[0].OID) {
		t.Fatalf("scenario C: expected materialized-state entry for data.csv with the added OID")
	}
	cacheInfoAfter, err := os.Stat(repo.Layout.CachePath(addResults[0].OID))
	if err != nil {
		t.Fatalf("scenario C: stat storage object: %v", err)
	}
	if cacheInfoBefore.ModTime() != cacheInfoAfter.ModTime() {
		t.Fatalf("scenario B/C: expected storage object to be untouched across the unchanged add")
	}

	// Scenario D: verify detects storage corruption.
	if err := os.WriteFile(repo.Layout.CachePath(addResults[0].OID), []byte("CORRUPTED"), 0o644); err != nil {
		t.Fatalf("scenario D: corrupting storage object: %v", err)
	}
	corruptSummary, err := Verify(ctx, repo, []string{"data.csv"})
	if err != nil {
		t.Fatalf("scenario D: Verify: %v", err)
	}
	if corruptSummary.Failed != 1 {
		t.Fatalf("scenario D: expected 1 failure, got %+v", corruptSummary.Results)
	}
	dres := corruptSummary.Results[0]
	if !dres.LocalOK || dres.StorageOK || !dres.MetadataOK || dres.OK {
		t.Fatalf("scenario D: unexpected result: %+v", dres)
	}
	if !strings.Contains(dres.Details, "storage file corrupted") {
		t.Fatalf("scenario D: expected corruption detail, got %q", dres.Details)
	}
	// Restore the object so later scenarios (E, F) see a healthy cache.
	if err := os.WriteFile(repo.Layout.CachePath(addResults[0].OID), content, 0o644); err != nil {
		t.Fatalf("scenario D: restoring storage object: %v", err)
	}

	// Scenario E: merge-repo with conflict Abort.
	dstRepo, dstRoot := newTestRepo(t)
	writeTestFile(t, dstRoot, "data.csv", []byte("different bytes entirely"))
	dstResults, err := Add(ctx, dstRepo, []string{"data.csv"}, AddOptions{Actor: "bob"})
	if err != nil {
		t.Fatalf("scenario E: dst Add: %v", err)
	}
	dstManifest := manifest.New()
	dstManifest.Upsert(manifest.Entry{Path: "data.csv", OID: dstResults[0].OID, Bytes: dstResults[0].Size})
	if err := dstManifest.Save(dstRepo.Layout.ManifestPath()); err != nil {
		t.Fatalf("scenario E: saving dst manifest: %v", err)
	}
	dstManifestBefore, err := os.ReadFile(dstRepo.Layout.ManifestPath())
	if err != nil {
		t.Fatalf("scenario E: reading dst manifest: %v", err)
	}

	_, err = MergeRepo(ctx, root, dstRepo, MergeOptions{ConflictMode: Abort, Actor: "bob"})
	if err == nil {
		t.Fatal("scenario E: expected merge_conflict error")
	}
	if !strings.Contains(err.Error(), "data.csv") {
		t.Fatalf("scenario E: expected error to mention data.csv, got %v", err)
	}
	dstManifestAfter, err := os.ReadFile(dstRepo.Layout.ManifestPath())
	if err != nil {
		t.Fatalf("scenario E: reading dst manifest after merge: %v", err)
	}
	if string(dstManifestBefore) != string(dstManifestAfter) {
		t.Fatal("scenario E: expected destination manifest to be unchanged on Abort conflict")
	}

	// Scenario F: rollback by index.
	writeTestFile(t, root, "b.txt", []byte("bbb"))
	bResults, err := Add(ctx, repo, []string{"b.txt"}, AddOptions{Actor: "alice"})
	if err != nil {
		t.Fatalf("scenario F: Add b.txt: %v", err)
	}
	m.Upsert(manifest.Entry{Path: "b.txt", OID: bResults[0].OID, Bytes: bResults[0].Size})
	stateB, err := captureState(root, repo.Layout)
	if err != nil {
		t.Fatalf("scenario F: captureState after b: %v", err)
	}
	idB, err := snapStore.Save(stateB)
	if err != nil {
		t.Fatalf("scenario F: saving snapshot after b: %v", err)
	}
	if err := rl.Record("alice", reflog.OpAdd, "", reflog.StateRef(idA), reflog.StateRef(idB), []string{"b.txt"}); err != nil {
		t.Fatalf("scenario F: recording reflog after b: %v", err)
	}

	rbResult, err := Rollback(ctx, repo, RollbackTarget{Kind: TargetIndex, Index: 1}, RollbackOptions{Force: true, Actor: "alice"})
	if err != nil {
		t.Fatalf("scenario F: Rollback: %v", err)
	}
	if rbResult.NewState != idA {
		t.Fatalf("scenario F: NewState = %q, want %q", rbResult.NewState, idA)
	}
	head, err := rl.ReadHead()
	if err != nil {
		t.Fatalf("scenario F: ReadHead: %v", err)
	}
	if head != idA {
		t.Fatalf("scenario F: HEAD = %q, want %q", head, idA)
	}
	if _, err := os.Stat(filepath.Join(root, "b.txt.dvs")); err == nil {
		t.Fatal("scenario F: expected b.txt.dvs to be removed after rollback")
	}
	if _, err := os.Stat(filepath.Join(root, "data.csv.dvs")); err != nil {
		t.Fatalf("scenario F: expected data.csv.dvs to remain: %v", err)
	}
	recent, err := rl.ReadRecent()
	if err != nil {
		t.Fatalf("scenario F: ReadRecent: %v", err)
	}
	if recent[0].Op != reflog.OpRollback {
		t.Fatalf("scenario F: expected newest entry to be Rollback, got %v", recent[0].Op)
	}
	if recent[0].Old != reflog.StateRef(idB) || recent[0].New != reflog.StateRef(idA) {
		t.Fatalf("scenario F: unexpected rollback entry old/new: %+v", recent[0])
	}
}
