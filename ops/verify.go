package ops

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/a2-ai/dvs/internal/dvslog"
	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/pointer"
	"github.com/a2-ai/dvs/store"
)

// VerifyResult is the three-way consistency check for one tracked file.
type VerifyResult struct {
	Path        string
	LocalOK     bool
	StorageOK   bool
	MetadataOK  bool
	OK          bool
	Details     string
}

// VerifySummary aggregates a verify call's per-file results.
type VerifySummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []VerifyResult
}

// Verify checks each of paths (repo-relative working-tree data paths)
// against its pointer record and cached object.
func Verify(ctx context.Context, repo *Repo, paths []string) (*VerifySummary, error) {
	log := dvslog.FromContext(ctx).WithField("component", "ops.verify")

	summary := &VerifySummary{}
	for _, p := range paths {
		r := verifyOne(ctx, repo, p)
		summary.Results = append(summary.Results, r)
		summary.Total++
		if r.OK {
			summary.Passed++
		} else {
			summary.Failed++
			log.WithField("path", p).Warn("verify found an issue: " + r.Details)
		}
	}
	return summary, nil
}

func verifyOne(ctx context.Context, repo *Repo, relPath string) VerifyResult {
	r := VerifyResult{Path: relPath}
	var issues []string

	absPath := filepath.Join(repo.Backend.Root(), relPath)
	rec, _, err := pointer.LoadForData(absPath)
	if err != nil {
		issues = append(issues, "metadata missing or invalid")
		r.Details = strings.Join(issues, "; ")
		return r
	}
	r.MetadataOK = true

	if _, err := os.Stat(absPath); err != nil {
		issues = append(issues, "local file missing")
	} else {
		ok, err := oid.Verify(absPath, rec.DigestHex, rec.EffectiveAlgo())
		if err != nil || !ok {
			issues = append(issues, "local file hash mismatch")
		} else {
			r.LocalOK = true
		}
	}

	o, err := oid.New(rec.EffectiveAlgo(), rec.DigestHex)
	if err != nil {
		issues = append(issues, "storage file missing")
	} else {
		has, err := repo.Cache.Has(ctx, o)
		if err != nil || !has {
			issues = append(issues, "storage file missing")
		} else {
			tmp, tmpErr := os.CreateTemp("", "dvs-verify-*")
			if tmpErr != nil {
				issues = append(issues, "storage file corrupted")
			} else {
				tmp.Close()
				defer os.Remove(tmp.Name())
				if getErr := store.GetDecompressed(ctx, repo.Cache, o, tmp.Name(), manifest.Compression(rec.Compression)); getErr != nil {
					issues = append(issues, "storage file corrupted")
				} else {
					storageOK, verErr := oid.Verify(tmp.Name(), rec.DigestHex, rec.EffectiveAlgo())
					if verErr != nil || !storageOK {
						issues = append(issues, "storage file corrupted")
					} else {
						r.StorageOK = true
					}
				}
			}
		}
	}

	r.OK = r.LocalOK && r.StorageOK && r.MetadataOK
	r.Details = strings.Join(issues, "; ")
	return r
}
