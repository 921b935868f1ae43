package ops

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/internal/dvslog"
	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/pointer"
	"github.com/a2-ai/dvs/store"
)

// AddOutcome names what add did for one file.
type AddOutcome int

const (
	// Copied means the file's bytes were new and were written to storage.
	Copied AddOutcome = iota
	// Present means the file's content already matched an existing
	// pointer record; storage was not touched.
	Present
)

// AddResult is the per-file outcome of an add call.
type AddResult struct {
	Path    string
	Outcome AddOutcome
	OID     oid.OID
	Size    uint64
	Err     error
}

// AddOptions configures an add call.
type AddOptions struct {
	Message string
	Format  pointer.Format // Unknown defaults to the repo config's DefaultFormat
	Actor   string
	// Compression is the codec applied to the file's bytes at rest in
	// storage. Empty (CompressionNone) stores bytes uncompressed.
	Compression manifest.Compression
}

// Add expands patterns against the repo root, digests and stores each
// matched file, and writes its pointer record.
func Add(ctx context.Context, repo *Repo, patterns []string, opts AddOptions) ([]AddResult, error) {
	log := dvslog.FromContext(ctx).WithField("component", "ops.add")

	files, err := expandPatterns(repo, patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, dvserr.New(dvserr.NoFilesMatched, "no files matched the given patterns")
	}

	format := opts.Format
	if format == pointer.Unknown {
		format = pointer.JSON
		if repo.Config.DefaultFormat == "toml" {
			format = pointer.TOML
		}
	}
	algo := repo.Config.HashAlgorithm

	results := make([]AddResult, 0, len(files))
	for _, relPath := range files {
		r := addOne(ctx, repo, relPath, algo, format, opts)
		if r.Err != nil {
			log.WithField("path", relPath).WithError(r.Err).Warn("add failed for file")
		}
		results = append(results, r)
	}
	return results, nil
}

func addOne(ctx context.Context, repo *Repo, relPath string, algo oid.Algorithm, format pointer.Format, opts AddOptions) AddResult {
	absPath := filepath.Join(repo.Backend.Root(), relPath)

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return AddResult{Path: relPath, Err: dvserr.New(dvserr.FileNotFound, "file not found").WithPath(relPath)}
		}
		return AddResult{Path: relPath, Err: dvserr.Wrap(dvserr.IOError, "stat file", err).WithPath(relPath)}
	}

	hex, err := oid.DigestFile(absPath, algo)
	if err != nil {
		return AddResult{Path: relPath, Err: dvserr.Wrap(dvserr.IOError, "digesting file", err).WithPath(relPath)}
	}
	o, err := oid.New(algo, hex)
	if err != nil {
		return AddResult{Path: relPath, Err: dvserr.Wrap(dvserr.HashMismatch, "building oid", err).WithPath(relPath)}
	}

	if existing, existingFormat, err := pointer.LoadForData(absPath); err == nil {
		if existing.DigestHex == o.Hex && existing.EffectiveAlgo() == o.Algo {
			return AddResult{Path: relPath, Outcome: Present, OID: o, Size: uint64(info.Size())}
		}
		_ = existingFormat
	}

	if ok, err := repo.Cache.Has(ctx, o); err != nil {
		return AddResult{Path: relPath, Err: dvserr.Wrap(dvserr.StorageError, "checking storage", err).WithPath(relPath)}
	} else if !ok {
		if err := store.PutCompressed(ctx, repo.Cache, o, absPath, opts.Compression); err != nil {
			return AddResult{Path: relPath, Err: err}
		}
	}

	rec := &pointer.Record{
		DigestHex:   o.Hex,
		Size:        uint64(info.Size()),
		AddTime:     time.Now().UTC(),
		Message:     opts.Message,
		SavedBy:     opts.Actor,
		Algo:        o.Algo,
		Compression: string(opts.Compression),
	}
	metaPath := pointer.MetadataPathFor(absPath, format)
	if err := pointer.Save(rec, metaPath); err != nil {
		pointer.Remove(metaPath)
		return AddResult{Path: relPath, Err: err}
	}

	return AddResult{Path: relPath, Outcome: Copied, OID: o, Size: uint64(info.Size())}
}

// expandPatterns resolves patterns to repo-relative paths of regular,
// non-ignored files.
func expandPatterns(repo *Repo, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pat := range patterns {
		absPat := pat
		if !filepath.IsAbs(pat) {
			absPat = filepath.Join(repo.Backend.Root(), pat)
		}
		matches, err := filepath.Glob(absPat)
		if err != nil {
			return nil, dvserr.Wrap(dvserr.InvalidGlob, "expanding pattern", err).WithPath(pat)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			rel, err := filepath.Rel(repo.Backend.Root(), m)
			if err != nil {
				return nil, dvserr.Wrap(dvserr.FileOutsideRepo, "resolving matched path", err).WithPath(m)
			}
			if ignored, err := repo.Backend.IsIgnored(rel); err == nil && ignored {
				continue
			}
			if !seen[rel] {
				seen[rel] = true
				out = append(out, rel)
			}
		}
	}
	return out, nil
}
