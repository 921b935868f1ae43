package ops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/internal/dvslog"
	"github.com/a2-ai/dvs/layout"
	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/pointer"
	"github.com/a2-ai/dvs/reflog"
	"github.com/a2-ai/dvs/snapshot"
	"github.com/a2-ai/dvs/store"
	"github.com/a2-ai/dvs/store/codec"
)

// ConflictMode names how merge-repo handles a destination path that is
// already tracked.
type ConflictMode int

const (
	Abort ConflictMode = iota
	Skip
	Overwrite
)

// MergeOptions configures a merge-repo call.
type MergeOptions struct {
	Prefix       string
	ConflictMode ConflictMode
	VerifyHashes bool
	DryRun       bool
	Actor        string
	Message      string
}

// mergePlanEntry is one file merge-repo intends to copy into the
// destination.
type mergePlanEntry struct {
	srcDataPath string
	destRelPath string
	oid         oid.OID
	size        uint64
	format      pointer.Format
	compression manifest.Compression
}

// MergeResult summarizes a merge-repo call.
type MergeResult struct {
	Planned   int
	Skipped   int
	Applied   int
	OldState  string
	NewState  string
}

// MergeRepo imports srcRoot's tracked files into dst, applying opts's
// conflict policy. The object-copy phase always completes before any
// pointer record is written, so a mid-apply failure leaves the
// destination with reachable objects but no dangling half-written
// pointers.
func MergeRepo(ctx context.Context, srcRoot string, dst *Repo, opts MergeOptions) (*MergeResult, error) {
	log := dvslog.FromContext(ctx).WithField("component", "ops.mergerepo")

	srcAbs, err := filepath.Abs(srcRoot)
	if err != nil {
		return nil, dvserr.Wrap(dvserr.IOError, "resolving source root", err).WithPath(srcRoot)
	}
	dstAbs, err := filepath.Abs(dst.Backend.Root())
	if err != nil {
		return nil, dvserr.Wrap(dvserr.IOError, "resolving destination root", err).WithPath(dst.Backend.Root())
	}
	if srcAbs == dstAbs {
		return nil, dvserr.New(dvserr.ConfigError, "cannot merge a repository into itself").WithPath(srcRoot)
	}

	srcLayout := layout.New(srcAbs)
	dstManifest, err := loadOrEmptyManifest(dst.Layout)
	if err != nil {
		return nil, err
	}

	srcEntries, err := scanTrackedFiles(srcAbs)
	if err != nil {
		return nil, err
	}

	var plan []mergePlanEntry
	var conflicts []string
	skipped := 0
	for _, e := range srcEntries {
		destRel := filepath.ToSlash(filepath.Join(opts.Prefix, e.Path))
		o, err := oid.New(e.Record.EffectiveAlgo(), e.Record.DigestHex)
		if err != nil {
			continue
		}

		if _, tracked := dstManifest.Get(destRel); tracked {
			switch opts.ConflictMode {
			case Abort:
				conflicts = append(conflicts, destRel)
				continue
			case Skip:
				skipped++
				continue
			case Overwrite:
				// fall through to planning
			}
		}

		plan = append(plan, mergePlanEntry{
			srcDataPath: filepath.Join(srcAbs, filepath.FromSlash(e.Path)),
			destRelPath: destRel,
			oid:         o,
			size:        e.Record.Size,
			format:      e.Format,
			compression: manifest.Compression(e.Record.Compression),
		})
	}

	if opts.ConflictMode == Abort && len(conflicts) > 0 {
		return nil, dvserr.New(dvserr.MergeConflict, fmt.Sprintf("conflicting paths: %v", conflicts))
	}

	result := &MergeResult{Planned: len(plan), Skipped: skipped}
	if opts.DryRun {
		return result, nil
	}

	oldState, err := captureState(dstAbs, dst.Layout)
	if err != nil {
		return nil, err
	}
	snapStore := snapshot.NewStore(dst.Layout)
	oldID, err := snapStore.Save(oldState)
	if err != nil {
		return nil, err
	}
	result.OldState = oldID

	srcCache := store.NewLocal(srcLayout.CacheDir())
	seen := make(map[string]bool)
	for _, pe := range plan {
		key := pe.oid.String()
		if seen[key] {
			continue
		}
		seen[key] = true

		has, err := dst.Cache.Has(ctx, pe.oid)
		if err != nil {
			return nil, err
		}
		if has {
			continue
		}

		tmp, err := os.CreateTemp("", "dvs-merge-*")
		if err != nil {
			return nil, dvserr.Wrap(dvserr.IOError, "creating temp file", err)
		}
		tmp.Close()
		defer os.Remove(tmp.Name())

		if err := srcCache.Get(ctx, pe.oid, tmp.Name()); err != nil {
			return nil, err
		}
		if err := dst.Cache.Put(ctx, pe.oid, tmp.Name()); err != nil {
			return nil, err
		}

		if opts.VerifyHashes {
			verifyPath := tmp.Name()
			if pe.compression != "" && pe.compression != manifest.CompressionNone {
				raw, err := os.Open(tmp.Name())
				if err != nil {
					return nil, dvserr.Wrap(dvserr.IOError, "reopening merged object", err).WithPath(pe.destRelPath)
				}
				dec, err := codec.For(pe.compression).Decoder(raw)
				if err != nil {
					raw.Close()
					return nil, dvserr.Wrap(dvserr.StorageError, "creating compression decoder", err).WithPath(pe.destRelPath)
				}
				plain, err := os.CreateTemp("", "dvs-merge-verify-*")
				if err != nil {
					dec.Close()
					raw.Close()
					return nil, dvserr.Wrap(dvserr.IOError, "creating temp file", err)
				}
				defer os.Remove(plain.Name())
				_, copyErr := io.Copy(plain, dec)
				dec.Close()
				raw.Close()
				plain.Close()
				if copyErr != nil {
					return nil, dvserr.Wrap(dvserr.IOError, "decompressing merged object", copyErr).WithPath(pe.destRelPath)
				}
				verifyPath = plain.Name()
			}

			ok, err := oid.Verify(verifyPath, pe.oid.Hex, pe.oid.Algo)
			if err != nil || !ok {
				os.Remove(dst.Layout.CachePath(pe.oid))
				return nil, dvserr.New(dvserr.HashMismatch, "merged object failed verification").
					WithPath(pe.destRelPath)
			}
		}
	}

	for _, pe := range plan {
		rec := &pointer.Record{
			DigestHex:   pe.oid.Hex,
			Size:        pe.size,
			AddTime:     time.Now().UTC(),
			SavedBy:     opts.Actor,
			Message:     opts.Message,
			Algo:        pe.oid.Algo,
			Compression: string(pe.compression),
		}
		destDataPath := filepath.Join(dstAbs, filepath.FromSlash(pe.destRelPath))
		metaPath := pointer.MetadataPathFor(destDataPath, pe.format)
		if err := pointer.Save(rec, metaPath); err != nil {
			return result, err
		}
		dstManifest.Upsert(manifest.Entry{Path: pe.destRelPath, OID: pe.oid, Bytes: pe.size, Compression: pe.compression})
		result.Applied++
	}

	if err := dstManifest.Save(dst.Layout.ManifestPath()); err != nil {
		return result, err
	}

	newState, err := captureState(dstAbs, dst.Layout)
	if err != nil {
		return result, err
	}
	newID, err := snapStore.Save(newState)
	if err != nil {
		return result, err
	}
	result.NewState = newID

	if newID != oldID {
		rl := reflog.New(dst.Layout)
		if err := rl.Record(opts.Actor, reflog.OpMerge, opts.Message, reflog.StateRef(oldID), reflog.StateRef(newID), planPaths(plan)); err != nil {
			return result, err
		}
	}

	log.WithField("planned", result.Planned).WithField("applied", result.Applied).Info("merge-repo complete")
	return result, nil
}

func loadOrEmptyManifest(l layout.Layout) (*manifest.Manifest, error) {
	if _, err := os.Stat(l.ManifestPath()); err != nil {
		return manifest.New(), nil
	}
	return manifest.Load(l.ManifestPath())
}

func planPaths(plan []mergePlanEntry) []string {
	paths := make([]string, len(plan))
	for i, pe := range plan {
		paths[i] = pe.destRelPath
	}
	return paths
}
