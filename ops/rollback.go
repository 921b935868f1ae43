package ops

import (
	"context"
	"os"
	"path/filepath"

	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/internal/dvslog"
	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/pointer"
	"github.com/a2-ai/dvs/reflog"
	"github.com/a2-ai/dvs/snapshot"
	"github.com/a2-ai/dvs/store"
)

// RollbackTargetKind names how a rollback target was specified.
type RollbackTargetKind int

const (
	TargetStateID RollbackTargetKind = iota
	TargetIndex
)

// RollbackTarget names the state to roll back to.
type RollbackTarget struct {
	Kind    RollbackTargetKind
	StateID string // prefix, resolved via the snapshot store
	Index   int    // 0 is the most recent reflog entry
}

// RollbackOptions configures a rollback call.
type RollbackOptions struct {
	Force       bool
	Materialize bool
	Actor       string
	Message     string
}

// RollbackResult summarizes a rollback call.
type RollbackResult struct {
	OldState          string
	NewState          string
	PointersWritten   []string
	PointersRemoved   []string
	ManifestChanged   bool
	MaterializedCount int
}

// Rollback restores the workspace's pointer records and manifest to a
// prior snapshot, optionally re-materializing tracked files afterward.
func Rollback(ctx context.Context, repo *Repo, target RollbackTarget, opts RollbackOptions) (*RollbackResult, error) {
	log := dvslog.FromContext(ctx).WithField("component", "ops.rollback")

	rl := reflog.New(repo.Layout)
	snapStore := snapshot.NewStore(repo.Layout)

	targetID, err := resolveRollbackTarget(rl, snapStore, target)
	if err != nil {
		return nil, err
	}

	currentID, err := rl.ReadHead()
	if err != nil {
		return nil, err
	}

	if currentID == targetID {
		return &RollbackResult{OldState: currentID, NewState: targetID}, nil
	}

	// opts.Force gates an optional dirty-working-tree check; the core
	// does not implement one (spec-level no-op), so it has no effect here.

	targetState, err := snapStore.Load(targetID)
	if err != nil {
		return nil, err
	}
	var currentState *snapshot.State
	if currentID != "" && snapStore.Exists(currentID) {
		currentState, err = snapStore.Load(currentID)
		if err != nil {
			return nil, err
		}
	} else {
		currentState = snapshot.New()
	}

	result := &RollbackResult{OldState: currentID, NewState: targetID}
	root := repo.Backend.Root()

	for _, e := range targetState.Entries {
		dataPath := filepath.Join(root, filepath.FromSlash(e.Path))
		metaPath := pointer.MetadataPathFor(dataPath, e.Format)
		rec := e.Record
		if err := pointer.Save(&rec, metaPath); err != nil {
			return result, err
		}
		result.PointersWritten = append(result.PointersWritten, e.Path)

		opposite := pointer.JSON
		if e.Format == pointer.JSON {
			opposite = pointer.TOML
		}
		oppositePath := pointer.MetadataPathFor(dataPath, opposite)
		if _, err := os.Stat(oppositePath); err == nil {
			pointer.Remove(oppositePath)
		}
	}

	for _, e := range currentState.Entries {
		if _, ok := targetState.ByPath(e.Path); ok {
			continue
		}
		dataPath := filepath.Join(root, filepath.FromSlash(e.Path))
		metaPath := pointer.MetadataPathFor(dataPath, e.Format)
		if err := pointer.Remove(metaPath); err != nil {
			return result, err
		}
		result.PointersRemoved = append(result.PointersRemoved, e.Path)
	}

	manifestPath := repo.Layout.ManifestPath()
	if targetState.Manifest != nil {
		if err := targetState.Manifest.Save(manifestPath); err != nil {
			return result, err
		}
		result.ManifestChanged = true
	} else if _, err := os.Stat(manifestPath); err == nil {
		if err := os.Remove(manifestPath); err != nil {
			return result, dvserr.Wrap(dvserr.IOError, "removing manifest", err).WithPath(manifestPath)
		}
		result.ManifestChanged = true
	}

	if opts.Materialize {
		count, err := rollbackMaterialize(ctx, repo, targetState)
		if err != nil {
			return result, err
		}
		result.MaterializedCount = count
	}

	if err := rl.Record(opts.Actor, reflog.OpRollback, opts.Message, reflog.StateRef(currentID), reflog.StateRef(targetID), append(append([]string{}, result.PointersWritten...), result.PointersRemoved...)); err != nil {
		return result, err
	}

	log.WithField("old", currentID).WithField("new", targetID).Info("rollback complete")
	return result, nil
}

func rollbackMaterialize(ctx context.Context, repo *Repo, target *snapshot.State) (int, error) {
	count := 0
	for _, e := range target.Entries {
		o, err := oid.New(e.Record.EffectiveAlgo(), e.Record.DigestHex)
		if err != nil {
			continue
		}
		has, err := repo.Cache.Has(ctx, o)
		if err != nil || !has {
			continue
		}
		dest := filepath.Join(repo.Backend.Root(), filepath.FromSlash(e.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o777); err != nil {
			return count, dvserr.Wrap(dvserr.IOError, "creating parent directory", err).WithPath(e.Path)
		}
		if err := store.GetDecompressed(ctx, repo.Cache, o, dest, manifest.Compression(e.Record.Compression)); err != nil {
			continue
		}
		count++
	}
	return count, nil
}

func resolveRollbackTarget(rl *reflog.Log, snapStore *snapshot.Store, target RollbackTarget) (string, error) {
	switch target.Kind {
	case TargetIndex:
		e, err := rl.GetByIndex(target.Index)
		if err != nil {
			return "", err
		}
		return reflog.StateID(e.New), nil
	case TargetStateID:
		return snapStore.FindByPrefix(target.StateID)
	default:
		return "", dvserr.New(dvserr.ConfigError, "unknown rollback target kind")
	}
}
