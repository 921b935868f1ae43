package ops

import (
	"context"
	"os"
	"path/filepath"

	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/internal/dvslog"
	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/store"
)

// MaterializeOutcome names what materialize did for one manifest entry.
type MaterializeOutcome int

const (
	Materialized MaterializeOutcome = iota
	UpToDate
	Failed
)

// MaterializeResult is the per-file outcome of a materialize call.
type MaterializeResult struct {
	Path    string
	Outcome MaterializeOutcome
	Err     error
}

// MaterializeSummary aggregates a materialize call's per-file results.
type MaterializeSummary struct {
	Materialized int
	UpToDate     int
	Failed       int
	Results      []MaterializeResult
}

// Materialize copies every manifest entry (optionally filtered to only
// paths) from the local object cache to its working-tree path, skipping
// entries already up to date and never fetching from a remote.
func Materialize(ctx context.Context, repo *Repo, m *manifest.Manifest, paths []string) (*MaterializeSummary, error) {
	log := dvslog.FromContext(ctx).WithField("component", "ops.materialize")

	statePath := repo.Layout.MaterializedPath()
	state, err := loadMaterializedState(statePath)
	if err != nil {
		return nil, err
	}

	var filter map[string]bool
	if len(paths) > 0 {
		filter = make(map[string]bool, len(paths))
		for _, p := range paths {
			filter[p] = true
		}
	}

	summary := &MaterializeSummary{}
	for _, e := range m.Entries() {
		if filter != nil && !filter[e.Path] {
			continue
		}
		res := materializeOne(ctx, repo, state, e)
		summary.Results = append(summary.Results, res)
		switch res.Outcome {
		case Materialized:
			summary.Materialized++
		case UpToDate:
			summary.UpToDate++
		case Failed:
			summary.Failed++
			log.WithField("path", e.Path).WithError(res.Err).Warn("materialize failed for file")
		}
	}

	if err := state.save(statePath); err != nil {
		return summary, err
	}
	return summary, nil
}

func materializeOne(ctx context.Context, repo *Repo, state *materializedState, e manifest.Entry) MaterializeResult {
	if existing, ok := state.get(e.Path); ok && existing.OID.Equal(e.OID) {
		return MaterializeResult{Path: e.Path, Outcome: UpToDate}
	}

	ok, err := repo.Cache.Has(ctx, e.OID)
	if err != nil {
		return MaterializeResult{Path: e.Path, Outcome: Failed, Err: err}
	}
	if !ok {
		return MaterializeResult{Path: e.Path, Outcome: Failed, Err: dvserr.New(dvserr.StorageError, "object not cached (run pull first)").WithPath(e.Path)}
	}

	dest := filepath.Join(repo.Backend.Root(), e.Path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o777); err != nil {
		return MaterializeResult{Path: e.Path, Outcome: Failed, Err: dvserr.Wrap(dvserr.IOError, "creating parent directory", err).WithPath(e.Path)}
	}
	if err := store.GetDecompressed(ctx, repo.Cache, e.OID, dest, e.EffectiveCompression()); err != nil {
		return MaterializeResult{Path: e.Path, Outcome: Failed, Err: err}
	}

	state.set(e.Path, e.OID)
	return MaterializeResult{Path: e.Path, Outcome: Materialized}
}
