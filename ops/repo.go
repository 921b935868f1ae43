// Package ops implements the five core operations — add, materialize,
// verify, merge-repo, rollback — as transformations over the object
// store, pointer records, manifest, and state subsystem.
package ops

import (
	"context"
	"os"
	"strconv"

	"github.com/a2-ai/dvs/config"
	"github.com/a2-ai/dvs/internal/dvslog"
	"github.com/a2-ai/dvs/layout"
	"github.com/a2-ai/dvs/store"
)

// Backend is the capability set an operation needs from the surrounding
// version-control checkout: where the repo root is, and whether a path
// is ignored.
type Backend interface {
	Root() string
	IsIgnored(path string) (bool, error)
}

// Repo bundles everything an operation needs to act on one repository:
// its layout, local object cache, backend adapter, and config overlay.
type Repo struct {
	Layout  layout.Layout
	Cache   store.Store
	Backend Backend
	Config  *config.Config
}

// Open builds a Repo rooted at b.Root(), with a local cache store at the
// layout's cache directory and cfg applied (config.Default() if nil).
func Open(b Backend, cfg *config.Config) *Repo {
	if cfg == nil {
		cfg = config.Default()
	}
	l := layout.New(b.Root())
	cache := store.NewLocal(l.CacheDir())
	if cfg.Permissions.FileMode != "" {
		if mode, err := strconv.ParseUint(cfg.Permissions.FileMode, 8, 32); err == nil {
			cache.Perm = os.FileMode(mode)
		} else {
			dvslog.FromContext(context.Background()).WithField("file_mode", cfg.Permissions.FileMode).WithError(err).Warn("ignoring invalid configured file_mode")
		}
	}
	cache.Group = cfg.Permissions.Group

	return &Repo{
		Layout:  l,
		Cache:   cache,
		Backend: b,
		Config:  cfg,
	}
}
