package store

import (
	"context"
	"os"
	"os/user"
	"strconv"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/internal/dvslog"
	"github.com/a2-ai/dvs/oid"
)

// Local is an object store backed by a local filesystem directory, laid
// out by OID.StoragePath() the same way the cache under .dvs/ is.
type Local struct {
	Root string
	// Perm is the file mode applied to newly written objects. Zero means
	// 0o644.
	Perm os.FileMode
	// Group is an optional group name newly written objects are chowned
	// to. Empty leaves ownership unchanged.
	Group string
}

// NewLocal returns a Local store rooted at root.
func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) perm() os.FileMode {
	if l.Perm == 0 {
		return 0o644
	}
	return l.Perm
}

// chown applies l.Group to path, if configured. A group lookup or chown
// failure is logged and otherwise ignored: permissions are best-effort,
// never a reason to fail an add.
func (l *Local) chown(ctx context.Context, path string) {
	if l.Group == "" {
		return
	}
	g, err := user.LookupGroup(l.Group)
	if err != nil {
		dvslog.FromContext(ctx).WithField("group", l.Group).WithError(err).Warn("looking up configured group")
		return
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		dvslog.FromContext(ctx).WithField("group", l.Group).WithError(err).Warn("parsing gid for configured group")
		return
	}
	if err := os.Chown(path, -1, gid); err != nil {
		dvslog.FromContext(ctx).WithField("path", path).WithField("group", l.Group).WithError(err).Warn("chowning object")
	}
}

func (l *Local) path(o oid.OID) string {
	return l.Root + "/" + o.StoragePath()
}

func (l *Local) StoreType() string { return "local" }

func (l *Local) Has(ctx context.Context, o oid.OID) (bool, error) {
	_, err := os.Stat(l.path(o))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, dvserr.Wrap(dvserr.StorageError, "stat object", err).WithPath(l.path(o))
}

func (l *Local) Get(ctx context.Context, o oid.OID, destPath string) error {
	dest := l.path(o)
	if _, err := os.Stat(dest); err != nil {
		if os.IsNotExist(err) {
			return dvserr.New(dvserr.StorageError, "object not present in local store").WithPath(o.String())
		}
		return dvserr.Wrap(dvserr.StorageError, "stat object", err).WithPath(dest)
	}
	if err := atomicfile.CopyFile(destPath, dest, l.perm()); err != nil {
		return dvserr.Wrap(dvserr.StorageError, "copying object from local store", err).WithPath(destPath)
	}
	return nil
}

func (l *Local) Put(ctx context.Context, o oid.OID, srcPath string) error {
	dest := l.path(o)
	if _, err := os.Stat(dest); err == nil {
		dvslog.FromContext(ctx).WithField("oid", o.String()).Debug("object already present, skipping put")
		return nil
	}
	if _, err := os.Stat(srcPath); err != nil {
		if os.IsNotExist(err) {
			return dvserr.New(dvserr.FileNotFound, "put source does not exist").WithPath(srcPath)
		}
		return dvserr.Wrap(dvserr.StorageError, "stat put source", err).WithPath(srcPath)
	}
	if err := atomicfile.CopyFile(dest, srcPath, l.perm()); err != nil {
		return dvserr.Wrap(dvserr.StorageError, "copying object into local store", err).WithPath(dest)
	}
	l.chown(ctx, dest)
	return nil
}
