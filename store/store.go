// Package store implements the content-addressed object store: the
// capability set {Has, Get, Put, StoreType} shared by the Local, HTTP, and
// Chain implementations, grounded on the teacher's StorageDriver
// abstraction (registry/storage/driver) but narrowed to the three
// operations the core actually needs instead of a general key/value
// filesystem interface.
package store

import (
	"context"

	"github.com/a2-ai/dvs/oid"
)

// Store is the capability set every object-store backend implements.
type Store interface {
	// Has reports whether the object named by o is present.
	Has(ctx context.Context, o oid.OID) (bool, error)
	// Get copies o's bytes to destPath atomically (temp-file then
	// rename). Returns a terminal error if o is absent; there is no
	// fallback to re-hashing.
	Get(ctx context.Context, o oid.OID, destPath string) error
	// Put copies srcPath's bytes into the store under o. It is a no-op
	// when o is already present (content-addressed immutability).
	// Returns a terminal error if srcPath does not exist.
	Put(ctx context.Context, o oid.OID, srcPath string) error
	// StoreType names the backend, for logging.
	StoreType() string
}
