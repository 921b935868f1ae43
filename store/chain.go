package store

import (
	"context"

	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/oid"
)

// Chain composes an ordered list of stores into one. Has and Get try each
// member in order and stop at the first hit; Put writes to every member so
// that all backends stay in sync.
type Chain struct {
	Stores []Store
}

// NewChain returns a Chain over stores, tried in the given order.
func NewChain(stores ...Store) *Chain {
	return &Chain{Stores: stores}
}

func (c *Chain) StoreType() string { return "chain" }

func (c *Chain) Has(ctx context.Context, o oid.OID) (bool, error) {
	for _, s := range c.Stores {
		ok, err := s.Has(ctx, o)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Chain) Get(ctx context.Context, o oid.OID, destPath string) error {
	var lastErr error
	for _, s := range c.Stores {
		ok, err := s.Has(ctx, o)
		if err != nil {
			lastErr = err
			continue
		}
		if !ok {
			continue
		}
		if err := s.Get(ctx, o, destPath); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return dvserr.New(dvserr.StorageError, "object not present in any chained store").WithPath(o.String())
}

// Put writes srcPath to every store in the chain. A failure on one store
// does not stop the attempts on the others; every failure is collected
// into a BatchError, which is returned (nil when all stores succeed).
func (c *Chain) Put(ctx context.Context, o oid.OID, srcPath string) error {
	var batch dvserr.BatchError
	for _, s := range c.Stores {
		if err := s.Put(ctx, o, srcPath); err != nil {
			batch.Add(err)
		}
	}
	return batch.AsError()
}
