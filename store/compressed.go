package store

import (
	"context"
	"io"
	"os"

	"github.com/a2-ai/dvs/internal/atomicfile"
	"github.com/a2-ai/dvs/internal/dvserr"
	"github.com/a2-ai/dvs/manifest"
	"github.com/a2-ai/dvs/oid"
	"github.com/a2-ai/dvs/store/codec"
)

// PutCompressed writes srcPath into s under o, running its bytes through
// compression's codec first. o must already be the digest of srcPath's
// uncompressed content — compression only changes what is stored at rest,
// never the identity a caller addresses the object by.
func PutCompressed(ctx context.Context, s Store, o oid.OID, srcPath string, compression manifest.Compression) error {
	if compression == "" || compression == manifest.CompressionNone {
		return s.Put(ctx, o, srcPath)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return dvserr.Wrap(dvserr.IOError, "opening put source", err).WithPath(srcPath)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "dvs-encode-*")
	if err != nil {
		return dvserr.Wrap(dvserr.IOError, "creating temp file", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	enc, err := codec.For(compression).Encoder(tmp)
	if err != nil {
		return dvserr.Wrap(dvserr.StorageError, "creating compression encoder", err).WithPath(srcPath)
	}
	if _, err := io.Copy(enc, src); err != nil {
		return dvserr.Wrap(dvserr.IOError, "compressing object", err).WithPath(srcPath)
	}
	if err := enc.Close(); err != nil {
		return dvserr.Wrap(dvserr.IOError, "flushing compressed object", err).WithPath(srcPath)
	}

	return s.Put(ctx, o, tmp.Name())
}

// GetDecompressed fetches o from s into destPath, reversing compression's
// codec on the way out. Use this instead of Store.Get whenever the caller
// knows the object was written with PutCompressed under a non-none codec.
func GetDecompressed(ctx context.Context, s Store, o oid.OID, destPath string, compression manifest.Compression) error {
	if compression == "" || compression == manifest.CompressionNone {
		return s.Get(ctx, o, destPath)
	}

	tmp, err := os.CreateTemp("", "dvs-decode-*")
	if err != nil {
		return dvserr.Wrap(dvserr.IOError, "creating temp file", err)
	}
	defer os.Remove(tmp.Name())
	tmp.Close()

	if err := s.Get(ctx, o, tmp.Name()); err != nil {
		return err
	}

	raw, err := os.Open(tmp.Name())
	if err != nil {
		return dvserr.Wrap(dvserr.IOError, "reopening fetched object", err).WithPath(tmp.Name())
	}
	defer raw.Close()

	dec, err := codec.For(compression).Decoder(raw)
	if err != nil {
		return dvserr.Wrap(dvserr.StorageError, "creating compression decoder", err).WithPath(o.String())
	}
	defer dec.Close()

	if err := atomicfile.WriteFrom(destPath, dec, 0o644); err != nil {
		return dvserr.Wrap(dvserr.IOError, "writing decompressed object", err).WithPath(destPath)
	}
	return nil
}
