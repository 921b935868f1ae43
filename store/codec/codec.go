// Package codec wires the manifest's per-entry compression tag to an
// actual codec implementation, so the object store can write and read
// compressed blob bytes transparently.
package codec

import (
	"io"

	"github.com/a2-ai/dvs/manifest"
)

// Codec wraps/unwraps a byte stream for one compression tag.
type Codec interface {
	// Encoder wraps w so writes to it are compressed before hitting w.
	// Callers must Close the returned writer to flush trailing bytes.
	Encoder(w io.Writer) (io.WriteCloser, error)
	// Decoder wraps r so reads from it are decompressed.
	Decoder(r io.Reader) (io.ReadCloser, error)
}

var registry = map[manifest.Compression]Codec{
	manifest.CompressionNone: noneCodec{},
	manifest.CompressionZstd: zstdCodec{},
	manifest.CompressionGzip: gzipCodec{},
	manifest.CompressionLZ4:  lz4Codec{},
}

// For looks up the codec for tag, defaulting unknown/empty tags to none.
func For(tag manifest.Compression) Codec {
	if c, ok := registry[tag]; ok {
		return c
	}
	return registry[manifest.CompressionNone]
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type nopReadCloser struct{ io.Reader }

func (nopReadCloser) Close() error { return nil }

type noneCodec struct{}

func (noneCodec) Encoder(w io.Writer) (io.WriteCloser, error) { return nopWriteCloser{w}, nil }
func (noneCodec) Decoder(r io.Reader) (io.ReadCloser, error)  { return nopReadCloser{r}, nil }
