package codec

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

type zstdCodec struct{}

func (zstdCodec) Encoder(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w)
}

func (zstdCodec) Decoder(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return dec.IOReadCloser(), nil
}
