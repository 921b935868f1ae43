package codec

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

type gzipCodec struct{}

func (gzipCodec) Encoder(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}

func (gzipCodec) Decoder(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}
