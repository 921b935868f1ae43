package codec

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

type lz4Codec struct{}

func (lz4Codec) Encoder(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

func (lz4Codec) Decoder(r io.Reader) (io.ReadCloser, error) {
	return nopReadCloser{lz4.NewReader(r)}, nil
}
