//go:build zstd

package arenafs

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

func init() {
	RegisterCodec(ZstdCodec, &codecHandler{
		Compress: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
		Decompress: func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
	})
}
