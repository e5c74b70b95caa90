//go:build xz

package arenafs

import (
	"io"

	"github.com/ulikunitz/xz"
)

func init() {
	RegisterCodec(XZCodec, &codecHandler{
		Compress: func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		},
		Decompress: func(r io.Reader) (io.ReadCloser, error) {
			rc, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(rc), nil
		},
	})
}
