package arenafs

import (
	"fmt"
	"io"
)

// Codec identifies a snapshot compression format (SPEC_FULL.md §E.1).
// Unlike the teacher's SquashComp, which only ever decompresses an
// already-built image, a Codec here also compresses: SaveSnapshot is a
// write path the teacher never needed, since squashfs images are built
// offline by a separate packer (the writer.go this module dropped, see
// DESIGN.md).
type Codec uint16

const (
	// NoCodec stores the snapshot uncompressed.
	NoCodec Codec = 0
	// ZstdCodec compresses with klauspost/compress/zstd (codec_zstd.go,
	// build tag "zstd").
	ZstdCodec Codec = 1
	// XZCodec compresses with ulikunitz/xz (codec_xz.go, build tag "xz").
	XZCodec Codec = 2
)

func (c Codec) String() string {
	switch c {
	case NoCodec:
		return "none"
	case ZstdCodec:
		return "zstd"
	case XZCodec:
		return "xz"
	default:
		return fmt.Sprintf("Codec(%d)", c)
	}
}

// codecHandler pairs a codec's compressor and decompressor.
type codecHandler struct {
	Compress   func(io.Writer) (io.WriteCloser, error)
	Decompress func(io.Reader) (io.ReadCloser, error)
}

var codecRegistry = map[Codec]*codecHandler{}

// RegisterCodec installs a handler for a codec. Called from codec_xz.go
// and codec_zstd.go's build-tag-gated init() functions, mirroring the
// teacher's RegisterCompHandler pattern in comp.go/comp_xz.go/comp_zstd.go.
func RegisterCodec(c Codec, h *codecHandler) {
	codecRegistry[c] = h
}

func lookupCodec(c Codec) (*codecHandler, error) {
	if c == NoCodec {
		return nil, nil
	}
	h, ok := codecRegistry[c]
	if !ok {
		return nil, fmt.Errorf("arenafs: codec %s not registered (build without its tag?)", c)
	}
	return h, nil
}
