package arenafs_test

import (
	"bytes"
	"testing"

	"github.com/jbhuezo1/arenafs"
	"github.com/stretchr/testify/require"
)

func TestCodecString(t *testing.T) {
	require.Equal(t, "none", arenafs.NoCodec.String())
	require.Equal(t, "zstd", arenafs.ZstdCodec.String())
	require.Equal(t, "xz", arenafs.XZCodec.String())
	require.Equal(t, "Codec(99)", arenafs.Codec(99).String())
}

func TestSaveSnapshotUncompressedRoundTrip(t *testing.T) {
	a := arenafs.NewHeapArena(64 * 1024)
	require.NoError(t, a.Mkdir("/d", 0))
	require.NoError(t, a.Mknod("/d/f", 0))
	_, err := a.Write("/d/f", 0, []byte("snapshot me"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.SaveSnapshot(&buf, arenafs.NoCodec))
	require.Equal(t, a.Size(), buf.Len())

	restored, err := arenafs.LoadSnapshot(&buf, arenafs.NoCodec, a.Size())
	require.NoError(t, err)

	out := make([]byte, len("snapshot me"))
	n, err := restored.Read("/d/f", 0, out)
	require.NoError(t, err)
	require.Equal(t, "snapshot me", string(out[:n]))
}

func TestSnapshotWithUnregisteredCodecFails(t *testing.T) {
	a := arenafs.NewHeapArena(4096)
	var buf bytes.Buffer
	err := a.SaveSnapshot(&buf, arenafs.ZstdCodec)
	require.Error(t, err)
}
