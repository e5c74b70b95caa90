package arenafs_test

import (
	"path/filepath"
	"testing"

	"github.com/jbhuezo1/arenafs"
	"github.com/stretchr/testify/require"
)

func TestOpenPersistsAcrossCloseAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.arenafs")

	a, err := arenafs.Open(path, 256*1024)
	require.NoError(t, err)

	require.NoError(t, a.Mkdir("/persisted", 0))
	require.NoError(t, a.Mknod("/persisted/f", 0))
	_, err = a.Write("/persisted/f", 0, []byte("durable"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	reopened, err := arenafs.Open(path, 256*1024)
	require.NoError(t, err)
	defer reopened.Close()

	names, err := reopened.Readdir("/persisted")
	require.NoError(t, err)
	require.Equal(t, []string{"f"}, names)

	out := make([]byte, len("durable"))
	n, err := reopened.Read("/persisted/f", 0, out)
	require.NoError(t, err)
	require.Equal(t, "durable", string(out[:n]))
}

func TestOpenGrowsShortFileToRequestedSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.arenafs")

	a, err := arenafs.Open(path, 128*1024)
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, 128*1024, a.Size())
}

func TestSyncOnHeapArenaIsNoop(t *testing.T) {
	a := arenafs.NewHeapArena(4096)
	require.NoError(t, a.Sync())
	require.NoError(t, a.Close())
}
