package arenafs_test

import (
	"testing"
	"time"

	"github.com/jbhuezo1/arenafs"
)

func newArena(t *testing.T) *arenafs.Arena {
	t.Helper()
	return arenafs.NewHeapArena(2 * 1024 * 1024)
}

func TestMkdirMknodGetattrReaddir(t *testing.T) {
	a := newArena(t)

	if err := a.Mkdir("/dir", 42); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	if err := a.Mknod("/dir/file", 42); err != nil {
		t.Fatalf("mknod: %s", err)
	}

	names, err := a.Readdir("/dir")
	if err != nil {
		t.Fatalf("readdir: %s", err)
	}
	if len(names) != 1 || names[0] != "file" {
		t.Fatalf("readdir = %v, want [file]", names)
	}

	attr, err := a.Getattr("/dir", 42, 42)
	if err != nil {
		t.Fatalf("getattr dir: %s", err)
	}
	if !attr.Mode.IsDir() {
		t.Errorf("expected /dir to report as a directory")
	}

	fattr, err := a.Getattr("/dir/file", 42, 42)
	if err != nil {
		t.Fatalf("getattr file: %s", err)
	}
	if fattr.Mode.IsDir() {
		t.Errorf("expected /dir/file to report as a regular file")
	}
	if fattr.Size != 0 {
		t.Errorf("new file size = %d, want 0", fattr.Size)
	}
}

func TestMkdirOverExistingNameFails(t *testing.T) {
	a := newArena(t)
	if err := a.Mkdir("/dir", 0); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	if err := a.Mkdir("/dir", 0); err == nil {
		t.Errorf("expected second mkdir of the same name to fail")
	}
	if err := a.Mknod("/dir", 0); err == nil {
		t.Errorf("expected mknod over an existing directory name to fail")
	}
}

func TestRmdirRequiresEmptyDirectory(t *testing.T) {
	a := newArena(t)
	if err := a.Mkdir("/dir", 0); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	if err := a.Mknod("/dir/f", 0); err != nil {
		t.Fatalf("mknod: %s", err)
	}
	if err := a.Rmdir("/dir"); err == nil {
		t.Errorf("expected rmdir on a non-empty directory to fail")
	}
	if err := a.Unlink("/dir/f"); err != nil {
		t.Fatalf("unlink: %s", err)
	}
	if err := a.Rmdir("/dir"); err != nil {
		t.Errorf("rmdir of now-empty directory failed: %s", err)
	}
}

func TestRmdirRootFails(t *testing.T) {
	a := newArena(t)
	err := a.Rmdir("/")
	if err == nil {
		t.Fatalf("expected rmdir / to fail")
	}
	var errno arenafs.Errno
	if !arenafs.AsErrno(err, &errno) {
		t.Fatalf("rmdir / error does not wrap an Errno: %s", err)
	}
	if errno != arenafs.ErrBusy {
		t.Errorf("rmdir / errno = %v, want ErrBusy", errno)
	}
}

func TestUnlinkOnDirectoryFails(t *testing.T) {
	a := newArena(t)
	if err := a.Mkdir("/dir", 0); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	if err := a.Unlink("/dir"); err == nil {
		t.Errorf("expected unlink on a directory to fail")
	}
}

func TestWriteReadTruncate(t *testing.T) {
	a := newArena(t)
	if err := a.Mknod("/f", 0); err != nil {
		t.Fatalf("mknod: %s", err)
	}

	n, err := a.Write("/f", 0, []byte("hello world"))
	if err != nil {
		t.Fatalf("write: %s", err)
	}
	if n != 11 {
		t.Fatalf("write returned %d, want 11", n)
	}

	out := make([]byte, 11)
	n, err = a.Read("/f", 0, out)
	if err != nil {
		t.Fatalf("read: %s", err)
	}
	if string(out[:n]) != "hello world" {
		t.Fatalf("read back %q, want %q", out[:n], "hello world")
	}

	if err := a.Truncate("/f", 5); err != nil {
		t.Fatalf("truncate: %s", err)
	}
	attr, err := a.Getattr("/f", 0, 0)
	if err != nil {
		t.Fatalf("getattr: %s", err)
	}
	if attr.Size != 5 {
		t.Fatalf("size after truncate = %d, want 5", attr.Size)
	}
}

func TestRenameMovesEntryAndPreservesData(t *testing.T) {
	a := newArena(t)
	if err := a.Mknod("/a", 0); err != nil {
		t.Fatalf("mknod: %s", err)
	}
	if _, err := a.Write("/a", 0, []byte("payload")); err != nil {
		t.Fatalf("write: %s", err)
	}
	if err := a.Rename("/a", "/b"); err != nil {
		t.Fatalf("rename: %s", err)
	}
	if _, err := a.Getattr("/a", 0, 0); err == nil {
		t.Errorf("expected /a to no longer exist after rename")
	}
	out := make([]byte, 7)
	n, err := a.Read("/b", 0, out)
	if err != nil {
		t.Fatalf("read /b: %s", err)
	}
	if string(out[:n]) != "payload" {
		t.Errorf("data lost across rename: got %q", out[:n])
	}
}

func TestRenameDirectoryIntoOwnSubtreeFails(t *testing.T) {
	a := newArena(t)
	if err := a.Mkdir("/a", 0); err != nil {
		t.Fatalf("mkdir /a: %s", err)
	}
	if err := a.Mkdir("/a/b", 0); err != nil {
		t.Fatalf("mkdir /a/b: %s", err)
	}
	if err := a.Rename("/a", "/a/b/a"); err == nil {
		t.Errorf("expected rename of a directory into its own subtree to fail")
	}
}

func TestRenameOverwritesExistingFile(t *testing.T) {
	a := newArena(t)
	if err := a.Mknod("/a", 0); err != nil {
		t.Fatalf("mknod /a: %s", err)
	}
	if err := a.Mknod("/b", 0); err != nil {
		t.Fatalf("mknod /b: %s", err)
	}
	if _, err := a.Write("/a", 0, []byte("new")); err != nil {
		t.Fatalf("write /a: %s", err)
	}
	if err := a.Rename("/a", "/b"); err != nil {
		t.Fatalf("rename: %s", err)
	}
	out := make([]byte, 3)
	n, err := a.Read("/b", 0, out)
	if err != nil {
		t.Fatalf("read /b: %s", err)
	}
	if string(out[:n]) != "new" {
		t.Errorf("rename-overwrite did not replace target contents: got %q", out[:n])
	}
}

func TestUtimensAndAtimeOnReaddir(t *testing.T) {
	a := newArena(t)
	if err := a.Mkdir("/d", 0); err != nil {
		t.Fatalf("mkdir: %s", err)
	}
	stamp := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := a.Utimens("/d", stamp, stamp); err != nil {
		t.Fatalf("utimens: %s", err)
	}
	attr, err := a.Getattr("/d", 0, 0)
	if err != nil {
		t.Fatalf("getattr: %s", err)
	}
	if !attr.Mtime.Equal(stamp) {
		t.Errorf("mtime = %s, want %s", attr.Mtime, stamp)
	}

	if _, err := a.Readdir("/d"); err != nil {
		t.Fatalf("readdir: %s", err)
	}
	attr, err = a.Getattr("/d", 0, 0)
	if err != nil {
		t.Fatalf("getattr after readdir: %s", err)
	}
	if !attr.Atime.After(stamp) {
		t.Errorf("atime after readdir = %s, want later than %s", attr.Atime, stamp)
	}
}

func TestStatfsReportsFreeBlocks(t *testing.T) {
	a := newArena(t)
	before, err := a.Statfs()
	if err != nil {
		t.Fatalf("statfs: %s", err)
	}
	if err := a.Mknod("/f", 0); err != nil {
		t.Fatalf("mknod: %s", err)
	}
	after, err := a.Statfs()
	if err != nil {
		t.Fatalf("statfs: %s", err)
	}
	if after.FreeBlocks >= before.FreeBlocks {
		t.Errorf("free_blocks did not decrease after mknod: before=%d after=%d", before.FreeBlocks, after.FreeBlocks)
	}
	if after.AvailBlocks != after.FreeBlocks {
		t.Errorf("avail_blocks = %d, want equal to free_blocks %d", after.AvailBlocks, after.FreeBlocks)
	}
	if before.NameMax != 255 {
		t.Errorf("NameMax = %d, want 255", before.NameMax)
	}
}

func TestWriteFillsArenaThenENOSPCThenUnlinkRecovers(t *testing.T) {
	a := arenafs.NewHeapArena(80 * 1024) // small arena, easy to exhaust
	if err := a.Mknod("/a", 0); err != nil {
		t.Fatalf("mknod /a: %s", err)
	}
	if err := a.Mknod("/b", 0); err != nil {
		t.Fatalf("mknod /b: %s", err)
	}

	big := make([]byte, 64*1024)
	var lastErr error
	for i := 0; i < 4; i++ {
		if _, err := a.Write("/a", int64(i*len(big)), big); err != nil {
			lastErr = err
			break
		}
	}
	if lastErr == nil {
		t.Fatalf("expected ENOSPC to eventually occur on an 80KiB arena")
	}

	if err := a.Unlink("/b"); err != nil {
		t.Fatalf("unlink /b to free space: %s", err)
	}
	if err := a.Mknod("/c", 0); err != nil {
		t.Fatalf("mknod /c after freeing space: %s", err)
	}
}

func TestOpenOnMissingPathFails(t *testing.T) {
	a := newArena(t)
	if err := a.Open("/nope"); err == nil {
		t.Errorf("expected Open on a missing path to fail")
	}
}
