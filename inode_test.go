package arenafs

import (
	"testing"
	"time"
)

func TestInodeNameRoundTrip(t *testing.T) {
	buf := make([]byte, 256*1024)
	sb, err := EnsureInitialized(buf)
	if err != nil {
		t.Fatalf("EnsureInitialized: %s", err)
	}
	blk, err := sb.allocateBlockLocked()
	if err != nil {
		t.Fatalf("alloc: %s", err)
	}
	ino := &inodeView{sb: sb, block: blk}
	ino.init(KindFile, "hello.txt", 7, time.Now())

	if ino.Name() != "hello.txt" {
		t.Errorf("Name() = %q, want %q", ino.Name(), "hello.txt")
	}
	if ino.UID() != 7 {
		t.Errorf("UID() = %d, want 7", ino.UID())
	}
	if ino.Kind() != KindFile {
		t.Errorf("Kind() = %v, want KindFile", ino.Kind())
	}
	if ino.TableBlock() != noNext {
		t.Errorf("TableBlock() = %d, want noNext", ino.TableBlock())
	}
}

func TestInodeSetNameRejectsOversizedName(t *testing.T) {
	buf := make([]byte, 256*1024)
	sb, err := EnsureInitialized(buf)
	if err != nil {
		t.Fatalf("EnsureInitialized: %s", err)
	}
	blk, _ := sb.allocateBlockLocked()
	ino := &inodeView{sb: sb, block: blk}

	long := make([]byte, maxNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := ino.setName(string(long)); err != ErrNameTooLong {
		t.Errorf("setName err = %v, want ErrNameTooLong", err)
	}
}

func TestInodeModeByKind(t *testing.T) {
	buf := make([]byte, 256*1024)
	sb, err := EnsureInitialized(buf)
	if err != nil {
		t.Fatalf("EnsureInitialized: %s", err)
	}
	blk, _ := sb.allocateBlockLocked()
	ino := &inodeView{sb: sb, block: blk}

	ino.init(KindDir, "d", 0, time.Now())
	if !ino.Mode().IsDir() {
		t.Errorf("directory inode Mode() is not a directory")
	}

	ino.init(KindFile, "f", 0, time.Now())
	if ino.Mode().IsDir() {
		t.Errorf("file inode Mode() reports as a directory")
	}
}
