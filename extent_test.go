package arenafs

import (
	"bytes"
	"testing"
	"time"
)

func newTestFileInode(t *testing.T, sb *Superblock) *inodeView {
	t.Helper()
	blk, err := sb.allocateBlockLocked()
	if err != nil {
		t.Fatalf("alloc inode block: %s", err)
	}
	f := &inodeView{sb: sb, block: blk}
	f.init(KindFile, "f", 0, time.Now())
	return f
}

func TestFileWriteReadRoundTrip(t *testing.T) {
	buf := make([]byte, 1024*1024)
	sb, err := EnsureInitialized(buf)
	if err != nil {
		t.Fatalf("EnsureInitialized: %s", err)
	}
	f := newTestFileInode(t, sb)

	data := bytes.Repeat([]byte("abcdefgh"), 1024) // 8KiB, spans 2+ blocks
	j := &rollbackJournal{sb: sb}
	n, err := fileWrite(sb, f, 0, data, j)
	if err != nil {
		t.Fatalf("fileWrite: %s", err)
	}
	if n != len(data) {
		t.Fatalf("fileWrite returned %d, want %d", n, len(data))
	}
	j.commit()

	out := make([]byte, len(data))
	got := fileRead(sb, f, 0, out)
	if got != len(data) {
		t.Fatalf("fileRead returned %d, want %d", got, len(data))
	}
	if !bytes.Equal(out, data) {
		t.Errorf("round-tripped data does not match")
	}
}

func TestFileWriteCrossingBlockBoundaryAllocatesChainedTable(t *testing.T) {
	buf := make([]byte, 4*1024*1024)
	sb, err := EnsureInitialized(buf)
	if err != nil {
		t.Fatalf("EnsureInitialized: %s", err)
	}
	f := newTestFileInode(t, sb)

	// extentSlots (511) blocks fill exactly one table block; one more
	// forces a second table block to be chained.
	data := make([]byte, (extentSlots+1)*blockSize)
	for i := range data {
		data[i] = byte(i)
	}

	j := &rollbackJournal{sb: sb}
	if _, err := fileWrite(sb, f, 0, data, j); err != nil {
		t.Fatalf("fileWrite: %s", err)
	}
	j.commit()

	table := f.TableBlock()
	if extentChainNext(sb.block(table)) == noNext {
		t.Errorf("expected a second chained extent table block after writing past %d blocks", extentSlots)
	}

	out := make([]byte, len(data))
	fileRead(sb, f, 0, out)
	if !bytes.Equal(out, data) {
		t.Errorf("data corrupted across chained extent tables")
	}
}

func TestFileReadOverHoleReturnsZeros(t *testing.T) {
	buf := make([]byte, 1024*1024)
	sb, err := EnsureInitialized(buf)
	if err != nil {
		t.Fatalf("EnsureInitialized: %s", err)
	}
	f := newTestFileInode(t, sb)

	j := &rollbackJournal{sb: sb}
	// write only at offset 3*blockSize, leaving a hole before it
	tail := []byte("hello")
	if _, err := fileWrite(sb, f, 3*blockSize, tail, j); err != nil {
		t.Fatalf("fileWrite: %s", err)
	}
	j.commit()

	out := make([]byte, blockSize)
	fileRead(sb, f, 0, out)
	for i, b := range out {
		if b != 0 {
			t.Fatalf("byte %d of hole region is %d, want 0", i, b)
		}
	}
}

func TestFileTruncateShrinkThenGrowReadsZeros(t *testing.T) {
	buf := make([]byte, 1024*1024)
	sb, err := EnsureInitialized(buf)
	if err != nil {
		t.Fatalf("EnsureInitialized: %s", err)
	}
	f := newTestFileInode(t, sb)

	j := &rollbackJournal{sb: sb}
	data := bytes.Repeat([]byte{0xAA}, 2*blockSize)
	if _, err := fileWrite(sb, f, 0, data, j); err != nil {
		t.Fatalf("fileWrite: %s", err)
	}
	j.commit()

	before := sb.FreeBlocks()
	fileTruncate(sb, f, 0)
	after := sb.FreeBlocks()
	if after <= before {
		t.Errorf("truncate to 0 did not free data blocks: before=%d after=%d", before, after)
	}
	if f.Size() != 0 {
		t.Errorf("size after truncate = %d, want 0", f.Size())
	}

	fileTruncate(sb, f, uint64(blockSize))
	out := make([]byte, blockSize)
	fileRead(sb, f, 0, out)
	for i, b := range out {
		if b != 0 {
			t.Fatalf("byte %d after grow-from-zero is %d, want 0", i, b)
		}
	}
}
