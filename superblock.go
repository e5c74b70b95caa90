package arenafs

import (
	"encoding/binary"
	"time"
)

// Superblock is a typed view over the fixed-layout record at arena offset
// 0, plus the free-block bitmap immediately following it (§3, §4.1). It
// never holds a host pointer into the arena across calls; every accessor
// re-derives its slice from buf each time it is called, so a Superblock
// value is safe to keep around only as long as the underlying arena does
// not move (Arena in mount.go builds a fresh Superblock for every
// operation).
type Superblock struct {
	buf []byte // the full arena, base B at index 0
}

func (s *Superblock) field(off int) []byte {
	return s.buf[off : off+4]
}

func (s *Superblock) Magic() uint32          { return binary.LittleEndian.Uint32(s.field(0)) }
func (s *Superblock) BlockSize() uint32      { return binary.LittleEndian.Uint32(s.field(4)) }
func (s *Superblock) BlockCount() uint32     { return binary.LittleEndian.Uint32(s.field(8)) }
func (s *Superblock) FreeBlocks() uint32     { return binary.LittleEndian.Uint32(s.field(12)) }
func (s *Superblock) BitmapOffset() uint32   { return binary.LittleEndian.Uint32(s.field(16)) }
func (s *Superblock) RootInodeBlock() uint32 { return binary.LittleEndian.Uint32(s.field(20)) }
func (s *Superblock) TotalSize() uint64      { return binary.LittleEndian.Uint64(s.buf[24:32]) }

func (s *Superblock) setMagic(v uint32)          { binary.LittleEndian.PutUint32(s.field(0), v) }
func (s *Superblock) setBlockSize(v uint32)      { binary.LittleEndian.PutUint32(s.field(4), v) }
func (s *Superblock) setBlockCount(v uint32)     { binary.LittleEndian.PutUint32(s.field(8), v) }
func (s *Superblock) setFreeBlocks(v uint32)     { binary.LittleEndian.PutUint32(s.field(12), v) }
func (s *Superblock) setBitmapOffset(v uint32)   { binary.LittleEndian.PutUint32(s.field(16), v) }
func (s *Superblock) setRootInodeBlock(v uint32) { binary.LittleEndian.PutUint32(s.field(20), v) }
func (s *Superblock) setTotalSize(v uint64)      { binary.LittleEndian.PutUint64(s.buf[24:32], v) }

func (s *Superblock) addFreeBlocks(delta int32) {
	s.setFreeBlocks(uint32(int32(s.FreeBlocks()) + delta))
}

// bitmapBytes returns the slice holding one bit per block.
func (s *Superblock) bitmapBytes() []byte {
	n := bitmapByteLen(int(s.BlockCount()))
	off := s.BitmapOffset()
	return s.buf[off : off+uint32(n)]
}

func bitmapByteLen(blockCount int) int {
	return (blockCount + 7) / 8
}

// blockRegionOffset is where block 0 begins: the bitmap, rounded up to the
// next block boundary, per §6 ("aligned up to the next 4096-byte boundary").
func (s *Superblock) blockRegionOffset() uint32 {
	end := s.BitmapOffset() + uint32(bitmapByteLen(int(s.BlockCount())))
	return alignUp(end, blockSize)
}

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) / align * align
}

// block returns the i-th block as a bounded slice of the arena.
func (s *Superblock) block(i uint32) []byte {
	off := s.blockRegionOffset() + i*blockSize
	return s.buf[off : off+blockSize]
}

// EnsureInitialized implements C1 (§4.1): if the arena already carries the
// magic sentinel, it is returned as-is with no writes. Otherwise the arena
// is treated as zero-filled and laid out: superblock, bitmap, block region,
// with the root directory inode allocated in the first free block.
func EnsureInitialized(arena []byte) (*Superblock, error) {
	if len(arena) < superblockBytes {
		return nil, newErr("mount", "/", ErrFault)
	}

	sb := &Superblock{buf: arena}
	if sb.Magic() == magic {
		return sb, nil
	}

	bitmapOff := uint32(superblockBytes)
	remaining := len(arena) - int(bitmapOff)
	if remaining <= 0 {
		return nil, newErr("mount", "/", ErrFault)
	}
	// Each block costs 4096 bytes of storage plus 1/8 byte of bitmap, so
	// solve for the largest block count that still fits.
	blockCount := uint32((remaining * 8) / (blockSize*8 + 1))
	// The block region starts at the next block boundary after the
	// bitmap, so drop blocks until that padding fits as well.
	for blockCount > 0 && alignUp(bitmapOff+uint32(bitmapByteLen(int(blockCount))), blockSize)+blockCount*blockSize > uint32(len(arena)) {
		blockCount--
	}
	if blockCount < 2 {
		return nil, newErr("mount", "/", ErrFault)
	}

	sb.setBlockSize(blockSize)
	sb.setBlockCount(blockCount)
	sb.setBitmapOffset(bitmapOff)
	sb.setTotalSize(uint64(len(arena)))

	regionEnd := sb.blockRegionOffset() + blockCount*blockSize
	if regionEnd > uint32(len(arena)) {
		return nil, newErr("mount", "/", ErrFault)
	}

	bm := sb.bitmapBytes()
	for i := range bm {
		bm[i] = 0
	}
	sb.setFreeBlocks(blockCount)

	rootBlock, err := sb.allocateBlockLocked()
	if err != nil {
		return nil, newErr("mount", "/", ErrFault)
	}
	sb.setRootInodeBlock(rootBlock)

	now := time.Now()
	ino := &inodeView{sb: sb, block: rootBlock}
	ino.init(KindDir, "/", 0, now)

	sb.setMagic(magic)
	return sb, nil
}

// CheckInvariants verifies testable properties 1-2 of §8: magic is the
// sentinel and free_blocks matches the bitmap's zero-bit count. It backs
// the `fsck` adapter command (SPEC_FULL.md §E.2).
func (s *Superblock) CheckInvariants() error {
	if s.Magic() != magic {
		return newErr("fsck", "/", ErrFault)
	}
	bm := s.bitmapBytes()
	zero := 0
	total := int(s.BlockCount())
	for i := 0; i < total; i++ {
		if bm[i/8]&(1<<uint(i%8)) == 0 {
			zero++
		}
	}
	if uint32(zero) != s.FreeBlocks() {
		return newErr("fsck", "/", ErrFault)
	}
	if !s.bitSet(s.RootInodeBlock()) {
		return newErr("fsck", "/", ErrFault)
	}
	return nil
}

func (s *Superblock) bitSet(i uint32) bool {
	bm := s.bitmapBytes()
	return bm[i/8]&(1<<uint(i%8)) != 0
}
