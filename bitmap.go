package arenafs

// bitmap.go implements C2, the block allocator (§4.2): a one-bit-per-block
// occupancy vector scanned for the lowest free index, with no coalescing
// and no locality guarantees, matching the teacher's table-reader
// discipline of reading raw bytes and interpreting them in place rather
// than maintaining a shadow cache.

// allocateBlockLocked scans the bitmap for the lowest-indexed zero bit,
// marks it allocated, decrements free_blocks, zero-fills the block, and
// returns its index. Named "locked" because the host adapter serializes
// all calls against a given arena (§5); there is no internal locking here.
func (s *Superblock) allocateBlockLocked() (uint32, error) {
	bm := s.bitmapBytes()
	total := int(s.BlockCount())
	for i := 0; i < total; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		if bm[byteIdx]&(1<<bitIdx) != 0 {
			continue
		}
		bm[byteIdx] |= 1 << bitIdx
		s.addFreeBlocks(-1)
		blk := s.block(uint32(i))
		for j := range blk {
			blk[j] = 0
		}
		return uint32(i), nil
	}
	return 0, ErrNoSpace
}

// freeBlockLocked clears the bit, increments free_blocks, and zero-fills
// the block. Double-free is a programming error (§4.2); in debug builds
// (-tags arenafs_debug) freeBlock below detects it before calling this.
func (s *Superblock) freeBlockLocked(i uint32) {
	bm := s.bitmapBytes()
	byteIdx, bitIdx := i/8, uint(i%8)
	bm[byteIdx] &^= 1 << bitIdx
	s.addFreeBlocks(1)
	blk := s.block(i)
	for j := range blk {
		blk[j] = 0
	}
}

// freeBlock frees block i, panicking on double-free when built with
// -tags arenafs_debug (§4.2: "must be detectable in debug builds").
func (s *Superblock) freeBlock(i uint32) {
	debugCheckFree(s, i)
	s.freeBlockLocked(i)
}

// rollbackJournal records every block a multi-allocation operation has
// allocated so far, so the operation can free them in reverse order on
// later failure, per §5 and §9 ("a simple fixed-capacity rollback journal
// on the call frame suffices"). mkdir allocates at most 2 blocks (inode +
// a parent dirent table block), rename at most 1 (a target dirent table
// block), and write an unbounded but typically small number, so the
// journal grows as needed rather than being
// hard-capped — a Go slice on the call frame plays the role the spec's
// "fixed-capacity" wording describes in a systems language without Go's
// slices.
type rollbackJournal struct {
	sb     *Superblock
	blocks []uint32
}

func (j *rollbackJournal) alloc() (uint32, error) {
	b, err := j.sb.allocateBlockLocked()
	if err != nil {
		return 0, err
	}
	j.blocks = append(j.blocks, b)
	return b, nil
}

// commit discards the journal without freeing anything: the operation
// succeeded and every allocated block is now reachable from the tree.
func (j *rollbackJournal) commit() {
	j.blocks = nil
}

// rollback frees every block allocated through this journal, in reverse
// allocation order, restoring free_blocks and the bitmap to their
// pre-call values.
func (j *rollbackJournal) rollback() {
	for k := len(j.blocks) - 1; k >= 0; k-- {
		j.sb.freeBlockLocked(j.blocks[k])
	}
	j.blocks = nil
}
