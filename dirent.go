package arenafs

import "encoding/binary"

// dirent.go implements the directory half of C3 (§4.3, §6): a dense,
// insertion-ordered array of (name, child inode block) pairs, held across
// a chain of fixed-size dirent table blocks. Each block holds
// direntsPerBlock (15) entries of direntSize (260) bytes; the trailing 8
// bytes of the block hold the next chained block index, 0 meaning no next.
//
// The teacher's dirReader (dir.go) streams entries sequentially off a
// read-only, never-growing directory; here the table additionally grows
// (insert), shrinks (remove), and is randomly addressed (lookup), so the
// walk is expressed over direct block slices rather than an io.Reader.

type dirEntry struct {
	name  string
	child uint32
}

func direntSlot(blk []byte, slot int) []byte {
	off := slot * direntSize
	return blk[off : off+direntSize]
}

func readDirent(blk []byte, slot int) dirEntry {
	s := direntSlot(blk, slot)
	n := indexByte(s[:256], 0)
	if n < 0 {
		n = 256
	}
	return dirEntry{
		name:  string(s[:n]),
		child: binary.LittleEndian.Uint32(s[256:260]),
	}
}

func writeDirent(blk []byte, slot int, e dirEntry) {
	s := direntSlot(blk, slot)
	for i := range s[:256] {
		s[i] = 0
	}
	copy(s[:256], e.name)
	binary.LittleEndian.PutUint32(s[256:260], e.child)
}

func chainNext(blk []byte) uint32 {
	return binary.LittleEndian.Uint32(blk[direntChainOffset : direntChainOffset+4])
}

func setChainNext(blk []byte, next uint32) {
	binary.LittleEndian.PutUint32(blk[direntChainOffset:direntChainOffset+4], next)
}

// dirSlotCount returns how many of the direntsPerBlock slots in the
// n-th table block (0-indexed) are occupied, derived from the directory's
// total child count rather than a per-block counter.
func dirSlotCount(total uint32, blockIdx int) int {
	full := int(total) / direntsPerBlock
	if blockIdx < full {
		return direntsPerBlock
	}
	if blockIdx == full {
		return int(total) % direntsPerBlock
	}
	return 0
}

// dirLookup implements C3's lookup(D, name): §4.3.
func dirLookup(sb *Superblock, d *inodeView, name string) (uint32, bool) {
	table := d.TableBlock()
	total := d.ChildCount()
	blockIdx := 0
	for table != noNext {
		blk := sb.block(table)
		n := dirSlotCount(total, blockIdx)
		for i := 0; i < n; i++ {
			e := readDirent(blk, i)
			if e.name == name {
				return e.child, true
			}
		}
		table = chainNext(blk)
		blockIdx++
	}
	return 0, false
}

// dirInsert implements C3's insert(D, name, child): §4.3. Allocates a
// dirent table block on first insertion, and chains a new block when the
// current last block is full.
func dirInsert(sb *Superblock, d *inodeView, name string, child uint32, j *rollbackJournal) error {
	if len(name) > maxNameLen {
		return ErrNameTooLong
	}
	if _, found := dirLookup(sb, d, name); found {
		return ErrExist
	}

	total := d.ChildCount()
	firstBlock := d.TableBlock()

	if firstBlock == noNext {
		nb, err := j.alloc()
		if err != nil {
			return err
		}
		setChainNext(sb.block(nb), noNext)
		d.setTableBlock(nb)
		firstBlock = nb
	}

	// walk to the last block
	table := firstBlock
	blockIdx := 0
	for {
		blk := sb.block(table)
		next := chainNext(blk)
		if next == noNext {
			break
		}
		table = next
		blockIdx++
	}

	slot := dirSlotCount(total, blockIdx)
	if slot == direntsPerBlock {
		nb, err := j.alloc()
		if err != nil {
			return err
		}
		setChainNext(sb.block(nb), noNext)
		setChainNext(sb.block(table), nb)
		table = nb
		slot = 0
	}

	writeDirent(sb.block(table), slot, dirEntry{name: name, child: child})
	d.addChildCount(1)
	return nil
}

// dirRemove implements C3's remove(D, name): removes the entry and
// compacts by swapping with the last entry in the last table block; frees
// a table block when it becomes empty (§4.3).
func dirRemove(sb *Superblock, d *inodeView, name string) error {
	total := d.ChildCount()
	if total == 0 {
		return ErrNoEnt
	}

	table := d.TableBlock()
	blockIdx := 0
	targetTable := uint32(0)
	targetSlot := -1
	for table != noNext {
		blk := sb.block(table)
		n := dirSlotCount(total, blockIdx)
		for i := 0; i < n; i++ {
			if readDirent(blk, i).name == name {
				targetTable, targetSlot = table, i
			}
		}
		if chainNext(blk) == noNext {
			break
		}
		table = chainNext(blk)
		blockIdx++
	}
	if targetSlot < 0 {
		return ErrNoEnt
	}

	lastTable := table
	lastSlot := dirSlotCount(total, blockIdx) - 1
	lastEntry := readDirent(sb.block(lastTable), lastSlot)

	writeDirent(sb.block(targetTable), targetSlot, lastEntry)

	if lastSlot == 0 {
		// the last block is now empty: unlink and free it
		if blockIdx == 0 {
			d.setTableBlock(noNext)
		} else {
			prev, prevIdx := d.TableBlock(), 0
			for prevIdx < blockIdx-1 {
				prev = chainNext(sb.block(prev))
				prevIdx++
			}
			setChainNext(sb.block(prev), noNext)
		}
		sb.freeBlock(lastTable)
	}

	d.addChildCount(-1)
	return nil
}

// dirIterate implements C3's iterate(D): yields (name, child) pairs in
// stored order, used by readdir (§4.5).
func dirIterate(sb *Superblock, d *inodeView) []dirEntry {
	total := d.ChildCount()
	out := make([]dirEntry, 0, total)
	table := d.TableBlock()
	blockIdx := 0
	for table != noNext {
		blk := sb.block(table)
		n := dirSlotCount(total, blockIdx)
		for i := 0; i < n; i++ {
			out = append(out, readDirent(blk, i))
		}
		table = chainNext(blk)
		blockIdx++
	}
	return out
}

// dirFreeTable frees every block in a directory's dirent table chain,
// used by rmdir and by rename-overwrite's target deletion.
func dirFreeTable(sb *Superblock, d *inodeView) {
	table := d.TableBlock()
	for table != noNext {
		next := chainNext(sb.block(table))
		sb.freeBlock(table)
		table = next
	}
	d.setTableBlock(noNext)
}
