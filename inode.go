package arenafs

import (
	"encoding/binary"
	"io/fs"
	"time"
)

// inodeView is a typed view over the inode record stored at the start of
// its own block (§3). It stores only the block index and re-slices the
// owning Superblock's arena on every access, so nothing it writes into the
// arena depends on the arena's virtual address (§3's position-independence
// invariant). Like its Superblock, a view is valid only while the arena it
// was built over stays where it is.
type inodeView struct {
	sb    *Superblock
	block uint32 // this inode's own block index
}

func (i *inodeView) bytes() []byte {
	return i.sb.block(i.block)
}

func (i *inodeView) Kind() Kind {
	return Kind(i.bytes()[inoOffKind])
}

func (i *inodeView) setKind(k Kind) {
	i.bytes()[inoOffKind] = byte(k)
}

func (i *inodeView) Name() string {
	b := i.bytes()[inoOffName : inoOffName+256]
	n := indexByte(b, 0)
	if n < 0 {
		n = len(b)
	}
	return string(b[:n])
}

func (i *inodeView) setName(name string) error {
	if len(name) > maxNameLen {
		return ErrNameTooLong
	}
	b := i.bytes()[inoOffName : inoOffName+256]
	for j := range b {
		b[j] = 0
	}
	copy(b, name)
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func (i *inodeView) UID() uint32 {
	return binary.LittleEndian.Uint32(i.bytes()[inoOffUID : inoOffUID+4])
}

func (i *inodeView) setUID(uid uint32) {
	binary.LittleEndian.PutUint32(i.bytes()[inoOffUID:inoOffUID+4], uid)
}

func (i *inodeView) Size() uint64 {
	return binary.LittleEndian.Uint64(i.bytes()[inoOffSize : inoOffSize+8])
}

func (i *inodeView) setSize(sz uint64) {
	binary.LittleEndian.PutUint64(i.bytes()[inoOffSize:inoOffSize+8], sz)
}

func (i *inodeView) ATime() time.Time {
	return time.Unix(0, int64(binary.LittleEndian.Uint64(i.bytes()[inoOffAtime:inoOffAtime+8])))
}

func (i *inodeView) setATime(t time.Time) {
	binary.LittleEndian.PutUint64(i.bytes()[inoOffAtime:inoOffAtime+8], uint64(t.UnixNano()))
}

func (i *inodeView) MTime() time.Time {
	return time.Unix(0, int64(binary.LittleEndian.Uint64(i.bytes()[inoOffMtime:inoOffMtime+8])))
}

func (i *inodeView) setMTime(t time.Time) {
	binary.LittleEndian.PutUint64(i.bytes()[inoOffMtime:inoOffMtime+8], uint64(t.UnixNano()))
}

// TableBlock is the extent_table_block for files, or dirent_table_block
// for directories (§3). A value of noNext means "not yet allocated"
// (lazy allocation on first write/insert, §4.1).
func (i *inodeView) TableBlock() uint32 {
	return binary.LittleEndian.Uint32(i.bytes()[inoOffTableBlock : inoOffTableBlock+4])
}

func (i *inodeView) setTableBlock(b uint32) {
	binary.LittleEndian.PutUint32(i.bytes()[inoOffTableBlock:inoOffTableBlock+4], b)
}

func (i *inodeView) ChildCount() uint32 {
	return binary.LittleEndian.Uint32(i.bytes()[inoOffChildCount : inoOffChildCount+4])
}

func (i *inodeView) setChildCount(n uint32) {
	binary.LittleEndian.PutUint32(i.bytes()[inoOffChildCount:inoOffChildCount+4], n)
}

func (i *inodeView) addChildCount(delta int32) {
	i.setChildCount(uint32(int32(i.ChildCount()) + delta))
}

// init stamps a freshly allocated block as a new inode record. Used by
// EnsureInitialized for the root directory and by mknod/mkdir for every
// other inode.
func (i *inodeView) init(k Kind, name string, uid uint32, now time.Time) {
	i.setKind(k)
	i.setName(name)
	i.setUID(uid)
	i.setSize(0)
	i.setATime(now)
	i.setMTime(now)
	i.setTableBlock(noNext)
	i.setChildCount(0)
}

// Mode synthesizes the fs.FileMode bits for getattr (§4.5): fixed 0755
// permission bits plus the type bit, no symlinks/devices/sockets since
// those are explicit non-goals (§1).
func (i *inodeView) Mode() fs.FileMode {
	switch i.Kind() {
	case KindDir:
		return fs.ModeDir | 0755
	default:
		return 0755
	}
}
