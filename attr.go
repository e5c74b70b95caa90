package arenafs

import (
	"io/fs"
	"time"
)

// Attr is the result of Getattr (§4.5), a plain value type standing in
// for the spec's out-parameter struct. Unlike the teacher's fileinfo
// (file.go), this has no obligation to satisfy io/fs.FileInfo: the core
// has no fs.FS surface of its own, only the adapter-facing operations of
// §6, so the adapter (cmd/arenafsctl/mount_fuse.go) maps Attr onto
// whichever host type it needs (fuse.Attr, os.FileInfo, ...).
type Attr struct {
	Mode  fs.FileMode
	Size  uint64
	Nlink uint32
	UID   uint32
	GID   uint32
	Atime time.Time
	Mtime time.Time
}

// StatfsResult is the result of Statfs (§4.5). AvailBlocks mirrors
// FreeBlocks: POSIX statfs reports free and available blocks (f_bfree
// and f_bavail) separately since some filesystems reserve a slice of
// free space for privileged writers, but arenafs makes no such
// reservation, so the two are always equal here.
type StatfsResult struct {
	BlockSize   uint32
	BlockCount  uint32
	FreeBlocks  uint32
	AvailBlocks uint32
	NameMax     uint32
}
