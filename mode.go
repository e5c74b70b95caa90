package arenafs

import (
	"io/fs"
)

// Internal modes are based on linux, so use these methods:
// based on: https://golang.org/src/os/stat_linux.go
//
// Non-goals (§1) mean only S_IFDIR/S_IFREG ever actually appear on an
// arenafs inode (no symlinks, devices, fifos, or sockets), so the
// teacher's full device/symlink/socket bit table is trimmed down to the
// two type bits this filesystem can actually produce; UnixToMode/
// ModeToUnix stay exported so the FUSE adapter
// (cmd/arenafsctl/mount_fuse.go) can hand getattr results straight to
// go-fuse's own fuse.Attr.Mode field.

const (
	S_IFMT  = 0xf000
	S_IFREG = 0x8000
	S_IFDIR = 0x4000

	S_ISVTX = 0x200
	S_ISGID = 0x400
	S_ISUID = 0x800

	S_IRUSR = 0x100
	S_IRGRP = 0x20
	S_IROTH = 0x4

	S_IWUSR = 0x80
	S_IWGRP = 0x10
	S_IWOTH = 0x2

	S_IXUSR = 0x40
	S_IXGRP = 0x8
	S_IXOTH = 0x1
)

func UnixToMode(mode uint32) fs.FileMode {
	res := fs.FileMode(mode & 0777)

	if mode&S_IFDIR == S_IFDIR {
		res |= fs.ModeDir
	}

	// extra flags
	if mode&S_ISGID == S_ISGID {
		res |= fs.ModeSetgid
	}

	if mode&S_ISUID == S_ISUID {
		res |= fs.ModeSetuid
	}

	if mode&S_ISVTX == S_ISVTX {
		res |= fs.ModeSticky
	}

	return res
}

func ModeToUnix(mode fs.FileMode) uint32 {
	res := uint32(mode.Perm())

	// type of file
	if mode&fs.ModeDir == fs.ModeDir {
		res |= S_IFDIR
	} else {
		res |= S_IFREG
	}

	// extra flags
	if mode&fs.ModeSetgid == fs.ModeSetgid {
		res |= S_ISGID
	}

	if mode&fs.ModeSetuid == fs.ModeSetuid {
		res |= S_ISUID
	}

	if mode&fs.ModeSticky == fs.ModeSticky {
		res |= S_ISVTX
	}

	return res
}
