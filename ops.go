package arenafs

import (
	"errors"
	"log"
	"time"
)

// ops.go implements C5, the operation layer (§4.5, §6): the thirteen
// adapter-facing operations, each beginning by ensuring C1 is initialized
// and resolving its path through C4 before manipulating C3 entities
// through C2. Multi-allocation operations (mknod, mkdir, write, rename)
// use a rollbackJournal (bitmap.go) so a mid-operation ENOSPC leaves the
// bitmap and free_blocks exactly as they were at entry, per §5/§9.

func asErrno(err error) Errno {
	var e Errno
	if errors.As(err, &e) {
		return e
	}
	return ErrFault
}

// Getattr implements §4.5's getattr. reqUID/reqGID are echoed back
// verbatim (non-goals exclude real multi-user permission enforcement,
// §1), matching "uid/gid echo the caller-supplied values".
func (a *Arena) Getattr(path string, reqUID, reqGID uint32) (Attr, error) {
	sb, err := a.superblock()
	if err != nil {
		return Attr{}, err
	}
	block, err := Resolve(sb, path)
	if err != nil {
		return Attr{}, err
	}
	ino := &inodeView{sb: sb, block: block}

	nlink := uint32(1)
	size := uint64(0)
	if ino.Kind() == KindDir {
		nlink = 2 + countSubdirs(sb, ino)
		size = 0
	} else {
		size = ino.Size()
	}

	return Attr{
		Mode:  ino.Mode(),
		Size:  size,
		Nlink: nlink,
		UID:   reqUID,
		GID:   reqGID,
		Atime: ino.ATime(),
		Mtime: ino.MTime(),
	}, nil
}

func countSubdirs(sb *Superblock, d *inodeView) uint32 {
	var n uint32
	for _, e := range dirIterate(sb, d) {
		child := &inodeView{sb: sb, block: e.child}
		if child.Kind() == KindDir {
			n++
		}
	}
	return n
}

// Readdir implements §4.5's readdir: the list of child names excluding
// "." and "..", updating the directory's atime. The spec's caller-owned
// names_out array (§6) collapses into a plain []string return — the
// adapter (cmd/arenafsctl/mount_fuse.go) is the one with an allocator
// callback to satisfy, not this package.
func (a *Arena) Readdir(path string) ([]string, error) {
	sb, err := a.superblock()
	if err != nil {
		return nil, err
	}
	block, err := Resolve(sb, path)
	if err != nil {
		return nil, err
	}
	d := &inodeView{sb: sb, block: block}
	if d.Kind() != KindDir {
		return nil, newErr("readdir", path, ErrNotDir)
	}

	entries := dirIterate(sb, d)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	d.setATime(time.Now())
	return names, nil
}

// Mknod implements §4.5's mknod: creates a zero-size file inode and
// inserts it into the parent directory, rolling back any partial
// allocation on failure.
func (a *Arena) Mknod(path string, uid uint32) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}
	return createInode(sb, path, uid, KindFile)
}

// Mkdir implements §4.5's mkdir: as Mknod, but initializes a directory
// inode.
func (a *Arena) Mkdir(path string, uid uint32) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}
	return createInode(sb, path, uid, KindDir)
}

func createInode(sb *Superblock, path string, uid uint32, kind Kind) error {
	parentBlock, name, exists, err := ResolveParent(sb, path)
	if err != nil {
		return err
	}
	if exists {
		return newErr("create", path, ErrExist)
	}

	parent := &inodeView{sb: sb, block: parentBlock}

	j := &rollbackJournal{sb: sb}
	childBlock, aerr := j.alloc()
	if aerr != nil {
		j.rollback()
		return newErr("create", path, asErrno(aerr))
	}

	child := &inodeView{sb: sb, block: childBlock}
	child.init(kind, name, uid, time.Now())

	if ierr := dirInsert(sb, parent, name, childBlock, j); ierr != nil {
		j.rollback()
		return newErr("create", path, asErrno(ierr))
	}

	j.commit()
	return nil
}

// Unlink implements §4.5's unlink: fails EISDIR on a directory, otherwise
// frees data blocks, the extent table chain, and the inode block, then
// removes the parent dirent.
func (a *Arena) Unlink(path string) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}
	parentBlock, name, exists, err := ResolveParent(sb, path)
	if err != nil {
		return err
	}
	if !exists {
		return newErr("unlink", path, ErrNoEnt)
	}
	parent := &inodeView{sb: sb, block: parentBlock}
	childBlock, _ := dirLookup(sb, parent, name)
	child := &inodeView{sb: sb, block: childBlock}
	if child.Kind() == KindDir {
		return newErr("unlink", path, ErrIsDir)
	}

	fileFreeExtents(sb, child)
	sb.freeBlock(childBlock)
	if rerr := dirRemove(sb, parent, name); rerr != nil {
		log.Printf("arenafs: unlink %s: parent dirent already gone: %s", path, rerr)
	}
	return nil
}

// Rmdir implements §4.5's rmdir: fails ENOTDIR if not a directory,
// ENOTEMPTY if non-empty, EBUSY on the root.
func (a *Arena) Rmdir(path string) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}
	if len(splitPath(path)) == 0 {
		// path is "/" (or reduces to it via "." components):
		// ResolveParent rejects this with ErrInvalid before ever reaching
		// the root-block check below, so the root case has to be caught
		// here instead.
		return newErr("rmdir", path, ErrBusy)
	}
	parentBlock, name, exists, err := ResolveParent(sb, path)
	if err != nil {
		return err
	}
	if !exists {
		return newErr("rmdir", path, ErrNoEnt)
	}
	parent := &inodeView{sb: sb, block: parentBlock}
	childBlock, _ := dirLookup(sb, parent, name)
	if childBlock == sb.RootInodeBlock() {
		return newErr("rmdir", path, ErrBusy)
	}
	child := &inodeView{sb: sb, block: childBlock}
	if child.Kind() != KindDir {
		return newErr("rmdir", path, ErrNotDir)
	}
	if child.ChildCount() > 0 {
		return newErr("rmdir", path, ErrNotEmpty)
	}

	dirFreeTable(sb, child)
	sb.freeBlock(childBlock)
	if rerr := dirRemove(sb, parent, name); rerr != nil {
		log.Printf("arenafs: rmdir %s: parent dirent already gone: %s", path, rerr)
	}
	return nil
}

// Rename implements §4.5's rename: overwrite semantics, same-name no-op,
// and subtree-cycle rejection, with the source dirent restored if the
// destination insert fails.
func (a *Arena) Rename(from, to string) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}

	fromParentBlock, fromName, fromExists, err := ResolveParent(sb, from)
	if err != nil {
		return err
	}
	if !fromExists {
		return newErr("rename", from, ErrNoEnt)
	}
	toParentBlock, toName, toExists, err := ResolveParent(sb, to)
	if err != nil {
		return err
	}

	if fromParentBlock == toParentBlock && fromName == toName {
		return nil
	}

	fromParent := &inodeView{sb: sb, block: fromParentBlock}
	toParent := &inodeView{sb: sb, block: toParentBlock}

	fromChildBlock, _ := dirLookup(sb, fromParent, fromName)
	fromChild := &inodeView{sb: sb, block: fromChildBlock}
	fromKind := fromChild.Kind()

	if fromKind == KindDir {
		toComponents := splitPath(to)
		_, ancestry, werr := walk(sb, toComponents[:len(toComponents)-1])
		if werr == nil {
			for _, b := range ancestry {
				if b == fromChildBlock {
					return newErr("rename", to, ErrInvalid)
				}
			}
		}
	}

	if toExists {
		toChildBlock, _ := dirLookup(sb, toParent, toName)
		toChild := &inodeView{sb: sb, block: toChildBlock}
		toKind := toChild.Kind()

		switch {
		case fromKind == KindFile && toKind == KindDir:
			return newErr("rename", to, ErrIsDir)
		case fromKind == KindDir && toKind == KindFile:
			return newErr("rename", to, ErrNotDir)
		case toKind == KindDir && toChild.ChildCount() > 0:
			return newErr("rename", to, ErrNotEmpty)
		}

		if toKind == KindDir {
			dirFreeTable(sb, toChild)
		} else {
			fileFreeExtents(sb, toChild)
		}
		sb.freeBlock(toChildBlock)
		if rerr := dirRemove(sb, toParent, toName); rerr != nil {
			log.Printf("arenafs: rename %s -> %s: overwritten dirent already gone: %s", from, to, rerr)
		}
	}

	if rerr := dirRemove(sb, fromParent, fromName); rerr != nil {
		return newErr("rename", from, asErrno(rerr))
	}

	j := &rollbackJournal{sb: sb}
	if ierr := dirInsert(sb, toParent, toName, fromChildBlock, j); ierr != nil {
		j.rollback()
		// restore the source dirent, per §4.5.
		restore := &rollbackJournal{sb: sb}
		if rerr := dirInsert(sb, fromParent, fromName, fromChildBlock, restore); rerr != nil {
			restore.rollback()
			log.Printf("arenafs: rename %s -> %s: failed to restore source dirent after insert failure: %s", from, to, rerr)
		} else {
			restore.commit()
		}
		return newErr("rename", to, asErrno(ierr))
	}
	j.commit()
	return nil
}

// Truncate implements §4.5's truncate, additionally updating mtime.
func (a *Arena) Truncate(path string, newSize uint64) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}
	block, err := Resolve(sb, path)
	if err != nil {
		return err
	}
	f := &inodeView{sb: sb, block: block}
	if f.Kind() != KindFile {
		return newErr("truncate", path, ErrIsDir)
	}
	fileTruncate(sb, f, newSize)
	f.setMTime(time.Now())
	return nil
}

// Open implements §4.5's open: success if the path exists; the core keeps
// no descriptor state (the adapter is stateless for file handles).
func (a *Arena) Open(path string) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}
	_, err = Resolve(sb, path)
	return err
}

// Read implements §4.5's read, updating atime.
func (a *Arena) Read(path string, offset int64, out []byte) (int, error) {
	sb, err := a.superblock()
	if err != nil {
		return 0, err
	}
	block, err := Resolve(sb, path)
	if err != nil {
		return 0, err
	}
	f := &inodeView{sb: sb, block: block}
	if f.Kind() != KindFile {
		return 0, newErr("read", path, ErrIsDir)
	}
	n := fileRead(sb, f, offset, out)
	f.setATime(time.Now())
	return n, nil
}

// Write implements §4.5's write, updating atime and mtime.
func (a *Arena) Write(path string, offset int64, data []byte) (int, error) {
	sb, err := a.superblock()
	if err != nil {
		return 0, err
	}
	block, err := Resolve(sb, path)
	if err != nil {
		return 0, err
	}
	f := &inodeView{sb: sb, block: block}
	if f.Kind() != KindFile {
		return 0, newErr("write", path, ErrIsDir)
	}

	j := &rollbackJournal{sb: sb}
	n, werr := fileWrite(sb, f, offset, data, j)
	if werr != nil {
		j.rollback()
		return 0, newErr("write", path, asErrno(werr))
	}
	j.commit()

	now := time.Now()
	f.setATime(now)
	f.setMTime(now)
	return n, nil
}

// Utimens implements §4.5's utimens: sets atime/mtime to caller-supplied
// values, which may be in the past or future.
func (a *Arena) Utimens(path string, atime, mtime time.Time) error {
	sb, err := a.superblock()
	if err != nil {
		return err
	}
	block, err := Resolve(sb, path)
	if err != nil {
		return err
	}
	ino := &inodeView{sb: sb, block: block}
	ino.setATime(atime)
	ino.setMTime(mtime)
	return nil
}

// Statfs implements §4.5's statfs. AvailBlocks echoes FreeBlocks since
// arenafs reserves no free space for privileged writers.
func (a *Arena) Statfs() (StatfsResult, error) {
	sb, err := a.superblock()
	if err != nil {
		return StatfsResult{}, err
	}
	return StatfsResult{
		BlockSize:   sb.BlockSize(),
		BlockCount:  sb.BlockCount(),
		FreeBlocks:  sb.FreeBlocks(),
		AvailBlocks: sb.FreeBlocks(),
		NameMax:     maxNameLen,
	}, nil
}
