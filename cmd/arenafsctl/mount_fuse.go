//go:build fuse

package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/jbhuezo1/arenafs"
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount <image> <mountpoint>",
	Short: "Mount an arenafs image via FUSE (requires the fuse build tag)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := arenafs.Open(args[0], 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer a.Close()

		root := &arenaNode{a: a, path: "/"}
		server, err := fs.Mount(args[1], root, &fs.Options{
			MountOptions: fuse.MountOptions{FsName: "arenafs", Name: "arenafs"},
		})
		if err != nil {
			return fmt.Errorf("mount: %w", err)
		}
		server.Wait()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mountCmd)
}

// arenaNode is a go-fuse node backed by a path into an *arenafs.Arena,
// rather than by a stored inode number: every C5 operation already takes
// a path (§4's resolver re-walks from root each call), so that is what
// each node carries. This mirrors the teacher's inode_fuse.go in spirit —
// translate FUSE callbacks into the underlying filesystem's own
// operations — but against arenafs's path-based C5 layer instead of the
// teacher's inode-ref based one.
type arenaNode struct {
	fs.Inode
	a    *arenafs.Arena
	path string
}

var (
	_ fs.NodeLookuper  = (*arenaNode)(nil)
	_ fs.NodeReaddirer = (*arenaNode)(nil)
	_ fs.NodeGetattrer = (*arenaNode)(nil)
	_ fs.NodeSetattrer = (*arenaNode)(nil)
	_ fs.NodeOpener    = (*arenaNode)(nil)
	_ fs.NodeReader    = (*arenaNode)(nil)
	_ fs.NodeWriter    = (*arenaNode)(nil)
	_ fs.NodeCreater   = (*arenaNode)(nil)
	_ fs.NodeMkdirer   = (*arenaNode)(nil)
	_ fs.NodeUnlinker  = (*arenaNode)(nil)
	_ fs.NodeRmdirer   = (*arenaNode)(nil)
	_ fs.NodeRenamer   = (*arenaNode)(nil)
	_ fs.NodeStatfser  = (*arenaNode)(nil)
)

func childPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

func attrToFuse(attr arenafs.Attr, out *fuse.Attr) {
	out.Mode = arenafs.ModeToUnix(attr.Mode)
	out.Size = attr.Size
	out.Nlink = attr.Nlink
	out.Uid = attr.UID
	out.Gid = attr.GID
	out.SetTimes(&attr.Atime, &attr.Mtime, nil)
}

func (n *arenaNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := childPath(n.path, name)
	attr, err := n.a.Getattr(p, 0, 0)
	if err != nil {
		return nil, errnoOf(err)
	}
	attrToFuse(attr, &out.Attr)
	child := n.NewInode(ctx, &arenaNode{a: n.a, path: p}, fs.StableAttr{Mode: arenafs.ModeToUnix(attr.Mode) & fuse.S_IFMT})
	return child, 0
}

func (n *arenaNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	names, err := n.a.Readdir(n.path)
	if err != nil {
		return nil, errnoOf(err)
	}
	entries := make([]fuse.DirEntry, 0, len(names))
	for _, name := range names {
		attr, err := n.a.Getattr(childPath(n.path, name), 0, 0)
		if err != nil {
			continue
		}
		entries = append(entries, fuse.DirEntry{Name: name, Mode: arenafs.ModeToUnix(attr.Mode)})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *arenaNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.a.Getattr(n.path, 0, 0)
	if err != nil {
		return errnoOf(err)
	}
	attrToFuse(attr, &out.Attr)
	return 0
}

func (n *arenaNode) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := n.a.Truncate(n.path, size); err != nil {
			return errnoOf(err)
		}
	}
	if atime, ok := in.GetATime(); ok {
		if mtime, ok2 := in.GetMTime(); ok2 {
			if err := n.a.Utimens(n.path, atime, mtime); err != nil {
				return errnoOf(err)
			}
		}
	}
	attr, err := n.a.Getattr(n.path, 0, 0)
	if err != nil {
		return errnoOf(err)
	}
	attrToFuse(attr, &out.Attr)
	return 0
}

// Statfs implements fs.NodeStatfser, the one C5 op (§4.5) that isn't
// scoped to a single path: any node in the tree answers it the same way.
func (n *arenaNode) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	res, err := n.a.Statfs()
	if err != nil {
		return errnoOf(err)
	}
	out.Bsize = res.BlockSize
	out.Blocks = uint64(res.BlockCount)
	out.Bfree = uint64(res.FreeBlocks)
	out.Bavail = uint64(res.AvailBlocks)
	out.Files = uint64(res.BlockCount)
	out.Ffree = uint64(res.FreeBlocks)
	out.NameLen = res.NameMax
	return 0
}

func (n *arenaNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if err := n.a.Open(n.path); err != nil {
		return nil, 0, errnoOf(err)
	}
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *arenaNode) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	nr, err := n.a.Read(n.path, off, dest)
	if err != nil {
		return nil, errnoOf(err)
	}
	return fuse.ReadResultData(dest[:nr]), 0
}

func (n *arenaNode) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	nw, err := n.a.Write(n.path, off, data)
	if err != nil {
		return 0, errnoOf(err)
	}
	return uint32(nw), 0
}

func (n *arenaNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	p := childPath(n.path, name)
	if err := n.a.Mknod(p, 0); err != nil {
		return nil, nil, 0, errnoOf(err)
	}
	attr, err := n.a.Getattr(p, 0, 0)
	if err != nil {
		return nil, nil, 0, errnoOf(err)
	}
	attrToFuse(attr, &out.Attr)
	child := n.NewInode(ctx, &arenaNode{a: n.a, path: p}, fs.StableAttr{Mode: fuse.S_IFREG})
	return child, nil, 0, 0
}

func (n *arenaNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	p := childPath(n.path, name)
	if err := n.a.Mkdir(p, 0); err != nil {
		return nil, errnoOf(err)
	}
	attr, err := n.a.Getattr(p, 0, 0)
	if err != nil {
		return nil, errnoOf(err)
	}
	attrToFuse(attr, &out.Attr)
	child := n.NewInode(ctx, &arenaNode{a: n.a, path: p}, fs.StableAttr{Mode: fuse.S_IFDIR})
	return child, 0
}

func (n *arenaNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return errnoOf(n.a.Unlink(childPath(n.path, name)))
}

func (n *arenaNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return errnoOf(n.a.Rmdir(childPath(n.path, name)))
}

func (n *arenaNode) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	dst, ok := newParent.(*arenaNode)
	if !ok {
		return syscall.EINVAL
	}
	return errnoOf(n.a.Rename(childPath(n.path, name), childPath(dst.path, newName)))
}

// errnoOf maps an arenafs error (wrapping an Errno, see errors.go) to the
// syscall.Errno go-fuse expects back from every node method.
func errnoOf(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	var e arenafs.Errno
	if !arenafs.AsErrno(err, &e) {
		return syscall.EIO
	}
	switch e {
	case arenafs.ErrFault:
		return syscall.EFAULT
	case arenafs.ErrNoEnt:
		return syscall.ENOENT
	case arenafs.ErrNotDir:
		return syscall.ENOTDIR
	case arenafs.ErrIsDir:
		return syscall.EISDIR
	case arenafs.ErrExist:
		return syscall.EEXIST
	case arenafs.ErrNotEmpty:
		return syscall.ENOTEMPTY
	case arenafs.ErrInvalid:
		return syscall.EINVAL
	case arenafs.ErrNameTooLong:
		return syscall.ENAMETOOLONG
	case arenafs.ErrNoSpace:
		return syscall.ENOSPC
	case arenafs.ErrBusy:
		return syscall.EBUSY
	default:
		return syscall.EIO
	}
}
