package arenafs

import "strings"

// path.go implements C4, the path resolver (§4.4): splitting an absolute
// path into components and walking from root to target.

// splitPath splits path on '/', dropping empty components (from "//" or a
// trailing "/") and "." components, per §4.4.
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" || c == "." {
			continue
		}
		out = append(out, c)
	}
	return out
}

// walk resolves components starting at the root inode block, honoring
// "." (already stripped by splitPath) and ".." (ascend to parent, root's
// parent is root). It returns the block index of each component's inode
// as it descends, so callers can recover the parent of the final
// component without a second walk.
func walk(sb *Superblock, components []string) (final uint32, ancestry []uint32, err error) {
	cur := sb.RootInodeBlock()
	ancestry = []uint32{cur}

	for _, c := range components {
		if len(c) > maxNameLen {
			return 0, nil, ErrNameTooLong
		}
		if c == ".." {
			if len(ancestry) > 1 {
				ancestry = ancestry[:len(ancestry)-1]
			}
			cur = ancestry[len(ancestry)-1]
			continue
		}

		ino := &inodeView{sb: sb, block: cur}
		if ino.Kind() != KindDir {
			return 0, nil, ErrNotDir
		}
		child, found := dirLookup(sb, ino, c)
		if !found {
			return 0, nil, ErrNoEnt
		}
		cur = child
		ancestry = append(ancestry, cur)
	}

	return cur, ancestry, nil
}

// Resolve implements C4's resolve(path): §4.4. An empty final component
// (path == "/") resolves to the root.
func Resolve(sb *Superblock, path string) (uint32, error) {
	final, _, err := walk(sb, splitPath(path))
	if err != nil {
		return 0, newErr("resolve", path, err.(Errno))
	}
	return final, nil
}

// ResolveParent implements C4's resolve_parent(path): §4.4. It fails with
// ENOENT only if a non-final component is missing; a missing final
// component is reported via ok=false so mknod/mkdir/rename can create it.
func ResolveParent(sb *Superblock, path string) (parent uint32, name string, ok bool, err error) {
	components := splitPath(path)
	if len(components) == 0 {
		// "/" has no parent to create under.
		return 0, "", false, newErr("resolve_parent", path, ErrInvalid)
	}

	name = components[len(components)-1]
	if len(name) > maxNameLen {
		return 0, "", false, newErr("resolve_parent", path, ErrNameTooLong)
	}

	parentComponents := components[:len(components)-1]
	parentBlock, _, werr := walk(sb, parentComponents)
	if werr != nil {
		return 0, "", false, newErr("resolve_parent", path, werr.(Errno))
	}

	parentIno := &inodeView{sb: sb, block: parentBlock}
	if parentIno.Kind() != KindDir {
		return 0, "", false, newErr("resolve_parent", path, ErrNotDir)
	}

	_, found := dirLookup(sb, parentIno, name)
	return parentBlock, name, found, nil
}
