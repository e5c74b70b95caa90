//go:build !arenafs_debug

package arenafs

// debugCheckFree is a no-op in release builds. The debug build
// (-tags arenafs_debug, see debug_on.go) checks the block's bit in the
// allocation bitmap and panics on double-free, per §4.2.
func debugCheckFree(s *Superblock, i uint32) {}
