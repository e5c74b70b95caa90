//go:build arenafs_debug

package arenafs

import "fmt"

// debugCheckFree panics if block i is already free, catching a double-free
// before the bitmap is touched again. Built only with -tags arenafs_debug
// per §4.2 ("Double-free is a programming error and must be detectable in
// debug builds").
func debugCheckFree(s *Superblock, i uint32) {
	if !s.bitSet(i) {
		panic(fmt.Sprintf("arenafs: double free of block %d", i))
	}
}
