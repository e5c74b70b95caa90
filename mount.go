package arenafs

import "os"

// Arena is the handle every C5 operation hangs off: the arena's backing
// bytes plus the lazily-initialized superblock view over them (§3, §4.1).
// It collapses the spec's explicit (arena_base, arena_size, error_out)
// triple (§6) into a receiver and a Go error return — idiomatic Go rather
// than C-shaped out-parameters.
//
// Arena carries no host pointers that get written into the bytes it
// wraps; buf itself may be backed by a plain heap slice (NewHeapArena) or
// an mmap'd file (persist.go's Open), and is free to move across an
// unmount/remount without invalidating anything stored inside it, per
// §3's position-independence invariant.
type Arena struct {
	buf []byte

	// file and mapped are set only when the arena is backed by a real
	// file via Open (persist.go); Close/Sync are no-ops otherwise.
	file   *os.File
	mapped bool
}

// NewHeapArena wraps a plain Go byte slice as an arena, for tests and for
// callers with no persistence requirement.
func NewHeapArena(size int) *Arena {
	return &Arena{buf: make([]byte, size)}
}

// superblock ensures C1 is initialized and returns the superblock view,
// per §4's "every operation ... first ensures C1 is initialized".
func (a *Arena) superblock() (*Superblock, error) {
	return EnsureInitialized(a.buf)
}

// Size reports the arena's total byte size.
func (a *Arena) Size() int {
	return len(a.buf)
}

// Bytes exposes the arena's backing bytes directly, for callers such as
// arenafsctl that need superblock-level access (format, fsck) rather than
// going through the C5 operation layer.
func (a *Arena) Bytes() []byte {
	return a.buf
}
