// Package arena implements a bump allocator for interned string storage.
// Allocations are never individually freed; the whole arena is dropped at
// once with Reset or at process exit. Interned names borrow arena bytes for
// the lifetime of the process, which keeps name references down to plain
// integer indices.
package arena

import "github.com/Sumatoshi-tech/tracefang/pkg/units"

// DefaultBlockSize is the granularity at which the arena grows.
const DefaultBlockSize = 64 * units.KiB

// Arena is a monotonically growing block allocator. It is not safe for
// concurrent use; callers serialize access (the global interner holds a
// mutex around every allocation).
type Arena struct {
	blocks [][]byte
	used   int
}

// New returns an empty arena.
func New() *Arena {
	return &Arena{}
}

// Alloc returns a zeroed byte slice of length n carved out of the current
// block. A request that does not fit the remaining space of the current
// block reserves a new block; oversized requests get a dedicated block.
func (a *Arena) Alloc(n int) []byte {
	if len(a.blocks) == 0 || a.used+n > len(a.blocks[len(a.blocks)-1]) {
		size := DefaultBlockSize
		if n > size {
			size = n
		}

		a.blocks = append(a.blocks, make([]byte, size))
		a.used = 0
	}

	block := a.blocks[len(a.blocks)-1]
	region := block[a.used : a.used+n : a.used+n]
	a.used += n

	return region
}

// Copy allocates len(b) bytes and copies b into them.
func (a *Arena) Copy(b []byte) []byte {
	region := a.Alloc(len(b))
	copy(region, b)

	return region
}

// Reset drops every block. Previously returned regions must not be used
// afterwards.
func (a *Arena) Reset() {
	a.blocks = nil
	a.used = 0
}
