// Package memory implements the two allocators Program structures and tensor
// data live in: a bump Arena for metadata with an entire-run lifetime, and a
// first-fit free-list Heap for tensor data that individual operations may
// resize or free mid-run.
package memory

import "github.com/pkg/errors"

// ErrOutOfMemory is returned (wrapped) by Alloc/Realloc when the requested
// size cannot be satisfied.
var ErrOutOfMemory = errors.New("mathflow/memory: out of memory")

// Allocator is the common interface both allocators satisfy.
type Allocator interface {
	// Alloc returns a zeroed byte slice of the requested size, or an error
	// wrapping ErrOutOfMemory.
	Alloc(size int) ([]byte, error)
	// Realloc grows or shrinks a previously allocated slice, preserving its
	// content up to min(old, new) bytes.
	Realloc(buf []byte, newSize int) ([]byte, error)
	// Free releases buf. Arena.Free is a no-op; Heap.Free may coalesce.
	Free(buf []byte)
}
