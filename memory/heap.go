package memory

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
)

// blockHeader precedes every block (free or used) in a Heap's backing
// buffer. size excludes the header itself.
type blockHeader struct {
	size   int
	isFree bool
	next   int // byte offset of the next block, -1 at end of buffer
}

const headerSize = int(unsafe.Sizeof(blockHeader{}))

// Heap is a first-fit free-list allocator over a fixed-size backing buffer,
// intended for tensor data that individual operations resize or free over
// an engine's run (as opposed to Arena, used for Program/IR metadata that
// lives for the whole run). Headers are explicit and stored inline; split on
// allocation when the remainder block is usefully large, and coalesced with
// both neighbours on free.
type Heap struct {
	mu   sync.Mutex
	buf  []byte
	head int // offset of first block; -1 if buf empty

	used, peak int
	allocCount int
}

// NewHeap constructs a Heap over a freshly allocated buffer of size bytes,
// seeded with one large free block spanning the whole buffer.
func NewHeap(size int) *Heap {
	h := &Heap{buf: make([]byte, size)}
	if size > headerSize {
		h.putHeader(0, blockHeader{size: size - headerSize, isFree: true, next: -1})
		h.head = 0
	} else {
		h.head = -1
	}
	return h
}

func (h *Heap) header(off int) blockHeader {
	return *(*blockHeader)(unsafe.Pointer(&h.buf[off]))
}

func (h *Heap) putHeader(off int, hdr blockHeader) {
	*(*blockHeader)(unsafe.Pointer(&h.buf[off])) = hdr
}

// Alloc finds the first free block large enough for size bytes (first-fit),
// splitting it if the remainder can itself hold a header plus Alignment
// bytes, and returns a zeroed payload slice of length size whose capacity is
// size rounded up to a multiple of Alignment. The payload starts right after
// the block's header; its address is not rounded up to Alignment.
func (h *Heap) Alloc(size int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	need := int(AlignUp(uintptr(size)))
	off := h.head
	for off != -1 {
		hdr := h.header(off)
		if hdr.isFree && hdr.size >= need {
			h.splitBlock(off, hdr, need)
			hdr = h.header(off)
			hdr.isFree = false
			h.putHeader(off, hdr)
			h.used += hdr.size
			if h.used > h.peak {
				h.peak = h.used
			}
			h.allocCount++
			payload := h.buf[off+headerSize : off+headerSize+size : off+headerSize+hdr.size]
			for i := range payload {
				payload[i] = 0
			}
			return payload, nil
		}
		off = hdr.next
	}
	return nil, errors.Wrapf(ErrOutOfMemory, "heap: no free block for %d bytes", size)
}

// splitBlock shrinks the free block at off to exactly need bytes if the
// remainder can hold a header plus at least Alignment bytes of payload,
// inserting a new free block immediately after.
func (h *Heap) splitBlock(off int, hdr blockHeader, need int) {
	remainder := hdr.size - need
	if remainder < headerSize+Alignment {
		return
	}
	newOff := off + headerSize + need
	h.putHeader(newOff, blockHeader{size: remainder - headerSize, isFree: true, next: hdr.next})
	hdr.size = need
	hdr.next = newOff
	h.putHeader(off, hdr)
}

// Realloc always allocates a fresh block, copies min(old,new) bytes, then
// frees the old block; it never resizes a block in place.
func (h *Heap) Realloc(buf []byte, newSize int) ([]byte, error) {
	out, err := h.Alloc(newSize)
	if err != nil {
		return nil, err
	}
	n := len(buf)
	if newSize < n {
		n = newSize
	}
	copy(out, buf[:n])
	h.Free(buf)
	return out, nil
}

// Free marks the block owning buf as free and coalesces with the
// immediately-following block (singly-linked walk) and with the preceding
// block (scan from the buffer origin — see DESIGN.md's Open Question on the
// quadratic cost of this approach). Freeing an already-free block is a no-op.
func (h *Heap) Free(buf []byte) {
	if len(buf) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	off := int(uintptr(unsafe.Pointer(&buf[0])) - uintptr(unsafe.Pointer(&h.buf[0]))) - headerSize
	if off < 0 || off >= len(h.buf) {
		return
	}
	hdr := h.header(off)
	if hdr.isFree {
		return // double-free is idempotent
	}
	h.used -= hdr.size
	hdr.isFree = true
	h.putHeader(off, hdr)

	// Coalesce forward.
	if hdr.next != -1 {
		next := h.header(hdr.next)
		if next.isFree {
			hdr.size += headerSize + next.size
			hdr.next = next.next
			h.putHeader(off, hdr)
		}
	}

	// Coalesce backward: walk from origin to find the block whose next==off.
	prevOff := -1
	for p := h.head; p != -1 && p != off; {
		ph := h.header(p)
		if ph.next == off {
			prevOff = p
			break
		}
		p = ph.next
	}
	if prevOff != -1 {
		prev := h.header(prevOff)
		if prev.isFree {
			prev.size += headerSize + hdr.size
			prev.next = hdr.next
			h.putHeader(prevOff, prev)
		}
	}
}

// Stats reports usage for diagnostics.
type Stats struct {
	Used, Peak, AllocCount int
}

// Stats returns the heap's current usage counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Used: h.used, Peak: h.peak, AllocCount: h.allocCount}
}
