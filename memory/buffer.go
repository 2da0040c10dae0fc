package memory

// Buffer is an owned or borrowed byte region. A Buffer is freed exactly once
// by whoever owns it; a view (Owner == nil) never frees, mirroring the
// Tensor/Buffer ownership invariant of the data model (see tensor.Tensor).
type Buffer struct {
	Data  []byte
	Owner Allocator // nil for a borrowed view
	freed bool
}

// NewOwned allocates size bytes from alloc and wraps them as an owning Buffer.
func NewOwned(alloc Allocator, size int) (*Buffer, error) {
	data, err := alloc.Alloc(size)
	if err != nil {
		return nil, err
	}
	return &Buffer{Data: data, Owner: alloc}, nil
}

// View wraps an existing byte slice as a non-owning Buffer.
func View(data []byte) *Buffer {
	return &Buffer{Data: data}
}

// Size returns the buffer's length in bytes.
func (b *Buffer) Size() int { return len(b.Data) }

// Free releases the buffer through its owner, if any. Safe to call more
// than once.
func (b *Buffer) Free() {
	if b.freed || b.Owner == nil {
		return
	}
	b.Owner.Free(b.Data)
	b.freed = true
}

// Resize grows or shrinks the buffer through its owner, preserving content.
// A borrowed view is only resliced within its existing capacity; growing it
// past that capacity panics.
func (b *Buffer) Resize(newSize int) error {
	if b.Owner == nil {
		b.Data = b.Data[:newSize]
		return nil
	}
	data, err := b.Owner.Realloc(b.Data, newSize)
	if err != nil {
		return err
	}
	b.Data = data
	return nil
}
