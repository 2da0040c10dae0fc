package tensor

import "fmt"

// Iterator is a lightweight N-dimensional cursor over a Tensor's elements.
// It tracks the current multi-dimensional index and the corresponding byte
// offset, with a contiguous fast path that avoids per-dimension carry logic.
type Iterator struct {
	t            *Tensor
	elemSize     int
	offset       int // byte offset from the start of the tensor's data
	start, limit int // valid byte-offset range within the owning buffer
	indices      [MaxDims]int32
	contiguous   bool
}

// Begin starts an Iterator at element (0,0,...,0) of t.
func Begin(t *Tensor) Iterator {
	it := Iterator{
		t:          t,
		elemSize:   t.Info.Dtype.Size(),
		offset:     t.ByteOffset,
		start:      t.ByteOffset,
		contiguous: t.Info.IsContiguous(),
	}
	if t.Buffer != nil {
		it.limit = len(t.Buffer.Data)
	}
	return it
}

// Ptr returns the current element's byte offset within the tensor's buffer.
func (it *Iterator) Ptr() int { return it.offset }

// Next advances the iterator by one element, carrying into slower
// dimensions on overflow of the fastest-varying one.
func (it *Iterator) Next() {
	if it.contiguous {
		it.offset += it.elemSize
		it.checkBounds()
		return
	}
	info := &it.t.Info
	for i := int(info.NDim) - 1; i >= 0; i-- {
		it.indices[i]++
		if it.indices[i] < info.Shape[i] {
			it.offset += int(info.Strides[i]) * it.elemSize
			it.checkBounds()
			return
		}
		it.offset -= int(info.Shape[i]-1) * int(info.Strides[i]) * it.elemSize
		it.indices[i] = 0
	}
	it.checkBounds()
}

// Advance steps the iterator forward by step elements; step==1 is Next(),
// step==0 is a no-op (used for broadcast/scalar operands whose stride is 0).
func (it *Iterator) Advance(step int32) {
	switch {
	case step == 0:
		return
	case step == 1:
		it.Next()
		return
	}
	if it.contiguous {
		it.offset += int(step) * it.elemSize
		it.checkBounds()
		return
	}
	for i := int32(0); i < step; i++ {
		it.Next()
	}
}

// checkBounds panics on an out-of-range pointer: the iterator trap is a bug
// in the compiler's stride computation, not a data error, so it is not
// surfaced through the runtime error word.
func (it *Iterator) checkBounds() {
	if it.offset > it.limit || (it.offset < it.start && it.t.Info.NDim > 0) {
		panic(fmt.Sprintf("tensor: iterator out of bounds: offset=%d range=[%d,%d)", it.offset, it.start, it.limit))
	}
}
