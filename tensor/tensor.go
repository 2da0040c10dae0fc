package tensor

import (
	"unsafe"

	"github.com/BinaryCat17/mathflow/memory"
	"github.com/pkg/errors"
)

// Flag bits on Tensor.
const (
	FlagOwnsData uint32 = 1 << iota
	FlagDynamic         // can be resized
)

// Tensor is {TypeInfo, buffer, byte_offset, flags} per the data model: the
// element at multi-index I lives at buffer.Data[byteOffset + Σ I[k]*strides[k]*elemSize].
type Tensor struct {
	Info       TypeInfo
	Buffer     *memory.Buffer
	ByteOffset int
	Flags      uint32
}

// New allocates a fresh, owning Tensor of the given TypeInfo from alloc.
func New(alloc memory.Allocator, info TypeInfo) (*Tensor, error) {
	nbytes := info.Size() * info.Dtype.Size()
	buf, err := memory.NewOwned(alloc, nbytes)
	if err != nil {
		return nil, errors.Wrap(err, "tensor.New")
	}
	return &Tensor{Info: info, Buffer: buf, Flags: FlagOwnsData}, nil
}

// View wraps an existing byte buffer as a non-owning Tensor, e.g. a pipeline
// Resource's front/back buffer bound into a KernelInstance's registers.
func View(info TypeInfo, data []byte) *Tensor {
	return &Tensor{Info: info, Buffer: memory.View(data)}
}

// SizeBytes returns the tensor's logical byte size (element count * dtype size).
func (t *Tensor) SizeBytes() int { return t.Info.Size() * t.Info.Dtype.Size() }

// Data returns the tensor's data starting at ByteOffset.
func (t *Tensor) Data() []byte {
	if t.Buffer == nil {
		return nil
	}
	return t.Buffer.Data[t.ByteOffset:]
}

// Float32 returns a zero-copy []float32 view over the tensor's data, the
// Go-idiomatic analogue of the teacher's AsFloat32Prev/Prop unsafe casts.
func (t *Tensor) Float32() []float32 {
	if t.Info.Dtype != F32 {
		return nil
	}
	data := t.Data()
	n := t.Info.Size()
	if n == 0 || len(data) < n*4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), n)
}

// Int32 returns a zero-copy []int32 view over the tensor's data.
func (t *Tensor) Int32() []int32 {
	if t.Info.Dtype != I32 {
		return nil
	}
	data := t.Data()
	n := t.Info.Size()
	if n == 0 || len(data) < n*4 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&data[0])), n)
}

// Uint8 returns a zero-copy []uint8 view over the tensor's data.
func (t *Tensor) Uint8() []uint8 {
	if t.Info.Dtype != U8 {
		return nil
	}
	data := t.Data()
	n := t.Info.Size()
	if n == 0 || len(data) < n {
		return nil
	}
	return data[:n]
}

// Resize implements the resize contract: allocate if capacity is too small,
// preserve content up to min(old,new) bytes on reallocation, and adopt the
// new shape/strides, marking the tensor as owning.
func (t *Tensor) Resize(alloc memory.Allocator, newInfo TypeInfo) error {
	newBytes := newInfo.Size() * newInfo.Dtype.Size()
	if t.Buffer == nil || t.Buffer.Size() < newBytes {
		if t.Buffer == nil || t.Buffer.Owner == nil {
			nb, err := memory.NewOwned(alloc, newBytes)
			if err != nil {
				return errors.Wrap(err, "tensor.Resize")
			}
			if t.Buffer != nil {
				copy(nb.Data, t.Buffer.Data)
			}
			t.Buffer = nb
		} else if err := t.Buffer.Resize(newBytes); err != nil {
			return errors.Wrap(err, "tensor.Resize")
		}
	}
	t.Info = newInfo
	t.Flags |= FlagOwnsData
	return nil
}

// HasFlag reports whether flag is set.
func (t *Tensor) HasFlag(flag uint32) bool { return t.Flags&flag != 0 }
