package tensor

// TypeInfo describes a tensor's element type, rank, shape and strides.
// Rank 0 denotes a scalar. A negative shape dimension means "dynamic,
// resolved at runtime" (used by RESHAPE/RANGE/INDEX-family ops before their
// first execution).
type TypeInfo struct {
	Dtype   Dtype
	NDim    uint8
	Shape   [MaxDims]int32
	Strides [MaxDims]int32
}

// Scalar returns a rank-0 TypeInfo of the given dtype.
func Scalar(dt Dtype) TypeInfo {
	return TypeInfo{Dtype: dt, NDim: 0}
}

// Vector returns a rank-1 TypeInfo of n contiguous elements.
func Vector(dt Dtype, n int32) TypeInfo {
	ti := TypeInfo{Dtype: dt, NDim: 1}
	ti.Shape[0] = n
	ti.Strides[0] = 1
	return ti
}

// FromShape builds row-major contiguous strides for the given shape.
func FromShape(dt Dtype, shape []int32) TypeInfo {
	ti := TypeInfo{Dtype: dt, NDim: uint8(len(shape))}
	copy(ti.Shape[:], shape)
	stride := int32(1)
	for i := len(shape) - 1; i >= 0; i-- {
		ti.Strides[i] = stride
		if shape[i] > 0 {
			stride *= shape[i]
		}
	}
	return ti
}

// Size returns the product of shape dimensions (1 for a scalar), treating
// any unresolved negative dimension as 0.
func (t TypeInfo) Size() int {
	if t.NDim == 0 {
		return 1
	}
	size := 1
	for i := uint8(0); i < t.NDim; i++ {
		d := t.Shape[i]
		if d < 0 {
			return 0
		}
		size *= int(d)
	}
	return size
}

// IsScalar reports whether t has rank 0.
func (t TypeInfo) IsScalar() bool { return t.NDim == 0 }

// SameShape reports whether a and b have identical rank and dimensions.
func (a TypeInfo) SameShape(b TypeInfo) bool {
	if a.NDim != b.NDim {
		return false
	}
	for i := uint8(0); i < a.NDim; i++ {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// IsContiguous reports whether t's strides equal the row-major product of
// its trailing shape dimensions.
func (t TypeInfo) IsContiguous() bool {
	if t.NDim == 0 {
		return true
	}
	expect := int32(1)
	for i := int(t.NDim) - 1; i >= 0; i-- {
		if t.Strides[i] != expect {
			return false
		}
		if t.Shape[i] > 0 {
			expect *= t.Shape[i]
		}
	}
	return true
}

// ShapeSlice returns the active portion of Shape as a plain slice.
func (t TypeInfo) ShapeSlice() []int32 { return t.Shape[:t.NDim] }
