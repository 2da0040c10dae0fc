package tensor

import "unsafe"

// Float32Accessor is a typed accessor wrapping Iterator for F32 tensors,
// supplementing the iterator with get/set methods (grounded on the
// original implementation's mf_accessor.h typed-accessor pattern, which the
// distilled spec omits).
type Float32Accessor struct{ it Iterator }

// Float32Begin constructs a Float32Accessor over t.
func Float32Begin(t *Tensor) Float32Accessor { return Float32Accessor{it: Begin(t)} }

// Get returns the element currently under the cursor.
func (a *Float32Accessor) Get() float32 {
	return *(*float32)(unsafe.Pointer(&a.it.t.Buffer.Data[a.it.offset]))
}

// Set writes the element currently under the cursor.
func (a *Float32Accessor) Set(v float32) {
	*(*float32)(unsafe.Pointer(&a.it.t.Buffer.Data[a.it.offset])) = v
}

// Advance steps the accessor forward by step elements.
func (a *Float32Accessor) Advance(step int32) { a.it.Advance(step) }

// Int32Accessor is the I32 counterpart of Float32Accessor.
type Int32Accessor struct{ it Iterator }

// Int32Begin constructs an Int32Accessor over t.
func Int32Begin(t *Tensor) Int32Accessor { return Int32Accessor{it: Begin(t)} }

func (a *Int32Accessor) Get() int32 {
	return *(*int32)(unsafe.Pointer(&a.it.t.Buffer.Data[a.it.offset]))
}

func (a *Int32Accessor) Set(v int32) {
	*(*int32)(unsafe.Pointer(&a.it.t.Buffer.Data[a.it.offset])) = v
}

func (a *Int32Accessor) Advance(step int32) { a.it.Advance(step) }

// Uint8Accessor is the U8 counterpart of Float32Accessor.
type Uint8Accessor struct{ it Iterator }

// Uint8Begin constructs a Uint8Accessor over t.
func Uint8Begin(t *Tensor) Uint8Accessor { return Uint8Accessor{it: Begin(t)} }

func (a *Uint8Accessor) Get() uint8 { return a.it.t.Buffer.Data[a.it.offset] }

func (a *Uint8Accessor) Set(v uint8) { a.it.t.Buffer.Data[a.it.offset] = v }

func (a *Uint8Accessor) Advance(step int32) { a.it.Advance(step) }
