// Package backend implements the opcode dispatch table and the concrete
// kernel library every instruction executes against. Kernels iterate
// batch_size elements, advancing each operand pointer by its per-instruction
// element stride, exactly as spec §4.5 describes.
package backend

import (
	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/tensor"
)

// KernelCtx is the execution context every kernel function receives,
// grounded field-for-field on the original implementation's mf_kernel_ctx:
// register pointers, batch size, builtin coordinate inputs for INDEX-family
// ops, and the shared error word kernels set instead of returning an error.
type KernelCtx struct {
	Registers []*tensor.Tensor
	BatchSize int

	// Tiling intrinsics used by OpIndex/OpRange during a tiled dispatch.
	GlobalOffset [3]uint32
	LocalSize    [3]uint32
	GlobalSize   [3]uint32

	Err *diag.ErrorWord
}

// Register returns the register tensor at idx, or nil if out of range —
// a dispatch-table miss surfaces as RuntimeInvalidOpcode, not a panic.
func (c *KernelCtx) Register(idx uint16) *tensor.Tensor {
	if int(idx) >= len(c.Registers) {
		return nil
	}
	return c.Registers[idx]
}

// KernelFn is the standard signature for every opcode implementation.
type KernelFn func(ctx *KernelCtx, dest, src1, src2, src3 uint16, strides [4]int32)

// maskNonFinite substitutes 0 for NaN/±Inf, matching every kernel's
// NaN-masking guarantee (NumericError is never surfaced, per §7).
func maskNonFinite(v float32) float32 {
	if v != v || v > maxFinite || v < -maxFinite {
		return 0
	}
	return v
}

const maxFinite = 3.4028235e38
