package backend

import "github.com/BinaryCat17/mathflow/ops"

// maxOpcode bounds the dispatch table, mirroring the teacher's fixed-size
// Catalog [256]KernelFn array (here sized to the op registry instead of a
// full byte, since this runtime's opcode space is much smaller).
const maxOpcode = 128

// Catalog is the opcode -> kernel dispatch table. init() below populates it
// once; GetKernel is what the VM actually calls.
var Catalog [maxOpcode]KernelFn

// GetKernel returns the kernel for opcode, or nil if unimplemented — the VM
// treats a nil kernel as RuntimeInvalidOpcode.
func GetKernel(opcode uint16) KernelFn {
	if int(opcode) >= len(Catalog) {
		return nil
	}
	return Catalog[opcode]
}

func init() {
	Catalog[ops.OpAdd] = kernelAdd
	Catalog[ops.OpSub] = kernelSub
	Catalog[ops.OpMul] = kernelMul
	Catalog[ops.OpDiv] = kernelDiv
	Catalog[ops.OpPow] = kernelPow
	Catalog[ops.OpAtan2] = kernelAtan2
	Catalog[ops.OpMin] = kernelMin
	Catalog[ops.OpMax] = kernelMax
	Catalog[ops.OpAbs] = kernelAbs
	Catalog[ops.OpSin] = kernelSin
	Catalog[ops.OpCos] = kernelCos
	Catalog[ops.OpSqrt] = kernelSqrt
	Catalog[ops.OpFloor] = kernelFloor
	Catalog[ops.OpCeil] = kernelCeil
	Catalog[ops.OpNot] = kernelNot
	Catalog[ops.OpSelect] = kernelSelect
	Catalog[ops.OpSelectWhereFalse] = kernelSelectWhereFalse
	Catalog[ops.OpMix] = kernelMix
	Catalog[ops.OpClamp] = kernelClamp
	Catalog[ops.OpStep] = kernelStep
	Catalog[ops.OpSmoothstep] = kernelSmoothstep
	Catalog[ops.OpFMA] = kernelFMA
	Catalog[ops.OpLess] = kernelLess
	Catalog[ops.OpGreater] = kernelGreater
	Catalog[ops.OpEqual] = kernelEqual
	Catalog[ops.OpNequal] = kernelNotEqual
	Catalog[ops.OpLequal] = kernelLessEqual
	Catalog[ops.OpGequal] = kernelGreaterEqual
	Catalog[ops.OpAnd] = kernelAnd
	Catalog[ops.OpOr] = kernelOr
	Catalog[ops.OpXor] = kernelXor
	Catalog[ops.OpCopy] = kernelCopy

	Catalog[ops.OpMatMul] = kernelMatMul
	Catalog[ops.OpTranspose] = kernelTranspose
	Catalog[ops.OpInverse] = kernelInverse
	Catalog[ops.OpNormalize] = kernelNormalize
	Catalog[ops.OpDot] = kernelDot
	Catalog[ops.OpLength] = kernelLength
	Catalog[ops.OpJoin] = kernelJoin

	Catalog[ops.OpRange] = kernelRange
	Catalog[ops.OpIndex] = kernelIndex
	Catalog[ops.OpGather] = kernelGather
	Catalog[ops.OpCumsum] = kernelCumsum
	Catalog[ops.OpCompress] = kernelCompress
	Catalog[ops.OpSlice] = kernelSlice
	Catalog[ops.OpReshape] = kernelReshape
}
