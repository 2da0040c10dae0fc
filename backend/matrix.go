package backend

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// kernelMatMul multiplies M x K by K x N through gonum for every size;
// there is no hand-written 3x3 or 4x4 fast path.
func kernelMatMul(ctx *KernelCtx, dest, src1, src2, _ uint16, _ [4]int32) {
	destT, aT, bT := ctx.Register(dest), ctx.Register(src1), ctx.Register(src2)
	aInfo, bInfo := aT.Info, bT.Info
	if aInfo.NDim != 2 || bInfo.NDim != 2 {
		return
	}
	m, k, n := int(aInfo.Shape[0]), int(aInfo.Shape[1]), int(bInfo.Shape[1])
	if int(bInfo.Shape[0]) != k {
		ctx.Err.Set(2) // RuntimeShapeMismatch
		return
	}

	a64 := toFloat64(aT.Float32())
	b64 := toFloat64(bT.Float32())
	am := mat.NewDense(m, k, a64)
	bm := mat.NewDense(k, n, b64)
	var cm mat.Dense
	cm.Mul(am, bm)

	out := destT.Float32()
	for i := 0; i < m*n && i < len(out); i++ {
		out[i] = maskNonFinite(float32(cm.RawMatrix().Data[i]))
	}
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func kernelTranspose(ctx *KernelCtx, dest, src1, _, _ uint16, _ [4]int32) {
	destT, aT := ctx.Register(dest), ctx.Register(src1)
	rows, cols := int(aT.Info.Shape[0]), int(aT.Info.Shape[1])
	a, out := aT.Float32(), destT.Float32()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c*rows+r < len(out) && r*cols+c < len(a) {
				out[c*rows+r] = a[r*cols+c]
			}
		}
	}
}

// kernelInverse inverts an n x n matrix through gonum for every n; there is
// no closed-form 3x3 or 4x4 path. A matrix gonum reports as singular yields
// an all-zero result, like any other non-finite result.
func kernelInverse(ctx *KernelCtx, dest, src1, _, _ uint16, _ [4]int32) {
	destT, aT := ctx.Register(dest), ctx.Register(src1)
	n := int(aT.Info.Shape[0])
	a, out := aT.Float32(), destT.Float32()

	m := mat.NewDense(n, n, toFloat64(a))
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i, v := range inv.RawMatrix().Data {
		if i < len(out) {
			out[i] = maskNonFinite(float32(v))
		}
	}
}

func kernelNormalize(ctx *KernelCtx, dest, src1, _, _ uint16, _ [4]int32) {
	destT, aT := ctx.Register(dest), ctx.Register(src1)
	a, out := aT.Float32(), destT.Float32()
	var sumSq float64
	for _, v := range a {
		sumSq += float64(v) * float64(v)
	}
	length := float32(math.Sqrt(sumSq))
	if length == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	for i, v := range a {
		if i < len(out) {
			out[i] = maskNonFinite(v / length)
		}
	}
}

func kernelDot(ctx *KernelCtx, dest, src1, src2, _ uint16, _ [4]int32) {
	destT, aT, bT := ctx.Register(dest), ctx.Register(src1), ctx.Register(src2)
	a, b := aT.Float32(), bT.Float32()
	var sum float32
	for i := 0; i < len(a) && i < len(b); i++ {
		sum += a[i] * b[i]
	}
	out := destT.Float32()
	if len(out) > 0 {
		out[0] = maskNonFinite(sum)
	}
}

func kernelLength(ctx *KernelCtx, dest, src1, _, _ uint16, _ [4]int32) {
	destT, aT := ctx.Register(dest), ctx.Register(src1)
	a := aT.Float32()
	var sumSq float64
	for _, v := range a {
		sumSq += float64(v) * float64(v)
	}
	out := destT.Float32()
	if len(out) > 0 {
		out[0] = maskNonFinite(float32(math.Sqrt(sumSq)))
	}
}

// kernelJoin packs up to 3 scalar sources into dest's trailing dimension.
// OpJoin's registry entry declares a 4th port ("d") for schema symmetry with
// other array ops, but the Instruction record has only 3 source slots
// (Src1-Src3), so a 4th Join input is silently unreachable from codegen —
// this is an instruction-encoding limit, not a kernel bug.
func kernelJoin(ctx *KernelCtx, dest, src1, src2, src3 uint16, _ [4]int32) {
	destT := ctx.Register(dest)
	out := destT.Float32()
	sources := []uint16{src1, src2, src3}
	for i, reg := range sources {
		if i >= len(out) {
			break
		}
		t := ctx.Register(reg)
		if t == nil {
			continue
		}
		f := t.Float32()
		if len(f) > 0 {
			out[i] = f[0]
		}
	}
}
