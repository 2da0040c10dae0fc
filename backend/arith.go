package backend

import (
	"math"

	"github.com/BinaryCat17/mathflow/tensor"
)

// f32At reads element i*stride from buf's logical stream, 0 for a nil
// operand (defensive against a malformed instruction).
func f32At(buf []float32, i int, stride int32) float32 {
	if buf == nil {
		return 0
	}
	idx := i * int(stride)
	if idx < 0 || idx >= len(buf) {
		if len(buf) == 0 {
			return 0
		}
		idx = idx % len(buf)
		if idx < 0 {
			idx += len(buf)
		}
	}
	return buf[idx]
}

func kernelAdd(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a, b := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(f32At(a, i, s[1]) + f32At(b, i, s[2]))
	}
}

func kernelSub(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a, b := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(f32At(a, i, s[1]) - f32At(b, i, s[2]))
	}
}

func kernelMul(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a, b := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(f32At(a, i, s[1]) * f32At(b, i, s[2]))
	}
}

func kernelDiv(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a, b := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		bv := f32At(b, i, s[2])
		if bv == 0 {
			d[i] = 0
			continue
		}
		d[i] = maskNonFinite(f32At(a, i, s[1]) / bv)
	}
}

func kernelPow(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a, b := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(float32(math.Pow(float64(f32At(a, i, s[1])), float64(f32At(b, i, s[2])))))
	}
}

func kernelAtan2(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, y, x := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(float32(math.Atan2(float64(f32At(y, i, s[1])), float64(f32At(x, i, s[2])))))
	}
}

func kernelMin(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a, b := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = float32(math.Min(float64(f32At(a, i, s[1])), float64(f32At(b, i, s[2]))))
	}
}

func kernelMax(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a, b := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = float32(math.Max(float64(f32At(a, i, s[1])), float64(f32At(b, i, s[2]))))
	}
}

func kernelAbs(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = float32(math.Abs(float64(f32At(a, i, s[1]))))
	}
}

func kernelSin(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(float32(math.Sin(float64(f32At(a, i, s[1])))))
	}
}

func kernelCos(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(float32(math.Cos(float64(f32At(a, i, s[1])))))
	}
}

func kernelSqrt(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		v := f32At(a, i, s[1])
		if v < 0 {
			d[i] = 0
			continue
		}
		d[i] = maskNonFinite(float32(math.Sqrt(float64(v))))
	}
}

func kernelFloor(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = float32(math.Floor(float64(f32At(a, i, s[1]))))
	}
}

func kernelCeil(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = float32(math.Ceil(float64(f32At(a, i, s[1]))))
	}
}

func kernelMix(ctx *KernelCtx, dest, src1, src2, src3 uint16, s [4]int32) {
	d := ctx.Register(dest).Float32()
	a, b, t := ctx.Register(src1).Float32(), ctx.Register(src2).Float32(), ctx.Register(src3).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		av, bv, tv := f32At(a, i, s[1]), f32At(b, i, s[2]), f32At(t, i, s[3])
		d[i] = maskNonFinite(av + (bv-av)*tv)
	}
}

func kernelClamp(ctx *KernelCtx, dest, src1, src2, src3 uint16, s [4]int32) {
	d := ctx.Register(dest).Float32()
	a, lo, hi := ctx.Register(src1).Float32(), ctx.Register(src2).Float32(), ctx.Register(src3).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		v, l, h := f32At(a, i, s[1]), f32At(lo, i, s[2]), f32At(hi, i, s[3])
		if v < l {
			v = l
		}
		if v > h {
			v = h
		}
		d[i] = v
	}
}

func kernelStep(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, edge, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		if f32At(a, i, s[2]) < f32At(edge, i, s[1]) {
			d[i] = 0
		} else {
			d[i] = 1
		}
	}
}

func kernelSmoothstep(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, edges, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		e0, e1 := f32At(edges, i*2, 1), f32At(edges, i*2+1, 1)
		if len(edges) <= 2 {
			e0, e1 = f32At(edges, 0, 1), f32At(edges, 1, 1)
		}
		v := f32At(a, i, s[2])
		t := float32(0)
		if e1 != e0 {
			t = clamp01((v - e0) / (e1 - e0))
		}
		d[i] = maskNonFinite(t * t * (3 - 2*t))
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func kernelFMA(ctx *KernelCtx, dest, src1, src2, src3 uint16, s [4]int32) {
	d := ctx.Register(dest).Float32()
	a, b, c := ctx.Register(src1).Float32(), ctx.Register(src2).Float32(), ctx.Register(src3).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = maskNonFinite(f32At(a, i, s[1])*f32At(b, i, s[2]) + f32At(c, i, s[3]))
	}
}

// kernelSelect is SELECT's WHERE_TRUE half: writes the true branch into
// dest wherever cond is true, leaving other positions untouched for
// kernelSelectWhereFalse to fill.
func kernelSelect(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d := ctx.Register(dest).Float32()
	cond := ctx.Register(src1).Uint8()
	branch := ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		if cond[i%max1(len(cond))] != 0 {
			d[i] = f32At(branch, i, s[2])
		}
	}
}

// kernelSelectWhereFalse is SELECT's WHERE_FALSE half: writes the false
// branch into dest wherever cond is false, the complementary positions
// kernelSelect left alone.
func kernelSelectWhereFalse(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d := ctx.Register(dest).Float32()
	cond := ctx.Register(src1).Uint8()
	branch := ctx.Register(src2).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		if cond[i%max1(len(cond))] == 0 {
			d[i] = f32At(branch, i, s[2])
		}
	}
}

func max1(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

// kernelCopy uses the typed tensor accessors (rather than raw float32
// slices) since it has nothing else to do but walk src1 and dest element by
// element — the accessor's Advance mirrors the per-instruction stride
// exactly, including the step==0 broadcast case.
func kernelCopy(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	destT, srcT := ctx.Register(dest), ctx.Register(src1)
	if destT == nil || srcT == nil {
		return
	}
	d := tensor.Float32Begin(destT)
	a := tensor.Float32Begin(srcT)
	n := destT.Float32()
	for i := 0; i < ctx.BatchSize && i < len(n); i++ {
		d.Set(a.Get())
		d.Advance(1)
		a.Advance(s[1])
	}
}
