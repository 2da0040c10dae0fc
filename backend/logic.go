package backend

func kernelNot(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Uint8(), ctx.Register(src1).Uint8()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		if u8At(a, i, s[1]) == 0 {
			d[i] = 1
		} else {
			d[i] = 0
		}
	}
}

func u8At(buf []uint8, i int, stride int32) uint8 {
	if len(buf) == 0 {
		return 0
	}
	idx := i * int(stride)
	idx = ((idx % len(buf)) + len(buf)) % len(buf)
	return buf[idx]
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func compareKernel(cmp func(a, b float32) bool) KernelFn {
	return func(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
		d := ctx.Register(dest).Uint8()
		a, b := ctx.Register(src1).Float32(), ctx.Register(src2).Float32()
		for i := 0; i < ctx.BatchSize && i < len(d); i++ {
			d[i] = boolToU8(cmp(f32At(a, i, s[1]), f32At(b, i, s[2])))
		}
	}
}

var (
	kernelLess         = compareKernel(func(a, b float32) bool { return a < b })
	kernelGreater      = compareKernel(func(a, b float32) bool { return a > b })
	kernelEqual        = compareKernel(func(a, b float32) bool { return a == b })
	kernelNotEqual     = compareKernel(func(a, b float32) bool { return a != b })
	kernelLessEqual    = compareKernel(func(a, b float32) bool { return a <= b })
	kernelGreaterEqual = compareKernel(func(a, b float32) bool { return a >= b })
)

func boolKernel(op func(a, b bool) bool) KernelFn {
	return func(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
		d := ctx.Register(dest).Uint8()
		a, b := ctx.Register(src1).Uint8(), ctx.Register(src2).Uint8()
		for i := 0; i < ctx.BatchSize && i < len(d); i++ {
			d[i] = boolToU8(op(u8At(a, i, s[1]) != 0, u8At(b, i, s[2]) != 0))
		}
	}
}

var (
	kernelAnd = boolKernel(func(a, b bool) bool { return a && b })
	kernelOr  = boolKernel(func(a, b bool) bool { return a || b })
	kernelXor = boolKernel(func(a, b bool) bool { return a != b })
)
