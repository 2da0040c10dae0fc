package backend

// kernelRange has no tensor operands: it fills the destination with the
// tiled dispatch's global index along axis 0, matching a shader's gl_VertexID
// builtin. BatchSize elements are written starting at GlobalOffset[0].
func kernelRange(ctx *KernelCtx, dest, _, _, _ uint16, _ [4]int32) {
	d := ctx.Register(dest).Int32()
	base := int32(ctx.GlobalOffset[0])
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		d[i] = base + int32(i)
	}
}

// kernelIndex surfaces the tile's coordinate builtins (u_FragX/u_FragY
// equivalents) as a 2-element f32 vector per invocation.
func kernelIndex(ctx *KernelCtx, dest, _, _, _ uint16, _ [4]int32) {
	d := ctx.Register(dest).Float32()
	for i := 0; i < ctx.BatchSize && i < len(d); i += 2 {
		x := float32(ctx.GlobalOffset[0]) + float32(i/2)
		y := float32(ctx.GlobalOffset[1])
		d[i] = x
		if i+1 < len(d) {
			d[i+1] = y
		}
	}
}

func kernelGather(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d := ctx.Register(dest).Float32()
	data := ctx.Register(src1).Float32()
	indices := ctx.Register(src2).Int32()
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		idx := int(i32At(indices, i, s[2]))
		d[i] = maskNonFinite(f32At(data, idx, 1))
	}
}

func i32At(buf []int32, i int, stride int32) int32 {
	if len(buf) == 0 {
		return 0
	}
	idx := i * int(stride)
	idx = ((idx % len(buf)) + len(buf)) % len(buf)
	return buf[idx]
}

func kernelCumsum(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	var running float32
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		running += f32At(a, i, s[1])
		d[i] = maskNonFinite(running)
	}
}

// kernelCompress (JSON op name "Filter") writes only the elements whose
// mask bit is set, densely packed from the front; trailing slots keep the
// destination's previous contents per the dynamic-1D resize contract.
func kernelCompress(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d := ctx.Register(dest).Float32()
	mask := ctx.Register(src1).Uint8()
	data := ctx.Register(src2).Float32()
	out := 0
	for i := 0; i < ctx.BatchSize && out < len(d); i++ {
		if u8At(mask, i, s[1]) != 0 {
			d[out] = f32At(data, i, s[2])
			out++
		}
	}
}

func kernelSlice(ctx *KernelCtx, dest, src1, src2, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	rng := ctx.Register(src2).Int32()
	start, end := int32(0), int32(len(a))
	if len(rng) >= 1 {
		start = rng[0]
	}
	if len(rng) >= 2 {
		end = rng[1]
	}
	for i := 0; i < ctx.BatchSize && i < len(d); i++ {
		src := int(start) + i
		if int32(src) >= end {
			break
		}
		d[i] = f32At(a, src, s[1])
	}
}

// kernelReshape is a pure copy: the destination's TypeInfo already carries
// the new shape (assigned at compile time), only the flat element stream
// needs to move across.
func kernelReshape(ctx *KernelCtx, dest, src1, _, _ uint16, s [4]int32) {
	d, a := ctx.Register(dest).Float32(), ctx.Register(src1).Float32()
	for i := 0; i < len(d) && i < len(a); i++ {
		d[i] = f32At(a, i, s[1])
	}
}
