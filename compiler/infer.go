package compiler

import (
	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/tensor"
)

// infer is Pass 5: walk nodes in topological order and apply each node's
// shape rule, then its dtype rule, per §4.4.
func infer(g *ir.Graph, order []int) {
	for _, idx := range order {
		n := &g.Nodes[idx]
		if n.Dead {
			continue
		}
		def := ops.Lookup(n.Op)

		switch n.Op {
		case ops.OpConst:
			n.InferredType = constType(n.Const)
			continue
		case ops.OpInput, ops.OpMemory:
			continue // InferredType was set during lowering
		}

		inputs := orderedInputs(g, idx)
		var shape tensor.TypeInfo
		var err error

		switch def.ShapeRule {
		case ops.ShapeSame:
			if len(inputs) > 0 {
				shape = inputs[0]
			}
		case ops.ShapeBroadcast:
			shape, err = inferBroadcast(inputs)
			if err == nil && def.Category == ops.CategoryBinary && len(inputs) > 1 {
				if a, b := inputs[0].Dtype, inputs[1].Dtype; a != tensor.Unknown && b != tensor.Unknown && a != b {
					g.Diags.Errorf(diag.TypeMismatch, n.Loc, "%s: broadcast dtype mismatch: %s vs %s", n.ID, a, b)
				}
			}
		case ops.ShapeMatmul:
			shape, err = inferMatmul(inputs)
		case ops.ShapeTranspose:
			shape = inferTranspose(inputs)
		case ops.ShapeDot:
			shape = inferDot(inputs)
		case ops.ShapeReshape:
			shape = inferReshape(g, idx, inputs)
		case ops.ShapeSlice:
			shape = inferSlice(inputs)
		case ops.ShapeDynamic1D:
			shape = tensor.Vector(tensor.F32, 0)
		case ops.ShapeGather:
			if len(inputs) > 1 {
				shape = tensor.TypeInfo{Dtype: inputs[0].Dtype, NDim: inputs[1].NDim, Shape: inputs[1].Shape, Strides: inputs[1].Strides}
			}
		case ops.ShapeJoin:
			shape = inferJoin(inputs)
		default:
			if len(inputs) > 0 {
				shape = inputs[0]
			}
		}
		if err != nil {
			g.Diags.Errorf(diag.ShapeMismatch, n.Loc, "%s: %v", n.ID, err)
		}

		shape.Dtype = resolveDtype(def.DtypeRule, inputs, shape.Dtype)
		n.InferredType = shape
	}
}

func constType(c *ir.ConstValue) tensor.TypeInfo {
	if c == nil {
		return tensor.Scalar(tensor.F32)
	}
	if len(c.Shape) == 0 {
		return tensor.Scalar(c.Dtype)
	}
	return tensor.FromShape(c.Dtype, c.Shape)
}

// orderedInputs collects the resolved TypeInfo of idx's inputs, ordered by
// the destination port index so shape rules can address them positionally.
func orderedInputs(g *ir.Graph, idx int) []tensor.TypeInfo {
	links := g.InLinks(idx)
	maxPort := -1
	for _, l := range links {
		if l.DstPort > maxPort {
			maxPort = l.DstPort
		}
	}
	if maxPort < 0 {
		return nil
	}
	out := make([]tensor.TypeInfo, maxPort+1)
	for _, l := range links {
		if l.DstPort >= 0 {
			out[l.DstPort] = g.Nodes[l.SrcNode].InferredType
		}
	}
	return out
}

func inferBroadcast(inputs []tensor.TypeInfo) (tensor.TypeInfo, error) {
	if len(inputs) == 0 {
		return tensor.Scalar(tensor.F32), nil
	}
	acc := inputs[0]
	for _, in := range inputs[1:] {
		var err error
		acc, err = tensor.Broadcast(acc, in)
		if err != nil {
			return tensor.TypeInfo{}, err
		}
	}
	return acc, nil
}

func inferMatmul(inputs []tensor.TypeInfo) (tensor.TypeInfo, error) {
	if len(inputs) < 2 {
		return tensor.TypeInfo{}, nil
	}
	a, b := inputs[0], inputs[1]
	if a.NDim != 2 || b.NDim != 2 || a.Shape[1] != b.Shape[0] {
		return tensor.TypeInfo{}, tensor.ErrShapeMismatch
	}
	return tensor.FromShape(a.Dtype, []int32{a.Shape[0], b.Shape[1]}), nil
}

func inferTranspose(inputs []tensor.TypeInfo) tensor.TypeInfo {
	if len(inputs) == 0 {
		return tensor.TypeInfo{}
	}
	a := inputs[0]
	if a.NDim < 2 {
		return a
	}
	out := a
	i, j := a.NDim-2, a.NDim-1
	out.Shape[i], out.Shape[j] = a.Shape[j], a.Shape[i]
	out.Strides[i], out.Strides[j] = a.Strides[j], a.Strides[i]
	return out
}

func inferDot(inputs []tensor.TypeInfo) tensor.TypeInfo {
	if len(inputs) == 0 {
		return tensor.Scalar(tensor.F32)
	}
	a := inputs[0]
	if a.NDim == 0 {
		return tensor.Scalar(tensor.F32)
	}
	shape := append([]int32{}, a.ShapeSlice()[:a.NDim-1]...)
	return tensor.FromShape(tensor.F32, shape)
}

// inferReshape reads the target shape off the "shape" operand's literal
// Const values (e.g. [2, 3]), not that operand's own TypeInfo.Shape (which
// only describes the 1-D vector of N elements carrying them). Falls back to
// a dynamic 1-D result when the shape operand isn't a resolvable constant.
func inferReshape(g *ir.Graph, idx int, inputs []tensor.TypeInfo) tensor.TypeInfo {
	if len(inputs) == 0 {
		return tensor.TypeInfo{}
	}
	a := inputs[0]
	if len(inputs) < 2 {
		out := a
		out.NDim = 1
		out.Shape[0] = -1
		return out
	}
	if dims, ok := constShapeValues(g, idx); ok {
		return tensor.FromShape(a.Dtype, dims)
	}
	out := a
	out.NDim = 1
	out.Shape[0] = -1
	return out
}

// constShapeValues resolves a Reshape node's "shape" port to a literal Const
// node's values, rounding an F32 literal's elements to the nearest integer
// dimension.
func constShapeValues(g *ir.Graph, idx int) ([]int32, bool) {
	for _, l := range g.InLinks(idx) {
		if ops.PortIndex(ops.OpReshape, "shape") != l.DstPort {
			continue
		}
		src := &g.Nodes[l.SrcNode]
		if src.Op != ops.OpConst || src.Const == nil {
			return nil, false
		}
		switch src.Const.Dtype {
		case tensor.I32:
			return append([]int32{}, src.Const.I32...), true
		case tensor.F32:
			out := make([]int32, len(src.Const.F32))
			for i, v := range src.Const.F32 {
				out[i] = int32(v)
			}
			return out, true
		default:
			return nil, false
		}
	}
	return nil, false
}

func inferSlice(inputs []tensor.TypeInfo) tensor.TypeInfo {
	if len(inputs) == 0 {
		return tensor.TypeInfo{}
	}
	return tensor.Vector(inputs[0].Dtype, -1)
}

func inferJoin(inputs []tensor.TypeInfo) tensor.TypeInfo {
	if len(inputs) == 0 {
		return tensor.TypeInfo{}
	}
	return tensor.Vector(inputs[0].Dtype, int32(len(inputs)))
}

func resolveDtype(rule ops.DtypeRule, inputs []tensor.TypeInfo, fallback tensor.Dtype) tensor.Dtype {
	switch rule {
	case ops.ForceF32:
		return tensor.F32
	case ops.ForceU8:
		return tensor.U8
	case ops.ForceI32:
		return tensor.I32
	case ops.SameAsS2:
		if len(inputs) > 1 {
			return inputs[1].Dtype
		}
		return fallback
	default: // SameAsS1
		if len(inputs) > 0 {
			return inputs[0].Dtype
		}
		return fallback
	}
}
