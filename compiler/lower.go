package compiler

import (
	"hash/fnv"

	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/tensor"
)

// lower is Pass 2: walk the generic JSON value tree produced by Pass 1 and
// build the initial IR graph, resolving op types via the registry and
// parsing CONST/INPUT literal data.
func lower(root *jsonValue, file string, sink *diag.Sink) *ir.Graph {
	g := &ir.Graph{Diags: sink}
	if root == nil {
		return g
	}

	nodesField, _ := root.field("nodes")
	idToIdx := map[string]int{}

	if nodesField != nil {
		for _, nv := range nodesField.Arr {
			idField, _ := nv.field("id")
			typeField, _ := nv.field("type")
			id := idField.String()
			typeName := typeField.String()

			op, ok := ops.ByJSONName(typeName)
			if !ok {
				sink.Errorf(diag.UnknownOp, nv.Loc, "unknown node type %q (node %q)", typeName, id)
				continue
			}

			n := ir.Node{ID: id, Op: op, Loc: nv.Loc}
			data, _ := nv.field("data")
			lowerNodeData(&n, op, data, sink, nv.Loc)

			idx := g.AddNode(n)
			idToIdx[id] = idx
		}
	}

	linksField, _ := root.field("links")
	if linksField != nil {
		for _, lv := range linksField.Arr {
			srcID, _ := lv.field("src")
			dstID, _ := lv.field("dst")
			srcPort, _ := lv.field("src_port")
			dstPort, _ := lv.field("dst_port")

			srcIdx, ok1 := idToIdx[srcID.String()]
			dstIdx, ok2 := idToIdx[dstID.String()]
			if !ok1 || !ok2 {
				sink.Errorf(diag.UnresolvedReference, lv.Loc, "link references unknown node (%s -> %s)", srcID, dstID)
				continue
			}

			srcPortName, dstPortName := "out", "in"
			if srcPort != nil {
				srcPortName = srcPort.String()
			}
			if dstPort != nil {
				dstPortName = dstPort.String()
			}

			g.AddLink(ir.Link{
				SrcNode: srcIdx, DstNode: dstIdx,
				SrcPort: ops.PortIndex(g.Nodes[srcIdx].Op, srcPortName),
				DstPort: ops.PortIndex(g.Nodes[dstIdx].Op, dstPortName),
				SrcPortName: srcPortName, DstPortName: dstPortName,
			})
		}
	}

	return g
}

func lowerNodeData(n *ir.Node, op ops.Opcode, data *jsonValue, sink *diag.Sink, loc diag.Location) {
	switch op {
	case ops.OpInput:
		n.InferredType = parseShapeDtype(data)
	case ops.OpMemory:
		n.InferredType = parseShapeDtype(data)
		if initField, ok := data.field("init"); ok {
			n.Const = parseMemoryInit(initField, n.InferredType.Dtype)
		}
	case ops.OpConst:
		n.Const = parseConstValue(data, sink, loc)
	case ops.OpCall:
		if p, ok := data.field("path"); ok {
			n.SubgraphPath = p.String()
		}
	case ops.OpIndex:
		if a, ok := data.field("axis"); ok {
			n.IndexAxis = int(a.Number)
		}
	}
}

func parseShapeDtype(data *jsonValue) tensor.TypeInfo {
	dt := tensor.F32
	if dv, ok := data.field("dtype"); ok {
		if parsed, ok := tensor.ParseDtype(dv.String()); ok {
			dt = parsed
		}
	}
	shapeField, ok := data.field("shape")
	if !ok {
		return tensor.Scalar(dt)
	}
	shape := make([]int32, 0, len(shapeField.Arr))
	for _, sv := range shapeField.Arr {
		shape = append(shape, int32(sv.Number))
	}
	return tensor.FromShape(dt, shape)
}

// parseConstValue implements Pass 2's constant-literal rules: scalar number
// -> F32 scalar, bool -> U8, string -> F32 UTF-32 codepoints (or I32 FNV-1a
// hash when dtype is explicitly I32), array -> F32 by default with the array
// nesting as its shape (a 2x2 literal is shape [2,2]), or a 1-D I32/U8 array
// when dtype says so (U8 arrays are how a boolean mask literal, e.g. a
// Select condition, is spelled).
func parseConstValue(data *jsonValue, sink *diag.Sink, loc diag.Location) *ir.ConstValue {
	val, ok := data.field("value")
	if !ok {
		sink.Errorf(diag.ParseError, loc, "Const node missing data.value")
		return &ir.ConstValue{Dtype: tensor.F32, F32: []float32{0}}
	}
	var explicitDtype tensor.Dtype
	hasExplicit := false
	if dv, ok := data.field("dtype"); ok {
		if parsed, ok := tensor.ParseDtype(dv.String()); ok {
			explicitDtype, hasExplicit = parsed, true
		}
	}

	switch val.Kind {
	case jsonNumber:
		return &ir.ConstValue{Dtype: tensor.F32, F32: []float32{float32(val.Number)}}
	case jsonBool:
		b := uint8(0)
		if val.Bool {
			b = 1
		}
		return &ir.ConstValue{Dtype: tensor.U8, U8: []uint8{b}}
	case jsonString:
		if hasExplicit && explicitDtype == tensor.I32 {
			return &ir.ConstValue{Dtype: tensor.I32, I32: []int32{int32(fnv1a(val.Str))}}
		}
		runes := []rune(val.Str)
		out := make([]float32, len(runes))
		for i, r := range runes {
			out[i] = float32(r)
		}
		return &ir.ConstValue{Dtype: tensor.F32, Shape: []int32{int32(len(out))}, F32: out}
	case jsonArray:
		if hasExplicit && explicitDtype == tensor.I32 {
			out := make([]int32, len(val.Arr))
			for i, e := range val.Arr {
				out[i] = int32(e.Number)
			}
			return &ir.ConstValue{Dtype: tensor.I32, Shape: []int32{int32(len(out))}, I32: out}
		}
		if hasExplicit && explicitDtype == tensor.U8 {
			out := make([]uint8, len(val.Arr))
			for i, e := range val.Arr {
				out[i] = uint8(e.Number)
			}
			return &ir.ConstValue{Dtype: tensor.U8, Shape: []int32{int32(len(out))}, U8: out}
		}
		return parseNumericArray(val)
	default:
		sink.Errorf(diag.ParseError, loc, "unsupported Const value")
		return &ir.ConstValue{Dtype: tensor.F32, F32: []float32{0}}
	}
}

// parseMemoryInit reads a MEMORY node's "init" value, the constant its
// pinned register starts from on the first Reset (subsequent frames carry
// the feedback COPY Pass 9 inserts instead).
func parseMemoryInit(v *jsonValue, dt tensor.Dtype) *ir.ConstValue {
	switch v.Kind {
	case jsonNumber:
		switch dt {
		case tensor.I32:
			return &ir.ConstValue{Dtype: tensor.I32, I32: []int32{int32(v.Number)}}
		case tensor.U8:
			return &ir.ConstValue{Dtype: tensor.U8, U8: []uint8{uint8(v.Number)}}
		default:
			return &ir.ConstValue{Dtype: tensor.F32, F32: []float32{float32(v.Number)}}
		}
	case jsonArray:
		return parseNumericArray(v)
	default:
		return &ir.ConstValue{Dtype: tensor.F32, F32: []float32{0}}
	}
}

// parseNumericArray flattens nested arrays (e.g. a 2x2 matrix literal) into
// row-major F32 data with the array nesting as its shape.
func parseNumericArray(val *jsonValue) *ir.ConstValue {
	var shape []int32
	var flat []float32
	var walk func(v *jsonValue, depth int)
	walk = func(v *jsonValue, depth int) {
		if v.Kind != jsonArray {
			flat = append(flat, float32(v.Number))
			return
		}
		if depth >= len(shape) {
			shape = append(shape, int32(len(v.Arr)))
		}
		for _, e := range v.Arr {
			walk(e, depth+1)
		}
	}
	walk(val, 0)
	return &ir.ConstValue{Dtype: tensor.F32, Shape: shape, F32: flat}
}

func fnv1a(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
