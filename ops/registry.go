// Package ops is the static operation registry: one table entry per
// opcode, consulted by every compiler pass and by the backend dispatch
// table. Grounded on the original implementation's MF_OP_LIST X-macro
// (mf_op_defs.h): adding an operation means one entry here plus a kernel in
// package backend.
package ops

// Category groups opcodes by calling shape, mirroring mf_op_category.
type Category int

const (
	CategorySpecial Category = iota
	CategoryUnary
	CategoryBinary
	CategoryTernary
	CategoryMatrix
	CategoryArray
	CategoryReduction
)

// DtypeRule selects the output dtype from a node's resolved input dtypes.
type DtypeRule int

const (
	SameAsS1 DtypeRule = iota
	SameAsS2
	ForceF32
	ForceU8
	ForceI32
)

// ShapeRule selects which inference rule Pass 5 applies to a node.
type ShapeRule int

const (
	ShapeSame ShapeRule = iota
	ShapeBroadcast
	ShapeMatmul
	ShapeTranspose
	ShapeDot
	ShapeReshape
	ShapeSlice
	ShapeDynamic1D
	ShapeGather
	ShapeJoin
	ShapeSpecial
)

// Opcode is the closed enum of every operation this runtime understands.
type Opcode uint16

const (
	OpUnknown Opcode = iota
	OpConst
	OpInput
	OpOutput
	OpCall
	OpMemory
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpPow
	OpAtan2
	OpMin
	OpMax
	OpAbs
	OpSin
	OpCos
	OpSqrt
	OpFloor
	OpCeil
	OpNot
	OpSelect
	OpMix
	OpClamp
	OpStep
	OpSmoothstep
	OpMatMul
	OpTranspose
	OpInverse
	OpNormalize
	OpDot
	OpLength
	OpJoin
	OpLess
	OpGreater
	OpEqual
	OpNequal
	OpLequal
	OpGequal
	OpAnd
	OpOr
	OpXor
	OpRange
	OpIndex
	OpGather
	OpCumsum
	OpCompress
	OpSlice
	OpReshape
	OpCopy
	// OpFMA is compiler-internal: Pass 7 rewrites MUL+ADD into it. It has
	// no JSON spelling of its own.
	OpFMA
	// OpSelectWhereFalse is compiler-internal: codegen emits it as the
	// second of SELECT's two instructions (WHERE_TRUE then WHERE_FALSE),
	// writing the false branch only where the condition is false. It has
	// no JSON spelling of its own.
	OpSelectWhereFalse

	opcodeCount
)

// Def is one op registry entry.
type Def struct {
	Opcode    Opcode
	Name      string // Go-side identifier, e.g. "Add"
	JSONName  string // type string as it appears in graph JSON, e.g. "Add"
	Category  Category
	DtypeRule DtypeRule
	ShapeRule ShapeRule
	// Ports lists up to 4 input port names in binding order; SPECIAL nodes
	// (CONST/INPUT/OUTPUT/CALL/MEMORY) have no input ports of their own.
	Ports [4]string
}

var registry = [opcodeCount]Def{
	OpConst:      {OpConst, "Const", "Const", CategorySpecial, SameAsS1, ShapeSpecial, [4]string{}},
	OpInput:      {OpInput, "Input", "Input", CategorySpecial, SameAsS1, ShapeSpecial, [4]string{}},
	OpOutput:     {OpOutput, "Output", "Output", CategorySpecial, SameAsS1, ShapeSame, [4]string{"in"}},
	OpCall:       {OpCall, "Call", "Call", CategorySpecial, SameAsS1, ShapeSpecial, [4]string{}},
	OpMemory:     {OpMemory, "Memory", "Memory", CategorySpecial, SameAsS1, ShapeSame, [4]string{"in"}},
	OpAdd:        {OpAdd, "Add", "Add", CategoryBinary, SameAsS1, ShapeBroadcast, [4]string{"a", "b"}},
	OpSub:        {OpSub, "Sub", "Sub", CategoryBinary, SameAsS1, ShapeBroadcast, [4]string{"a", "b"}},
	OpMul:        {OpMul, "Mul", "Mul", CategoryBinary, SameAsS1, ShapeBroadcast, [4]string{"a", "b"}},
	OpDiv:        {OpDiv, "Div", "Div", CategoryBinary, SameAsS1, ShapeBroadcast, [4]string{"a", "b"}},
	OpPow:        {OpPow, "Pow", "Pow", CategoryBinary, SameAsS1, ShapeBroadcast, [4]string{"a", "b"}},
	OpAtan2:      {OpAtan2, "Atan2", "Atan2", CategoryBinary, ForceF32, ShapeBroadcast, [4]string{"y", "x"}},
	OpMin:        {OpMin, "Min", "Min", CategoryBinary, SameAsS1, ShapeBroadcast, [4]string{"a", "b"}},
	OpMax:        {OpMax, "Max", "Max", CategoryBinary, SameAsS1, ShapeBroadcast, [4]string{"a", "b"}},
	OpAbs:        {OpAbs, "Abs", "Abs", CategoryUnary, SameAsS1, ShapeSame, [4]string{"a"}},
	OpSin:        {OpSin, "Sin", "Sin", CategoryUnary, ForceF32, ShapeSame, [4]string{"a"}},
	OpCos:        {OpCos, "Cos", "Cos", CategoryUnary, ForceF32, ShapeSame, [4]string{"a"}},
	OpSqrt:       {OpSqrt, "Sqrt", "Sqrt", CategoryUnary, ForceF32, ShapeSame, [4]string{"a"}},
	OpFloor:      {OpFloor, "Floor", "Floor", CategoryUnary, SameAsS1, ShapeSame, [4]string{"a"}},
	OpCeil:       {OpCeil, "Ceil", "Ceil", CategoryUnary, SameAsS1, ShapeSame, [4]string{"a"}},
	OpNot:        {OpNot, "Not", "Not", CategoryUnary, ForceU8, ShapeSame, [4]string{"a"}},
	OpSelect:     {OpSelect, "Select", "Select", CategoryTernary, SameAsS2, ShapeBroadcast, [4]string{"cond", "t", "f"}},
	OpMix:        {OpMix, "Mix", "Mix", CategoryTernary, ForceF32, ShapeBroadcast, [4]string{"a", "b", "t"}},
	OpClamp:      {OpClamp, "Clamp", "Clamp", CategoryTernary, SameAsS1, ShapeBroadcast, [4]string{"a", "lo", "hi"}},
	OpStep:       {OpStep, "Step", "Step", CategoryBinary, ForceF32, ShapeBroadcast, [4]string{"edge", "a"}},
	OpSmoothstep: {OpSmoothstep, "SmoothStep", "SmoothStep", CategoryTernary, ForceF32, ShapeBroadcast, [4]string{"edges", "a"}},
	OpMatMul:     {OpMatMul, "MatMul", "MatMul", CategoryMatrix, SameAsS1, ShapeMatmul, [4]string{"a", "b"}},
	OpTranspose:  {OpTranspose, "Transpose", "Transpose", CategoryMatrix, SameAsS1, ShapeTranspose, [4]string{"a"}},
	OpInverse:    {OpInverse, "Inverse", "Inverse", CategoryMatrix, ForceF32, ShapeSame, [4]string{"a"}},
	OpNormalize:  {OpNormalize, "Normalize", "Normalize", CategoryMatrix, ForceF32, ShapeSame, [4]string{"a"}},
	OpDot:        {OpDot, "Dot", "Dot", CategoryMatrix, ForceF32, ShapeDot, [4]string{"a", "b"}},
	OpLength:     {OpLength, "Length", "Length", CategoryMatrix, ForceF32, ShapeDot, [4]string{"a"}},
	// Join declares all 4 port names the table schema allows, but an
	// Instruction record only carries 3 source operand slots (Dest, Src1,
	// Src2, Src3) — see backend.kernelJoin, which packs "a"/"b"/"c" and
	// drops "d".
	OpJoin:       {OpJoin, "Join", "Join", CategoryArray, SameAsS1, ShapeJoin, [4]string{"a", "b", "c", "d"}},
	OpLess:       {OpLess, "Less", "Less", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpGreater:    {OpGreater, "Greater", "Greater", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpEqual:      {OpEqual, "Equal", "Equal", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpNequal:     {OpNequal, "NotEqual", "NotEqual", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpLequal:     {OpLequal, "LessEqual", "LessEqual", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpGequal:     {OpGequal, "GreaterEqual", "GreaterEqual", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpAnd:        {OpAnd, "And", "And", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpOr:         {OpOr, "Or", "Or", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpXor:        {OpXor, "Xor", "Xor", CategoryBinary, ForceU8, ShapeBroadcast, [4]string{"a", "b"}},
	OpRange:      {OpRange, "Range", "Range", CategoryArray, ForceI32, ShapeDynamic1D, [4]string{}},
	OpIndex:      {OpIndex, "Index", "Index", CategoryArray, ForceF32, ShapeDynamic1D, [4]string{}},
	OpGather:     {OpGather, "Gather", "Gather", CategoryArray, SameAsS1, ShapeGather, [4]string{"data", "indices"}},
	OpCumsum:     {OpCumsum, "Cumsum", "Cumsum", CategoryReduction, SameAsS1, ShapeSame, [4]string{"a"}},
	OpCompress:   {OpCompress, "Filter", "Filter", CategoryArray, SameAsS1, ShapeDynamic1D, [4]string{"mask", "data"}},
	OpSlice:      {OpSlice, "Slice", "Slice", CategoryArray, SameAsS1, ShapeSlice, [4]string{"a", "range"}},
	OpReshape:    {OpReshape, "Reshape", "Reshape", CategoryArray, SameAsS1, ShapeReshape, [4]string{"a", "shape"}},
	OpCopy:       {OpCopy, "Copy", "Copy", CategoryUnary, SameAsS1, ShapeSame, [4]string{"a"}},
	OpFMA:        {OpFMA, "FMA", "", CategoryTernary, SameAsS1, ShapeBroadcast, [4]string{"a", "b", "c"}},
	OpSelectWhereFalse: {OpSelectWhereFalse, "SelectWhereFalse", "", CategoryTernary, SameAsS2, ShapeBroadcast, [4]string{"cond", "t", "f"}},
}

var byJSONName = func() map[string]Opcode {
	m := make(map[string]Opcode, opcodeCount)
	for i, d := range registry {
		if d.JSONName != "" {
			m[d.JSONName] = Opcode(i)
		}
	}
	return m
}()

// Lookup returns the Def for an opcode.
func Lookup(op Opcode) Def { return registry[op] }

// ByJSONName resolves a graph-JSON "type" string to an opcode.
func ByJSONName(name string) (Opcode, bool) {
	op, ok := byJSONName[name]
	return op, ok
}

// PortIndex resolves a port name to its positional index for op, or -1.
func PortIndex(op Opcode, port string) int {
	d := registry[op]
	for i, p := range d.Ports {
		if p == port {
			return i
		}
	}
	return -1
}
