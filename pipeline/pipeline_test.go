package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/tensor"
)

func addProgram(aName, bName, outName string) *program.Program {
	return &program.Program{
		Prototypes: []program.TensorPrototype{
			{Info: tensor.Vector(tensor.F32, 4)},
			{Info: tensor.Vector(tensor.F32, 4)},
			{Info: tensor.Vector(tensor.F32, 4)},
		},
		Instructions: []program.Instruction{
			{Opcode: uint16(ops.OpAdd), Dest: 2, Src1: 0, Src2: 1, Strides: [4]int32{1, 1, 1, 0}},
		},
		Tasks: []program.Task{
			{FirstInstr: 0, Count: 1, DomainShape: [tensor.MaxDims]int32{4}, DomainNDim: 1},
		},
		Symbols: []program.Symbol{
			{Name: aName, RegisterIdx: 0, Flags: program.SymInput},
			{Name: bName, RegisterIdx: 1, Flags: program.SymInput},
			{Name: outName, RegisterIdx: 2, Flags: program.SymOutput},
		},
	}
}

func TestPipelineBuildAndDispatch(t *testing.T) {
	t.Parallel()
	heap := memory.NewHeap(1 << 16)

	prog := addProgram("a_in", "b_in", "c_out")
	desc := Description{
		Resources: []ResourceSpec{
			{Name: "A", Info: tensor.Vector(tensor.F32, 4)},
			{Name: "B", Info: tensor.Vector(tensor.F32, 4)},
			{Name: "C", Info: tensor.Vector(tensor.F32, 4)},
		},
		Kernels: []KernelSpec{
			{ID: "add", Prog: prog, Frequency: 1, Bindings: map[string]string{
				"a_in": "A", "b_in": "B", "c_out": "C",
			}},
		},
	}

	eng, err := Build(heap, desc)
	require.NoError(t, err)

	a, _ := eng.Resource("A")
	b, _ := eng.Resource("B")
	copy(a.Front().Float32(), []float32{1, 2, 3, 4})
	copy(b.Front().Float32(), []float32{10, 20, 30, 40})

	require.NoError(t, eng.Dispatch(DispatchParams{}))

	c, _ := eng.Resource("C")
	require.Equal(t, []float32{11, 22, 33, 44}, c.Front().Float32())
}

func TestPipelineRejectsUnknownResourceBinding(t *testing.T) {
	t.Parallel()
	heap := memory.NewHeap(1 << 16)
	prog := addProgram("a_in", "b_in", "c_out")
	desc := Description{
		Resources: []ResourceSpec{{Name: "A", Info: tensor.Vector(tensor.F32, 4)}},
		Kernels: []KernelSpec{
			{ID: "add", Prog: prog, Frequency: 1, Bindings: map[string]string{
				"a_in": "A", "b_in": "Missing", "c_out": "A",
			}},
		},
	}
	_, err := Build(heap, desc)
	require.Error(t, err)
}
