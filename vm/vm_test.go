package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/tensor"
)

func vecInfo(n int32) tensor.TypeInfo {
	return tensor.FromShape(tensor.F32, []int32{n})
}

func TestVMExecAdd(t *testing.T) {
	t.Parallel()

	prog := &program.Program{
		Prototypes: []program.TensorPrototype{
			{Info: vecInfo(4)},
			{Info: vecInfo(4)},
			{Info: vecInfo(4)},
		},
		Instructions: []program.Instruction{
			{Opcode: uint16(ops.OpAdd), Dest: 2, Src1: 0, Src2: 1, Strides: [4]int32{1, 1, 1, 0}},
		},
		Tasks: []program.Task{
			{FirstInstr: 0, Count: 1, DomainShape: [tensor.MaxDims]int32{4}, DomainNDim: 1},
		},
		Symbols: []program.Symbol{
			{Name: "a_in", RegisterIdx: 0, Flags: program.SymInput},
			{Name: "b_in", RegisterIdx: 1, Flags: program.SymInput},
			{Name: "c_out", RegisterIdx: 2, Flags: program.SymOutput},
		},
	}

	heap := memory.NewHeap(4096)
	machine := New(prog, heap)
	require.NoError(t, machine.Reset())

	a := machine.Register(0).Float32()
	b := machine.Register(1).Float32()
	copy(a, []float32{1, 2, 3, 4})
	copy(b, []float32{10, 20, 30, 40})

	require.NoError(t, machine.Exec(ExecParams{}))

	out := machine.Register(2).Float32()
	require.Equal(t, []float32{11, 22, 33, 44}, out)
}

func TestVMFindRegisterBySymbol(t *testing.T) {
	t.Parallel()

	prog := &program.Program{
		Prototypes: []program.TensorPrototype{{Info: tensor.Scalar(tensor.F32)}},
		Symbols:    []program.Symbol{{Name: "u_Time", RegisterIdx: 0, Flags: program.SymInput}},
	}
	heap := memory.NewHeap(1024)
	machine := New(prog, heap)
	require.NoError(t, machine.Reset())

	idx, ok := machine.FindRegister("u_Time")
	require.True(t, ok)
	require.EqualValues(t, 0, idx)

	_, ok = machine.FindRegister("missing")
	require.False(t, ok)
}

func TestVMExecMissingKernelErrors(t *testing.T) {
	t.Parallel()

	prog := &program.Program{
		Prototypes: []program.TensorPrototype{{Info: vecInfo(1)}},
		Instructions: []program.Instruction{
			{Opcode: 9999, Dest: 0, Strides: [4]int32{1}},
		},
		Tasks: []program.Task{
			{FirstInstr: 0, Count: 1, DomainShape: [tensor.MaxDims]int32{1}, DomainNDim: 1},
		},
	}
	heap := memory.NewHeap(1024)
	machine := New(prog, heap)
	require.NoError(t, machine.Reset())
	require.Error(t, machine.Exec(ExecParams{}))
}
