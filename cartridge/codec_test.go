package cartridge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/tensor"
)

func sampleProgram() *program.Program {
	constBytes := make([]byte, 16)
	return &program.Program{
		Instructions: []program.Instruction{
			{Opcode: uint16(ops.OpAdd), Dest: 2, Src1: 0, Src2: 1, Strides: [4]int32{1, 1, 1, 0}},
		},
		Symbols: []program.Symbol{
			{Name: "a_in", RegisterIdx: 0, Flags: program.SymInput},
			{Name: "c_out", RegisterIdx: 2, Flags: program.SymOutput},
		},
		Tasks: []program.Task{
			{FirstInstr: 0, Count: 1, DomainShape: [tensor.MaxDims]int32{4}, DomainNDim: 1},
		},
		TaskBindings: []program.TaskBinding{
			{TaskIdx: 0, Register: 2, IsOutput: true},
		},
		Prototypes: []program.TensorPrototype{
			{Info: tensor.Vector(tensor.F32, 4)},
			{Info: tensor.Vector(tensor.F32, 4), IsConstant: true, Constant: constBytes},
			{Info: tensor.Vector(tensor.F32, 4)},
		},
	}
}

func TestEncodeDecodeProgramRoundTrip(t *testing.T) {
	t.Parallel()
	prog := sampleProgram()

	blob, err := EncodeProgram(prog, 640, 480)
	require.NoError(t, err)

	got, err := DecodeProgram(blob)
	require.NoError(t, err)

	require.Len(t, got.Instructions, 1)
	require.Equal(t, prog.Instructions[0].Opcode, got.Instructions[0].Opcode)
	require.Len(t, got.Symbols, 2)
	require.Equal(t, "a_in", got.Symbols[0].Name)
	require.Equal(t, "c_out", got.Symbols[1].Name)
	require.Len(t, got.Prototypes, 3)
	require.True(t, got.Prototypes[1].IsConstant)
	require.Len(t, got.Prototypes[1].Constant, 16)
}

func TestDecodeProgramRejectsBadMagic(t *testing.T) {
	t.Parallel()
	_, err := DecodeProgram(make([]byte, 64))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestContainerFindSectionRoundTrip(t *testing.T) {
	t.Parallel()
	prog := sampleProgram()
	progBlob, err := EncodeProgram(prog, 0, 0)
	require.NoError(t, err)

	sections := []Section{
		{Name: "main", Type: SectionProgram, Data: progBlob},
		{Name: "app.mfapp", Type: SectionAsset, Data: []byte(`{"window":{}}`)},
	}
	container, err := WriteContainer(sections)
	require.NoError(t, err)

	c, err := ReadContainer(container)
	require.NoError(t, err)

	data, ok, err := c.FindSection("main", SectionProgram)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, progBlob, data)

	_, ok, err = c.FindSection("missing", SectionAsset)
	require.NoError(t, err)
	require.False(t, ok)
}
