package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/vm"
)

func compileOK(t *testing.T, src string) *program.Program {
	t.Helper()
	prog, sink := Compile(src, Options{SourceFile: "test.json", ValidateGraph: true})
	require.False(t, sink.HasErrors(), "unexpected diagnostics: %v", sink.All())
	return prog
}

func runOnce(t *testing.T, prog *program.Program) *vm.VM {
	t.Helper()
	machine := vm.New(prog, memory.NewHeap(1<<20))
	require.NoError(t, machine.Reset())
	require.NoError(t, machine.Exec(vm.ExecParams{}))
	return machine
}

// Scenario 1: Arithmetic.
func TestCompileArithmetic(t *testing.T) {
	t.Parallel()
	src := `{
		"nodes": [
			{"id": "a", "type": "Const", "data": {"value": 3.0}},
			{"id": "b", "type": "Const", "data": {"value": 4.0}},
			{"id": "sum", "type": "Add", "data": {}},
			{"id": "out", "type": "Output", "data": {}}
		],
		"links": [
			{"src": "a", "src_port": "out", "dst": "sum", "dst_port": "a"},
			{"src": "b", "src_port": "out", "dst": "sum", "dst_port": "b"},
			{"src": "sum", "src_port": "out", "dst": "out", "dst_port": "in"}
		]
	}`
	prog := compileOK(t, src)
	machine := runOnce(t, prog)

	idx, ok := machine.FindRegister("out")
	require.True(t, ok)
	require.Equal(t, []float32{7}, machine.Register(idx).Float32())
}

// Scenario 2: Broadcast.
func TestCompileBroadcast(t *testing.T) {
	t.Parallel()
	src := `{
		"nodes": [
			{"id": "v", "type": "Const", "data": {"value": [1, 2, 3, 4]}},
			{"id": "s", "type": "Const", "data": {"value": 10}},
			{"id": "prod", "type": "Mul", "data": {}},
			{"id": "out", "type": "Output", "data": {}}
		],
		"links": [
			{"src": "v", "dst": "prod", "dst_port": "a"},
			{"src": "s", "dst": "prod", "dst_port": "b"},
			{"src": "prod", "dst": "out", "dst_port": "in"}
		]
	}`
	prog := compileOK(t, src)
	machine := runOnce(t, prog)

	idx, ok := machine.FindRegister("out")
	require.True(t, ok)
	require.Equal(t, []float32{10, 20, 30, 40}, machine.Register(idx).Float32())
}

// Scenario 3: MatMul.
func TestCompileMatMul(t *testing.T) {
	t.Parallel()
	src := `{
		"nodes": [
			{"id": "a", "type": "Const", "data": {"value": [[1, 2], [3, 4]]}},
			{"id": "b", "type": "Const", "data": {"value": [[5, 6], [7, 8]]}},
			{"id": "m", "type": "MatMul", "data": {}},
			{"id": "out", "type": "Output", "data": {}}
		],
		"links": [
			{"src": "a", "dst": "m", "dst_port": "a"},
			{"src": "b", "dst": "m", "dst_port": "b"},
			{"src": "m", "dst": "out", "dst_port": "in"}
		]
	}`
	prog := compileOK(t, src)
	machine := runOnce(t, prog)

	idx, ok := machine.FindRegister("out")
	require.True(t, ok)
	require.Equal(t, []float32{19, 22, 43, 50}, machine.Register(idx).Float32())
}

// Scenario 4: Select.
func TestCompileSelect(t *testing.T) {
	t.Parallel()
	src := `{
		"nodes": [
			{"id": "cond", "type": "Const", "data": {"dtype": "U8", "value": [1, 0, 1]}},
			{"id": "t", "type": "Const", "data": {"value": [10, 20, 30]}},
			{"id": "f", "type": "Const", "data": {"value": [-1, -2, -3]}},
			{"id": "sel", "type": "Select", "data": {}},
			{"id": "out", "type": "Output", "data": {}}
		],
		"links": [
			{"src": "cond", "dst": "sel", "dst_port": "cond"},
			{"src": "t", "dst": "sel", "dst_port": "t"},
			{"src": "f", "dst": "sel", "dst_port": "f"},
			{"src": "sel", "dst": "out", "dst_port": "in"}
		]
	}`
	prog := compileOK(t, src)
	machine := runOnce(t, prog)

	idx, ok := machine.FindRegister("out")
	require.True(t, ok)
	require.Equal(t, []float32{10, -2, 30}, machine.Register(idx).Float32())
}

// Scenario 5: State feedback through MEMORY. After N frames (one Reset,
// N Exec calls) the memory register holds N.
func TestCompileMemoryFeedback(t *testing.T) {
	t.Parallel()
	src := `{
		"nodes": [
			{"id": "state", "type": "Memory", "data": {"init": 0}},
			{"id": "one", "type": "Const", "data": {"value": 1.0}},
			{"id": "next", "type": "Add", "data": {}}
		],
		"links": [
			{"src": "state", "dst": "next", "dst_port": "a"},
			{"src": "one", "dst": "next", "dst_port": "b"},
			{"src": "next", "dst": "state", "dst_port": "in"}
		]
	}`
	prog := compileOK(t, src)
	machine := vm.New(prog, memory.NewHeap(1<<20))
	require.NoError(t, machine.Reset())

	// MEMORY nodes carry no INPUT/OUTPUT symbol, so there is no name to look
	// up by; walk every register's value after N frames instead.
	const frames = 5
	for i := 0; i < frames; i++ {
		require.NoError(t, machine.Exec(vm.ExecParams{}))
	}

	// The "next" Add node's output equals the memory's value plus one each
	// frame; after 5 frames of 0+1 feedback the memory register holds 5.
	found := false
	for _, reg := range allRegisters(machine, prog) {
		if len(reg) == 1 && reg[0] == float32(frames) {
			found = true
		}
	}
	require.True(t, found, "expected a register holding %d after %d frames", frames, frames)
}

func allRegisters(machine *vm.VM, prog *program.Program) [][]float32 {
	out := make([][]float32, prog.RegisterCount())
	for i := range out {
		if r := machine.Register(uint16(i)); r != nil {
			out[i] = r.Float32()
		}
	}
	return out
}

func TestCompileRejectsUnknownOp(t *testing.T) {
	t.Parallel()
	src := `{"nodes": [{"id": "a", "type": "Frobnicate", "data": {}}], "links": []}`
	_, sink := Compile(src, Options{SourceFile: "test.json"})
	require.True(t, sink.HasErrors())
}

func TestCompileRejectsUnresolvedLink(t *testing.T) {
	t.Parallel()
	src := `{
		"nodes": [{"id": "out", "type": "Output", "data": {}}],
		"links": [{"src": "missing", "dst": "out", "dst_port": "in"}]
	}`
	_, sink := Compile(src, Options{SourceFile: "test.json"})
	require.True(t, sink.HasErrors())
}

func TestCompileRejectsBroadcastDtypeMismatch(t *testing.T) {
	t.Parallel()
	src := `{
		"nodes": [
			{"id": "a", "type": "Const", "data": {"dtype": "I32", "value": [1, 2]}},
			{"id": "b", "type": "Const", "data": {"value": [1, 2]}},
			{"id": "sum", "type": "Add", "data": {}},
			{"id": "out", "type": "Output", "data": {}}
		],
		"links": [
			{"src": "a", "dst": "sum", "dst_port": "a"},
			{"src": "b", "dst": "sum", "dst_port": "b"},
			{"src": "sum", "dst": "out", "dst_port": "in"}
		]
	}`
	_, sink := Compile(src, Options{SourceFile: "test.json"})
	require.True(t, sink.HasErrors())
	require.Equal(t, diag.TypeMismatch, sink.First().Kind)
}

func TestRelatedHashPairsInOutSuffixes(t *testing.T) {
	t.Parallel()
	require.Equal(t, relatedHash("u_State_in"), relatedHash("u_State_out"))
	require.NotEqual(t, relatedHash("u_State_in"), relatedHash("u_Other_out"))
}
