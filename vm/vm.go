// Package vm executes a compiled Program against a register file of
// tensors. It is the straight-line, single-threaded interpreter that both
// the headless runner and the tiled scheduler's per-worker instances embed;
// grounded on the teacher's runtime.Engine.Run() sequential execution path,
// simplified to the register-machine model spec §5 describes instead of the
// teacher's dependency-scheduled Sublate graph.
package vm

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BinaryCat17/mathflow/backend"
	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/internal/mflog"
	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/tensor"
)

// VM holds one register file for a Program plus the allocator backing it.
type VM struct {
	Prog  *program.Program
	Alloc memory.Allocator

	registers []*tensor.Tensor
	errWord   diag.ErrorWord
}

// New builds a VM for prog with an empty register file; it allocates
// nothing — call Reset to allocate every register from alloc.
func New(prog *program.Program, alloc memory.Allocator) *VM {
	return &VM{
		Prog:      prog,
		Alloc:     alloc,
		registers: make([]*tensor.Tensor, prog.RegisterCount()),
	}
}

// Reset (re)allocates every register's backing storage: constants are
// deep-copied from their prototype, inputs/outputs/intermediates start
// zeroed at their declared shape. A register's previous storage is freed
// first. MEMORY registers are reset to their init value like every other
// register, so feedback state carries across Exec calls only while no Reset
// runs between them (the pipeline package calls Reset once, when it builds
// an instance).
func (v *VM) Reset() error {
	for i, proto := range v.Prog.Prototypes {
		if i >= len(v.registers) {
			break
		}
		if old := v.registers[i]; old != nil && old.Buffer != nil {
			old.Buffer.Free()
		}
		t, err := tensor.New(v.Alloc, proto.Info)
		if err != nil {
			return errors.Wrapf(err, "vm: alloc register %d", i)
		}
		if proto.IsConstant && len(proto.Constant) > 0 {
			copy(t.Data(), proto.Constant)
		}
		v.registers[i] = t
	}
	for i := len(v.Prog.Prototypes); i < len(v.registers); i++ {
		if v.registers[i] == nil {
			t, err := tensor.New(v.Alloc, tensor.Scalar(tensor.F32))
			if err != nil {
				return errors.Wrapf(err, "vm: alloc placeholder register %d", i)
			}
			v.registers[i] = t
		}
	}
	v.errWord.Clear()
	return nil
}

// Register exposes a live register tensor, e.g. so a caller can copy input
// data in or read an OUTPUT-bound register out after Exec.
func (v *VM) Register(idx uint16) *tensor.Tensor {
	if int(idx) >= len(v.registers) {
		return nil
	}
	return v.registers[idx]
}

// FindRegister resolves a symbol name (an INPUT/OUTPUT port) to its
// register index via the program's symbol table.
func (v *VM) FindRegister(name string) (uint16, bool) {
	sym, ok := v.Prog.FindSymbol(name)
	if !ok {
		return 0, false
	}
	return sym.RegisterIdx, true
}

// ExecParams carries the tiled-dispatch builtins a single Exec invocation
// runs with; a non-tiled caller (mf-runner) leaves these at their zero
// value, which resolves to a single tile covering the whole domain.
type ExecParams struct {
	GlobalOffset [3]uint32
	LocalSize    [3]uint32
	GlobalSize   [3]uint32
}

// Exec runs every instruction in program order, task by task, feeding each
// kernel a KernelCtx built from the VM's own register file. It stops at the
// first RuntimeInvalidOpcode (a missing kernel is a programming error, not
// a data error, so it is returned rather than masked). It polls the shared
// error word after each instruction and skips the rest of the frame once a
// kernel has set it; that kind is logged, and Exec still returns nil.
func (v *VM) Exec(params ExecParams) error {
tasks:
	for _, task := range v.Prog.Tasks {
		batch := domainSize(task.DomainShape[:task.DomainNDim])
		for i := 0; i < int(task.Count); i++ {
			instr := v.Prog.Instructions[int(task.FirstInstr)+i]
			kernel := backend.GetKernel(instr.Opcode)
			if kernel == nil {
				return errors.Errorf("vm: no kernel registered for opcode %d", instr.Opcode)
			}
			ctx := &backend.KernelCtx{
				Registers:    v.registers,
				BatchSize:    batch,
				GlobalOffset: params.GlobalOffset,
				LocalSize:    params.LocalSize,
				GlobalSize:   params.GlobalSize,
				Err:          &v.errWord,
			}
			kernel(ctx, instr.Dest, instr.Src1, instr.Src2, instr.Src3, instr.Strides)
			if v.errWord.IsSet() {
				break tasks
			}
		}
	}
	if v.errWord.IsSet() {
		kind := diag.RuntimeKind(v.errWord.Load())
		mflog.L().Warn("vm: runtime error flagged during exec", zap.String("kind", kind.String()))
	}
	return nil
}

func domainSize(shape []int32) int {
	if len(shape) == 0 {
		return 1
	}
	n := 1
	for _, s := range shape {
		if s > 0 {
			n *= int(s)
		}
	}
	return n
}
