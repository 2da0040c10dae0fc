// Package program is the bytecode container the compiler emits and the VM
// executes: fixed-size Instructions, a Symbol table, Tasks grouping
// instructions by domain, and the Tensor prototypes each register is
// initialized from.
package program

import "github.com/BinaryCat17/mathflow/tensor"

// Instruction is the fixed-size bytecode record per the data model: one
// opcode plus up to four register operands and four per-operand element
// strides relative to the enclosing task's domain. The opcode, operand and
// padding fields take 96 bits; with the strides the record is 28 bytes.
type Instruction struct {
	Opcode             uint16
	Dest, Src1, Src2, Src3 uint16
	_ uint16 // padding, rounds the opcode and operand fields up to 96 bits
	Strides [4]int32
}

// Symbol flag bits.
const (
	SymInput uint8 = 1 << iota
	SymOutput
)

// Symbol binds a name to a register, with a hash of a "related" name for
// auto-resize input/output pairing (e.g. u_State_in <-> u_State_out).
type Symbol struct {
	Name            string
	RegisterIdx     uint16
	Flags           uint8
	RelatedNameHash uint32
}

// Task is a contiguous instruction range sharing a domain shape.
type Task struct {
	FirstInstr  int
	Count       int
	DomainShape [tensor.MaxDims]int32
	DomainNDim  uint8
}

// TaskBinding records which registers a task reads or writes.
type TaskBinding struct {
	TaskIdx  int
	Register uint16
	IsOutput bool
}

// TensorPrototype is the compile-time description of one VM register: its
// TypeInfo and, for CONST nodes, the constant bytes to initialize it with.
type TensorPrototype struct {
	Info       tensor.TypeInfo
	IsConstant bool
	Constant   []byte
}

// Header carries the few program-wide fields needed before any section is
// read back (counts mirror the cartridge header in package cartridge).
type Header struct {
	Version uint32
}

const CurrentVersion = 8

// Program is the compiler's final output: bytecode plus every piece of
// metadata the VM and pipeline engine need to execute it.
type Program struct {
	Header       Header
	Instructions []Instruction
	Symbols      []Symbol
	Tasks        []Task
	TaskBindings []TaskBinding
	Prototypes   []TensorPrototype
}

// RegisterCount is the high-water mark of registers this program uses.
func (p *Program) RegisterCount() int { return len(p.Prototypes) }

// FindSymbol does a linear scan of the symbol table by name, matching the
// VM's find_register contract (§4.6).
func (p *Program) FindSymbol(name string) (Symbol, bool) {
	for _, s := range p.Symbols {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}
