// Package cartridge implements the binary program/asset container spec.md
// §4.9/§6 describes: a small fixed header followed by sequential sections
// (instructions, symbols, tasks, task-bindings, tensor descriptors, then a
// concatenated constant-data blob), plus a section table for a multi-kernel
// app cartridge that bundles several compiled Programs and raw assets
// (images, fonts, pipeline manifest JSON) by name and type.
//
// Grounded on model/graph.go's Serialize/Deserialize magic+version+aligned
// payload pattern and core/serialize.go's CRC32 integrity-header idiom
// (reused here as an optional per-section checksum — the original
// find_section scan has no integrity field of its own, a supplement rather
// than a spec change), cross-checked field-for-field against
// original_source's mf_bin_header/mf_bin_symbol/mf_bin_tensor_desc.
package cartridge

import "github.com/BinaryCat17/mathflow/tensor"

// Magic and Version match MF_BINARY_MAGIC / MF_BINARY_VERSION exactly.
const (
	Magic   uint32 = 0x4D464C57 // "MFLW"
	Version uint32 = 8
)

// Symbol flag bits, matching MF_SYMBOL_FLAG_INPUT/OUTPUT.
const (
	SymbolFlagInput  uint8 = 1 << 0
	SymbolFlagOutput uint8 = 1 << 1
)

const maxSymbolName = 64

// Header is the fixed-size record at the start of a program blob, extended
// from mf_bin_header with the task/binding counts and window config
// spec.md §6 additionally requires for a standalone .mfc file.
type Header struct {
	Magic   uint32
	Version uint32

	InstructionCount uint32
	TensorCount      uint32
	SymbolCount      uint32
	TaskCount        uint32
	BindingCount     uint32

	WindowWidth  uint32
	WindowHeight uint32

	Reserved [4]uint32
}

// binSymbol is the on-disk Symbol record: a fixed name field plus register
// index and flags, matching mf_bin_symbol exactly.
type binSymbol struct {
	Name        [maxSymbolName]byte
	RegisterIdx uint32
	Flags       uint8
	Reserved    [3]byte
}

// binTensorDesc is the on-disk TensorPrototype record, matching
// mf_bin_tensor_desc exactly: dtype, rank, a constant flag, padding, the
// fixed shape array, and the size of the constant data that follows in the
// concatenated data blob (0 if not constant).
type binTensorDesc struct {
	Dtype      uint8
	NDim       uint8
	IsConstant uint8
	Reserved   uint8
	Shape      [tensor.MaxDims]int32
	DataSize   uint64
}

// binTask is the on-disk Task record.
type binTask struct {
	FirstInstr uint32
	Count      uint32
	DomainDims [tensor.MaxDims]int32
	DomainNDim uint8
	_          [3]byte // alignment padding
}

// binBinding is the on-disk TaskBinding record.
type binBinding struct {
	TaskIdx  uint32
	Register uint16
	IsOutput uint8
	_        uint8
}
