package cartridge

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/tensor"
)

// ErrBadMagic/ErrBadVersion are returned when a loader encounters a file
// that is not one of ours, or one written by an incompatible version —
// spec.md §6: "Loader rejects mismatched magic or version."
var (
	ErrBadMagic   = errors.New("cartridge: bad magic")
	ErrBadVersion = errors.New("cartridge: unsupported version")
)

// EncodeProgram serializes prog to the binary layout spec.md §6 defines:
// header, instructions, symbols, tasks, task-bindings, tensor descriptors,
// then concatenated constant data in tensor order.
func EncodeProgram(prog *program.Program, windowWidth, windowHeight uint32) ([]byte, error) {
	var buf bytes.Buffer

	hdr := Header{
		Magic:            Magic,
		Version:          Version,
		InstructionCount: uint32(len(prog.Instructions)),
		TensorCount:      uint32(len(prog.Prototypes)),
		SymbolCount:      uint32(len(prog.Symbols)),
		TaskCount:        uint32(len(prog.Tasks)),
		BindingCount:     uint32(len(prog.TaskBindings)),
		WindowWidth:      windowWidth,
		WindowHeight:     windowHeight,
	}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, errors.Wrap(err, "cartridge: write header")
	}

	for _, instr := range prog.Instructions {
		if err := binary.Write(&buf, binary.LittleEndian, instr); err != nil {
			return nil, errors.Wrap(err, "cartridge: write instruction")
		}
	}

	for _, sym := range prog.Symbols {
		var rec binSymbol
		copy(rec.Name[:], sym.Name)
		rec.RegisterIdx = uint32(sym.RegisterIdx)
		rec.Flags = sym.Flags
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			return nil, errors.Wrap(err, "cartridge: write symbol")
		}
	}

	for _, task := range prog.Tasks {
		rec := binTask{
			FirstInstr: uint32(task.FirstInstr),
			Count:      uint32(task.Count),
			DomainDims: task.DomainShape,
			DomainNDim: task.DomainNDim,
		}
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			return nil, errors.Wrap(err, "cartridge: write task")
		}
	}

	for _, tb := range prog.TaskBindings {
		rec := binBinding{TaskIdx: uint32(tb.TaskIdx), Register: tb.Register}
		if tb.IsOutput {
			rec.IsOutput = 1
		}
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			return nil, errors.Wrap(err, "cartridge: write task binding")
		}
	}

	for _, proto := range prog.Prototypes {
		rec := binTensorDesc{
			Dtype: uint8(proto.Info.Dtype),
			NDim:  proto.Info.NDim,
			Shape: proto.Info.Shape,
		}
		if proto.IsConstant {
			rec.IsConstant = 1
			rec.DataSize = uint64(len(proto.Constant))
		}
		if err := binary.Write(&buf, binary.LittleEndian, rec); err != nil {
			return nil, errors.Wrap(err, "cartridge: write tensor descriptor")
		}
	}

	for _, proto := range prog.Prototypes {
		if proto.IsConstant && len(proto.Constant) > 0 {
			buf.Write(proto.Constant)
		}
	}

	return buf.Bytes(), nil
}

// DecodeProgram parses the layout EncodeProgram writes back into a Program.
func DecodeProgram(data []byte) (*program.Program, error) {
	r := bytes.NewReader(data)

	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "cartridge: read header")
	}
	if hdr.Magic != Magic {
		return nil, ErrBadMagic
	}
	if hdr.Version != Version {
		return nil, ErrBadVersion
	}

	prog := &program.Program{Header: program.Header{Version: hdr.Version}}

	prog.Instructions = make([]program.Instruction, hdr.InstructionCount)
	for i := range prog.Instructions {
		if err := binary.Read(r, binary.LittleEndian, &prog.Instructions[i]); err != nil {
			return nil, errors.Wrap(err, "cartridge: read instruction")
		}
	}

	prog.Symbols = make([]program.Symbol, hdr.SymbolCount)
	for i := range prog.Symbols {
		var rec binSymbol
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, errors.Wrap(err, "cartridge: read symbol")
		}
		prog.Symbols[i] = program.Symbol{
			Name:        cString(rec.Name[:]),
			RegisterIdx: uint16(rec.RegisterIdx),
			Flags:       rec.Flags,
		}
	}

	prog.Tasks = make([]program.Task, hdr.TaskCount)
	for i := range prog.Tasks {
		var rec binTask
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, errors.Wrap(err, "cartridge: read task")
		}
		prog.Tasks[i] = program.Task{
			FirstInstr:  int(rec.FirstInstr),
			Count:       int(rec.Count),
			DomainShape: rec.DomainDims,
			DomainNDim:  rec.DomainNDim,
		}
	}

	prog.TaskBindings = make([]program.TaskBinding, hdr.BindingCount)
	for i := range prog.TaskBindings {
		var rec binBinding
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, errors.Wrap(err, "cartridge: read task binding")
		}
		prog.TaskBindings[i] = program.TaskBinding{
			TaskIdx:  int(rec.TaskIdx),
			Register: rec.Register,
			IsOutput: rec.IsOutput != 0,
		}
	}

	descs := make([]binTensorDesc, hdr.TensorCount)
	for i := range descs {
		if err := binary.Read(r, binary.LittleEndian, &descs[i]); err != nil {
			return nil, errors.Wrap(err, "cartridge: read tensor descriptor")
		}
	}

	prog.Prototypes = make([]program.TensorPrototype, hdr.TensorCount)
	for i, d := range descs {
		// Strides are not stored on disk (matching mf_bin_tensor_desc): a
		// loaded tensor is always row-major contiguous at its declared shape.
		info := tensor.FromShape(tensor.Dtype(d.Dtype), d.Shape[:d.NDim])
		proto := program.TensorPrototype{Info: info}
		if d.IsConstant == 1 && d.DataSize > 0 {
			payload := make([]byte, d.DataSize)
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, errors.Wrap(err, "cartridge: read constant data")
			}
			proto.IsConstant = true
			proto.Constant = payload
		}
		prog.Prototypes[i] = proto
	}

	return prog, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
