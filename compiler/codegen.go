package compiler

import (
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/tensor"
)

// codegen is Pass 9: emit one instruction per live operation node (SELECT
// emits two, WHERE_TRUE and WHERE_FALSE, merging into the destination;
// OUTPUT emits a COPY from its producer into its own pinned register),
// packing each operand's element stride relative to the enclosing domain,
// then grouping consecutive same-domain instructions into Tasks.
func codegen(g *ir.Graph, order []int) ([]program.Instruction, []program.Task) {
	var instrs []program.Instruction
	var taskStart int
	var tasks []program.Task
	curDomain := ir.DomainUnset
	var last *ir.Node // most recent node that emitted an instruction
	domainShape := func(n *ir.Node) ([tensor.MaxDims]int32, uint8) {
		return n.InferredType.Shape, n.InferredType.NDim
	}

	flushTask := func(endIdx int, n *ir.Node) {
		if endIdx <= taskStart {
			return
		}
		shape, ndim := domainShape(n)
		tasks = append(tasks, program.Task{
			FirstInstr: taskStart, Count: endIdx - taskStart,
			DomainShape: shape, DomainNDim: ndim,
		})
		taskStart = endIdx
	}

	for _, idx := range order {
		n := &g.Nodes[idx]
		if n.Dead {
			continue
		}
		switch n.Op {
		case ops.OpInput, ops.OpConst, ops.OpMemory:
			// MEMORY emits no instruction at its topological position: it is
			// read like an INPUT (its pinned register already holds last
			// frame's value). The feedback write happens below, after every
			// other instruction, as an explicit end-of-frame COPY.
			continue
		}

		if n.DomainOwner != curDomain {
			flushTask(len(instrs), last)
			curDomain = n.DomainOwner
		}
		last = n

		domainCount := n.InferredType.Size()
		operands := operandRegisters(g, idx)
		// Strides[0] is Dest's stride; Strides[1..3] follow Src1..Src3.
		strides := [4]int32{1, 0, 0, 0}
		for i, reg := range operands[:3] {
			if reg == nil {
				continue
			}
			strides[i+1] = tensor.ElementStride(reg.count, domainCount)
		}

		if n.Op == ops.OpOutput {
			// OUTPUT is pinned to its own register, distinct from whatever
			// feeds its "in" port (liveness never aliases the two), so the
			// producer's value has to be copied across explicitly.
			instrs = append(instrs, program.Instruction{
				Opcode: uint16(ops.OpCopy), Dest: uint16(n.RegisterIndex),
				Src1: regOf(operands, 0), Strides: strides,
			})
			continue
		}

		if n.Op == ops.OpSelect {
			// WHERE_TRUE writes the true branch where cond is true, then
			// WHERE_FALSE (a distinct opcode/kernel) fills the remaining
			// positions from the false branch; sharing one opcode for both
			// would give the false-branch write no way to skip cond==true
			// positions and it would clobber them.
			instrs = append(instrs,
				program.Instruction{Opcode: uint16(ops.OpSelect), Dest: uint16(n.RegisterIndex),
					Src1: regOf(operands, 0), Src2: regOf(operands, 1), Strides: strides},
				program.Instruction{Opcode: uint16(ops.OpSelectWhereFalse), Dest: uint16(n.RegisterIndex),
					Src1: regOf(operands, 0), Src2: regOf(operands, 2), Strides: [4]int32{strides[0], strides[1], strides[3], 0}},
			)
			continue
		}

		instrs = append(instrs, program.Instruction{
			Opcode: uint16(n.Op),
			Dest:   uint16(n.RegisterIndex),
			Src1:   regOf(operands, 0),
			Src2:   regOf(operands, 1),
			Src3:   regOf(operands, 2),
			Strides: strides,
		})
	}
	flushTask(len(instrs), last)

	instrs, tasks = appendMemoryWriteback(g, instrs, tasks)
	return instrs, tasks
}

// appendMemoryWriteback emits Pass 9's frame-end COPY for every live MEMORY
// node: its pinned register is overwritten from whatever feeds its "in"
// port, so the next Exec call (without an intervening Reset) observes this
// frame's value. Each MEMORY node gets its own trailing one-instruction
// task, since two feedback registers rarely share a domain shape.
func appendMemoryWriteback(g *ir.Graph, instrs []program.Instruction, tasks []program.Task) ([]program.Instruction, []program.Task) {
	for i, n := range g.Nodes {
		if n.Dead || n.Op != ops.OpMemory {
			continue
		}
		var producer *ir.Node
		for _, l := range g.InLinks(i) {
			if l.DstPortName == "in" || l.DstPortName == "" {
				producer = &g.Nodes[l.SrcNode]
				break
			}
		}
		if producer == nil {
			continue
		}
		count := producer.InferredType.Size()
		domainCount := n.InferredType.Size()
		start := len(instrs)
		instrs = append(instrs, program.Instruction{
			Opcode: uint16(ops.OpCopy),
			Dest:   uint16(n.RegisterIndex),
			Src1:   uint16(producer.RegisterIndex),
			Strides: [4]int32{1, tensor.ElementStride(count, domainCount), 0, 0},
		})
		tasks = append(tasks, program.Task{FirstInstr: start, Count: 1, DomainShape: n.InferredType.Shape, DomainNDim: n.InferredType.NDim})
	}
	return instrs, tasks
}

type operandReg struct {
	reg   uint16
	count int
}

func operandRegisters(g *ir.Graph, idx int) [4]*operandReg {
	var out [4]*operandReg
	for _, l := range g.InLinks(idx) {
		if l.DstPort < 0 || l.DstPort > 3 {
			continue
		}
		src := &g.Nodes[l.SrcNode]
		out[l.DstPort] = &operandReg{reg: uint16(src.RegisterIndex), count: src.InferredType.Size()}
	}
	return out
}

func regOf(ops [4]*operandReg, i int) uint16 {
	if ops[i] == nil {
		return 0
	}
	return ops[i].reg
}
