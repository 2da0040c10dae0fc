package compiler

import (
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/tensor"
)

// liveRange is a node's live window in the execution order: from its own
// position (definition) to the position of its last consumer (last use).
type liveRange struct {
	node          int
	start, end    int
	pinned        bool
}

// assignRegisters is Pass 8: scan the execution order once, reusing a
// register slot whose live range has already ended provided the dtype and
// maximum shape byte-capacity are compatible. Nodes named in symbols
// (INPUT/OUTPUT) and MEMORY's prev/next pair are pinned to stable registers
// and never reused.
func assignRegisters(g *ir.Graph, order []int) []program.TensorPrototype {
	pos := make(map[int]int, len(order))
	for i, idx := range order {
		pos[idx] = i
	}

	ranges := make([]liveRange, 0, len(order))
	lastUse := make(map[int]int)
	for _, l := range g.Links {
		if consumerPos, ok := pos[l.DstNode]; ok {
			if cur, ok := lastUse[l.SrcNode]; !ok || consumerPos > cur {
				lastUse[l.SrcNode] = consumerPos
			}
		}
	}

	// feedsMemory marks the producer of each MEMORY node's "in" port: its
	// register is read by the end-of-frame writeback COPY, so it is pinned
	// alongside the MEMORY register itself.
	feedsMemory := make(map[int]bool)
	for _, l := range g.Links {
		if g.Nodes[l.DstNode].Op == ops.OpMemory && (l.DstPortName == "in" || l.DstPortName == "") {
			feedsMemory[l.SrcNode] = true
		}
	}

	for _, idx := range order {
		n := &g.Nodes[idx]
		end := pos[idx]
		if lu, ok := lastUse[idx]; ok {
			end = lu
		}
		pinned := n.Op == ops.OpOutput || n.Op == ops.OpInput || n.Op == ops.OpMemory || feedsMemory[idx]
		ranges = append(ranges, liveRange{node: idx, start: pos[idx], end: end, pinned: pinned})
	}

	type slot struct {
		reg      int
		dtype    tensor.Dtype
		capacity int
		freeFrom int // position after which this slot is reusable, -1 if busy
	}
	var slots []slot
	var protos []program.TensorPrototype

	allocFor := func(idx int, pos int, pinned bool) int {
		n := &g.Nodes[idx]
		dt := n.InferredType.Dtype
		cap := n.InferredType.Size() * dt.Size()

		if !pinned {
			for i := range slots {
				if slots[i].freeFrom != -1 && slots[i].freeFrom <= pos && slots[i].dtype == dt && slots[i].capacity >= cap {
					slots[i].freeFrom = -1
					return slots[i].reg
				}
			}
		}
		reg := len(protos)
		protos = append(protos, program.TensorPrototype{Info: n.InferredType})
		slots = append(slots, slot{reg: reg, dtype: dt, capacity: cap, freeFrom: -1})
		return reg
	}

	for i, idx := range order {
		n := &g.Nodes[idx]
		if n.Dead {
			continue
		}
		reg := allocFor(idx, i, ranges[i].pinned)
		n.RegisterIndex = reg
		if (n.Op == ops.OpConst || n.Op == ops.OpMemory) && n.Const != nil {
			protos[reg] = program.TensorPrototype{Info: n.InferredType, IsConstant: true, Constant: constBytes(n.Const)}
		}
		if !ranges[i].pinned {
			// free the slot once we pass its last-use position
			for si := range slots {
				if slots[si].reg == reg {
					slots[si].freeFrom = ranges[i].end + 1
				}
			}
		}
	}

	return protos
}

func constBytes(c *ir.ConstValue) []byte {
	switch c.Dtype {
	case tensor.F32:
		out := make([]byte, len(c.F32)*4)
		for i, v := range c.F32 {
			putF32(out[i*4:], v)
		}
		return out
	case tensor.I32:
		out := make([]byte, len(c.I32)*4)
		for i, v := range c.I32 {
			putI32(out[i*4:], v)
		}
		return out
	case tensor.U8:
		return append([]byte{}, c.U8...)
	default:
		return nil
	}
}
