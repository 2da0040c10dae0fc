package compiler

import (
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
)

// fuse is Pass 7: the single supported pattern, MUL(a,b) feeding the only
// consumer ADD(_,c), rewrites to FMA(a,b,c). Use counts come from link
// multiplicity; only a MUL with exactly one use is fused. The ADD's incoming
// links are replaced by the FMA's three; the dead MUL is retyped to Unknown
// and its own input links are left in place.
func fuse(g *ir.Graph) {
	useCount := make([]int, len(g.Nodes))
	for _, l := range g.Links {
		useCount[l.SrcNode]++
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Dead || n.Op != ops.OpMul || useCount[i] != 1 {
			continue
		}
		outs := g.OutLinks(i)
		if len(outs) != 1 {
			continue
		}
		addIdx := outs[0].DstNode
		add := &g.Nodes[addIdx]
		if add.Op != ops.OpAdd {
			continue
		}

		mulIns := g.InLinks(i)
		if len(mulIns) != 2 {
			continue
		}
		var mulA, mulB int = -1, -1
		for _, l := range mulIns {
			if l.DstPort == 0 {
				mulA = l.SrcNode
			} else {
				mulB = l.SrcNode
			}
		}
		if mulA < 0 || mulB < 0 {
			continue
		}

		addIns := g.InLinks(addIdx)
		var addOther int = -1
		mulPort := outs[0].DstPort
		for _, l := range addIns {
			if l.DstPort != mulPort {
				addOther = l.SrcNode
			}
		}
		if addOther < 0 {
			continue
		}

		add.Op = ops.OpFMA
		newLinks := g.Links[:0]
		for _, l := range g.Links {
			if l.DstNode == addIdx {
				continue
			}
			newLinks = append(newLinks, l)
		}
		g.Links = newLinks
		g.AddLink(ir.Link{SrcNode: mulA, DstNode: addIdx, SrcPort: 0, DstPort: 0, SrcPortName: "a", DstPortName: "a"})
		g.AddLink(ir.Link{SrcNode: mulB, DstNode: addIdx, SrcPort: 0, DstPort: 1, SrcPortName: "b", DstPortName: "b"})
		g.AddLink(ir.Link{SrcNode: addOther, DstNode: addIdx, SrcPort: 0, DstPort: 2, SrcPortName: "c", DstPortName: "c"})

		n.Op = ops.OpUnknown
		n.Dead = true
	}
}
