package compiler

import (
	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
)

type color int

const (
	white color = iota
	grey
	black
)

// topoSort is Pass 4: three-colour DFS. MEMORY nodes do not traverse their
// data input edge (it is a next-frame feedback edge, not a same-frame
// dependency), which is what breaks the only legitimate cycle. Any other
// back edge is a fatal GraphCycle.
//
// Returns the execution order as a permutation of live node indices.
func topoSort(g *ir.Graph) []int {
	n := len(g.Nodes)
	colors := make([]color, n)
	var order []int

	// Build adjacency: for MEMORY nodes, skip edges into their "in" port
	// (the feedback edge); everything else participates normally.
	preds := make([][]int, n)
	for _, l := range g.Links {
		if g.Nodes[l.DstNode].Op == ops.OpMemory && l.DstPortName == "in" {
			continue
		}
		preds[l.DstNode] = append(preds[l.DstNode], l.SrcNode)
	}

	var visit func(idx int)
	visit = func(idx int) {
		if g.Nodes[idx].Dead || colors[idx] == black {
			return
		}
		if colors[idx] == grey {
			g.Diags.Errorf(diag.GraphCycle, g.Nodes[idx].Loc, "cycle detected through node %q", g.Nodes[idx].ID)
			return
		}
		colors[idx] = grey
		for _, p := range preds[idx] {
			visit(p)
		}
		colors[idx] = black
		order = append(order, idx)
	}

	for i := 0; i < n; i++ {
		if !g.Nodes[i].Dead {
			visit(i)
		}
	}
	return order
}
