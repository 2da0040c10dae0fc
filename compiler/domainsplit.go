package compiler

import (
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
)

// domainSplit is Pass 6: every OUTPUT node seeds a domain id equal to its
// own index; the mark propagates backward along dependencies. A node
// reached from two different domains with a non-scalar shape is marked
// DomainShared. Scalars float freely (never claimed by any domain).
func domainSplit(g *ir.Graph) {
	var outputs []int
	for i, n := range g.Nodes {
		if n.Op == ops.OpOutput && !n.Dead {
			outputs = append(outputs, i)
		}
	}

	for _, out := range outputs {
		markDomain(g, out, out, map[int]bool{})
	}
}

func markDomain(g *ir.Graph, idx, domain int, visiting map[int]bool) {
	if visiting[idx] {
		return
	}
	visiting[idx] = true
	defer delete(visiting, idx)

	n := &g.Nodes[idx]
	if n.InferredType.IsScalar() {
		// Scalars float freely; still propagate to producers so constants
		// shared by multiple domains are not mis-tagged, but never claim
		// the scalar node itself.
		for _, l := range g.InLinks(idx) {
			markDomain(g, l.SrcNode, domain, visiting)
		}
		return
	}

	switch n.DomainOwner {
	case ir.DomainUnset:
		n.DomainOwner = domain
	case domain:
		// already owned by this domain
	default:
		n.DomainOwner = ir.DomainShared
	}

	for _, l := range g.InLinks(idx) {
		markDomain(g, l.SrcNode, domain, visiting)
	}
}
