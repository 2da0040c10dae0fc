package compiler

import (
	"fmt"

	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
)

// FileLoader reads a subgraph file named by a CALL node's path, per the
// §6 file interface external collaborators satisfy.
type FileLoader func(path string) (string, error)

const maxInlineDepth = 10

// inline is Pass 3: repeatedly expand CALL nodes into their child graphs,
// up to maxInlineDepth rounds or until none remain.
func inline(g *ir.Graph, load FileLoader) {
	for round := 0; round < maxInlineDepth; round++ {
		calls := pendingCalls(g)
		if len(calls) == 0 {
			return
		}
		for _, callIdx := range calls {
			inlineOne(g, callIdx, load)
		}
	}
	if len(pendingCalls(g)) > 0 {
		g.Diags.Errorf(diag.MaxInlineDepth, diag.Location{}, "subgraph inlining exceeded %d rounds", maxInlineDepth)
	}
}

func pendingCalls(g *ir.Graph) []int {
	var out []int
	for i, n := range g.Nodes {
		if n.Op == ops.OpCall && !n.Dead {
			out = append(out, i)
		}
	}
	return out
}

func inlineOne(g *ir.Graph, callIdx int, load FileLoader) {
	call := g.Nodes[callIdx]
	src, err := load(call.SubgraphPath)
	if err != nil {
		g.Diags.Errorf(diag.IOError, call.Loc, "cannot load subgraph %q: %v", call.SubgraphPath, err)
		g.Nodes[callIdx].Dead = true
		return
	}

	childSink := &diag.Sink{}
	childVal := parseJSON(src, call.SubgraphPath, childSink)
	child := lower(childVal, call.SubgraphPath, childSink)
	for _, d := range childSink.All() {
		g.Diags.Errorf(d.Kind, d.Loc, "%s", d.Message)
	}

	base := len(g.Nodes)
	exports := map[string]string{} // "<call_id>:i:<name>" / ":o:" -> node id in remapped graph
	var firstInput, firstOutput string

	remap := make([]int, len(child.Nodes))
	for ci, cn := range child.Nodes {
		cn.ID = fmt.Sprintf("%s::%s", call.ID, cn.ID)
		if cn.DomainOwner == ir.DomainUnset {
			cn.DomainOwner = call.DomainOwner
		}
		newIdx := g.AddNode(cn)
		remap[ci] = newIdx

		switch cn.Op {
		case ops.OpInput:
			key := fmt.Sprintf("%s:i:%s", call.ID, trimCallPrefix(cn.ID, call.ID))
			exports[key] = cn.ID
			if firstInput == "" {
				firstInput = cn.ID
			} else {
				firstInput = "\x00multiple"
			}
		case ops.OpOutput:
			key := fmt.Sprintf("%s:o:%s", call.ID, trimCallPrefix(cn.ID, call.ID))
			exports[key] = cn.ID
			if firstOutput == "" {
				firstOutput = cn.ID
			} else {
				firstOutput = "\x00multiple"
			}
		}
	}
	if firstInput != "" && firstInput != "\x00multiple" {
		exports[fmt.Sprintf("%s:i:default", call.ID)] = firstInput
	}
	if firstOutput != "" && firstOutput != "\x00multiple" {
		exports[fmt.Sprintf("%s:o:default", call.ID)] = firstOutput
	}

	for _, cl := range child.Links {
		g.AddLink(ir.Link{
			SrcNode: remap[cl.SrcNode], DstNode: remap[cl.DstNode],
			SrcPort: cl.SrcPort, DstPort: cl.DstPort,
			SrcPortName: cl.SrcPortName, DstPortName: cl.DstPortName,
		})
	}
	_ = base

	// Rewrite parent edges touching the CALL node itself.
	rewritten := g.Links[:0]
	for _, l := range g.Links {
		if l.SrcNode == callIdx {
			key := fmt.Sprintf("%s:o:%s", call.ID, nameOr(l.SrcPortName, "default"))
			if exportID, ok := exports[key]; ok {
				srcIdx, _ := g.NodeByID(exportID)
				l.SrcNode = srcIdx
				rewritten = append(rewritten, l)
			} else {
				g.Diags.Warnf(diag.UnresolvedReference, call.Loc, "dropping unresolved CALL output edge %q", key)
			}
			continue
		}
		if l.DstNode == callIdx {
			key := fmt.Sprintf("%s:i:%s", call.ID, nameOr(l.DstPortName, "default"))
			if exportID, ok := exports[key]; ok {
				dstIdx, _ := g.NodeByID(exportID)
				l.DstNode = dstIdx
				rewritten = append(rewritten, l)
			} else {
				g.Diags.Warnf(diag.UnresolvedReference, call.Loc, "dropping unresolved CALL input edge %q", key)
			}
			continue
		}
		rewritten = append(rewritten, l)
	}
	g.Links = rewritten
	g.Nodes[callIdx].Dead = true
}

func nameOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func trimCallPrefix(id, callID string) string {
	prefix := callID + "::"
	if len(id) > len(prefix) && id[:len(prefix)] == prefix {
		return id[len(prefix):]
	}
	return id
}
