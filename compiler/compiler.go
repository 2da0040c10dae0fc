// Package compiler lowers a MathFlow graph JSON document into a bytecode
// Program through nine ordered passes (parse, lower, inline, topological
// sort, type/shape inference, domain split, fusion, liveness register
// allocation, codegen). Each pass reports into a shared diag.Sink and the
// pipeline stops at the first pass that leaves hard errors.
package compiler

import (
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/internal/mflog"
	"github.com/BinaryCat17/mathflow/ir"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/program"
)

// Compile runs the full nine-pass pipeline over src (graph JSON text) and
// returns the resulting Program along with every diagnostic recorded.
// Callers must check diags.HasErrors() before trusting the Program.
func Compile(src string, opts Options) (*program.Program, *diag.Sink) {
	log := mflog.Named("compiler")
	sink := &diag.Sink{}

	load := opts.Load
	if load == nil {
		dir := filepath.Dir(opts.SourceFile)
		load = func(path string) (string, error) {
			b, err := os.ReadFile(filepath.Join(dir, path))
			return string(b), err
		}
	}

	root := parseJSON(src, opts.SourceFile, sink)
	if sink.HasErrors() {
		return nil, sink
	}

	g := lower(root, opts.SourceFile, sink)
	if sink.HasErrors() {
		return nil, sink
	}

	inline(g, load)
	if sink.HasErrors() {
		return nil, sink
	}

	order := topoSort(g)
	if sink.HasErrors() {
		return nil, sink
	}

	infer(g, order)
	if sink.HasErrors() {
		return nil, sink
	}

	domainSplit(g)

	if opts.OptimizeLayout {
		fuse(g)
		order = topoSort(g)
	}

	if opts.ValidateGraph {
		validateGraph(g, order)
		if sink.HasErrors() {
			return nil, sink
		}
	}

	protos := assignRegisters(g, order)
	instrs, tasks := codegen(g, order)
	symbols := buildSymbols(g)

	if opts.DebugOutput {
		log.Sugar().Infof("compiled: %d nodes, %d instructions, %d tasks, %d registers",
			len(g.Nodes), len(instrs), len(tasks), len(protos))
	}

	prog := &program.Program{
		Header:       program.Header{Version: program.CurrentVersion},
		Instructions: instrs,
		Symbols:      symbols,
		Tasks:        tasks,
		Prototypes:   protos,
	}
	return prog, sink
}

// validateGraph runs Pass 9's pre-codegen sanity checks: every non-dead
// node should feed some OUTPUT, walking links backward from each live
// OUTPUT (dangling nodes are unreachable from any OUTPUT and are warned
// about, not failed).
func validateGraph(g *ir.Graph, order []int) {
	reachable := make(map[int]bool, len(order))
	var stack []int
	for _, idx := range order {
		if !g.Nodes[idx].Dead && g.Nodes[idx].Op == ops.OpOutput {
			reachable[idx] = true
			stack = append(stack, idx)
		}
	}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, l := range g.InLinks(idx) {
			if !reachable[l.SrcNode] {
				reachable[l.SrcNode] = true
				stack = append(stack, l.SrcNode)
			}
		}
	}
	for i, n := range g.Nodes {
		if n.Dead || reachable[i] {
			continue
		}
		g.Diags.Warnf(diag.ParseError, n.Loc, "node %q is unreachable from any OUTPUT", n.ID)
	}
}

// buildSymbols emits one Symbol per live INPUT/OUTPUT node, with a
// related-name hash so the pipeline engine can auto-resize paired ports
// (u_State_in <-> u_State_out) per §4.7.
func buildSymbols(g *ir.Graph) []program.Symbol {
	var syms []program.Symbol
	for _, n := range g.Nodes {
		if n.Dead {
			continue
		}
		switch n.Op {
		case ops.OpInput:
			syms = append(syms, program.Symbol{Name: n.ID, RegisterIdx: uint16(n.RegisterIndex), Flags: program.SymInput, RelatedNameHash: relatedHash(n.ID)})
		case ops.OpOutput:
			syms = append(syms, program.Symbol{Name: n.ID, RegisterIdx: uint16(n.RegisterIndex), Flags: program.SymOutput, RelatedNameHash: relatedHash(n.ID)})
		}
	}
	return syms
}

// relatedHash hashes a symbol's name with its trailing "_in"/"_out" suffix
// stripped, so paired ports share a hash (see DESIGN.md's Open Question on
// FNV collisions — accepted, not handled, matching the original design).
func relatedHash(name string) uint32 {
	base := name
	for _, suf := range []string{"_in", "_out"} {
		if len(base) > len(suf) && base[len(base)-len(suf):] == suf {
			base = base[:len(base)-len(suf)]
			break
		}
	}
	h := fnv.New32a()
	h.Write([]byte(base))
	return h.Sum32()
}
