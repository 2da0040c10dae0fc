// Package ir is the compiler's intermediate representation: a
// struct-of-arrays graph of nodes and links that each pass rewrites in
// place, carrying source locations from parse through codegen.
package ir

import (
	"github.com/BinaryCat17/mathflow/diag"
	"github.com/BinaryCat17/mathflow/ops"
	"github.com/BinaryCat17/mathflow/tensor"
)

// ConstValue holds a parsed CONST/INPUT-default literal before it is
// lowered to a TensorPrototype.
type ConstValue struct {
	Dtype tensor.Dtype
	Shape []int32
	F32   []float32
	I32   []int32
	U8    []uint8
}

// Node is one IR node: an operation with resolved inputs, a source
// location, and the fields later passes attach (inferred type, domain
// owner, assigned register).
type Node struct {
	ID       string
	Op       ops.Opcode
	Loc      diag.Location

	// SPECIAL-node payload.
	Const        *ConstValue
	SubgraphPath string // CALL only
	IndexAxis    int    // INDEX only

	InferredType  tensor.TypeInfo
	DomainOwner   int // index of the owning OUTPUT node, or domainShared
	RegisterIndex int // assigned by Pass 8, -1 until then

	// dead is set by Pass 7 when fusion retypes a node to UNKNOWN.
	Dead bool
}

// DomainShared marks a node reachable from more than one OUTPUT's domain.
const DomainShared = -2

// DomainUnset marks a node Pass 6 has not yet visited.
const DomainUnset = -1

// Link is a typed edge between two nodes' ports.
type Link struct {
	SrcNode, DstNode         int
	SrcPort, DstPort         int
	SrcPortName, DstPortName string
}

// Graph is the IR under construction: nodes and links addressed by index,
// plus the diagnostics sink every pass reports into.
type Graph struct {
	Nodes []Node
	Links []Link
	Diags *diag.Sink
}

// New returns an empty Graph wired to a fresh diagnostics sink.
func New() *Graph {
	return &Graph{Diags: &diag.Sink{}}
}

// AddNode appends a node and returns its index.
func (g *Graph) AddNode(n Node) int {
	n.DomainOwner = DomainUnset
	n.RegisterIndex = -1
	g.Nodes = append(g.Nodes, n)
	return len(g.Nodes) - 1
}

// AddLink appends a link.
func (g *Graph) AddLink(l Link) {
	g.Links = append(g.Links, l)
}

// OutLinks returns every link whose source is node idx.
func (g *Graph) OutLinks(idx int) []Link {
	var out []Link
	for _, l := range g.Links {
		if l.SrcNode == idx {
			out = append(out, l)
		}
	}
	return out
}

// InLinks returns every link whose destination is node idx.
func (g *Graph) InLinks(idx int) []Link {
	var out []Link
	for _, l := range g.Links {
		if l.DstNode == idx {
			out = append(out, l)
		}
	}
	return out
}

// NodeByID finds a node index by its string ID.
func (g *Graph) NodeByID(id string) (int, bool) {
	for i, n := range g.Nodes {
		if n.ID == id {
			return i, true
		}
	}
	return 0, false
}
