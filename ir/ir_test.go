package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BinaryCat17/mathflow/ops"
)

func TestAddNodeResetsDomainAndRegisterFields(t *testing.T) {
	t.Parallel()
	g := New()
	idx := g.AddNode(Node{ID: "a", Op: ops.OpConst, DomainOwner: 7, RegisterIndex: 3})
	require.Equal(t, 0, idx)
	require.Equal(t, DomainUnset, g.Nodes[idx].DomainOwner)
	require.Equal(t, -1, g.Nodes[idx].RegisterIndex)
}

func TestInOutLinks(t *testing.T) {
	t.Parallel()
	g := New()
	a := g.AddNode(Node{ID: "a", Op: ops.OpConst})
	b := g.AddNode(Node{ID: "b", Op: ops.OpConst})
	c := g.AddNode(Node{ID: "c", Op: ops.OpAdd})
	g.AddLink(Link{SrcNode: a, DstNode: c, SrcPort: 0, DstPort: 0})
	g.AddLink(Link{SrcNode: b, DstNode: c, SrcPort: 0, DstPort: 1})

	require.Len(t, g.OutLinks(a), 1)
	require.Len(t, g.OutLinks(b), 1)
	require.Len(t, g.InLinks(c), 2)
	require.Empty(t, g.InLinks(a))
}

func TestNodeByID(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddNode(Node{ID: "first", Op: ops.OpConst})
	idx := g.AddNode(Node{ID: "second", Op: ops.OpConst})

	found, ok := g.NodeByID("second")
	require.True(t, ok)
	require.Equal(t, idx, found)

	_, ok = g.NodeByID("missing")
	require.False(t, ok)
}
