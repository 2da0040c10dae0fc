package ops

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByJSONNameResolvesEveryRegisteredSpelling(t *testing.T) {
	t.Parallel()
	for op := OpConst; op < opcodeCount; op++ {
		def := Lookup(op)
		if def.JSONName == "" {
			continue // FMA is compiler-internal, no JSON spelling
		}
		got, ok := ByJSONName(def.JSONName)
		require.True(t, ok, "JSON name %q did not resolve", def.JSONName)
		require.Equal(t, op, got)
	}
}

func TestByJSONNameRejectsUnknown(t *testing.T) {
	t.Parallel()
	_, ok := ByJSONName("NotAnOp")
	require.False(t, ok)
}

func TestPortIndexFindsDeclaredPorts(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0, PortIndex(OpAdd, "a"))
	require.Equal(t, 1, PortIndex(OpAdd, "b"))
	require.Equal(t, -1, PortIndex(OpAdd, "nonexistent"))
}

func TestPortIndexSelectHasThreePorts(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0, PortIndex(OpSelect, "cond"))
	require.Equal(t, 1, PortIndex(OpSelect, "t"))
	require.Equal(t, 2, PortIndex(OpSelect, "f"))
}

func TestFMAHasNoJSONSpelling(t *testing.T) {
	t.Parallel()
	require.Equal(t, "", Lookup(OpFMA).JSONName)
}
