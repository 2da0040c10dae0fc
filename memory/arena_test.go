package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArenaAllocAndReset(t *testing.T) {
	t.Parallel()
	a := NewArena(256)

	b1, err := a.Alloc(32)
	require.NoError(t, err)
	require.Len(t, b1, 32)

	used := a.Used()
	require.GreaterOrEqual(t, used, 32)

	a.Reset()
	require.Equal(t, 0, a.Used())
}

func TestArenaOutOfMemory(t *testing.T) {
	t.Parallel()
	a := NewArena(16)

	_, err := a.Alloc(64)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestArenaReallocPreservesContent(t *testing.T) {
	t.Parallel()
	a := NewArena(256)

	b, err := a.Alloc(4)
	require.NoError(t, err)
	copy(b, []byte{1, 2, 3, 4})

	grown, err := a.Realloc(b, 8)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, grown[:4])
}

func TestArenaNamedRegion(t *testing.T) {
	t.Parallel()
	a := NewArena(256)

	_, err := a.AllocRegion("symbols", 64)
	require.NoError(t, err)

	r, ok := a.NamedRegion("symbols")
	require.True(t, ok)
	require.Equal(t, 64, r.Size)
}
