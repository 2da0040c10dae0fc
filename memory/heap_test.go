package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocFree(t *testing.T) {
	t.Parallel()
	h := NewHeap(4096)

	a, err := h.Alloc(64)
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.Equal(t, 1, h.Stats().AllocCount)

	h.Free(a)
	require.Equal(t, 0, h.Stats().Used)
}

func TestHeapDoubleFreeIsIdempotent(t *testing.T) {
	t.Parallel()
	h := NewHeap(4096)

	a, err := h.Alloc(32)
	require.NoError(t, err)

	h.Free(a)
	require.NotPanics(t, func() { h.Free(a) })
}

func TestHeapCoalescesAdjacentFreeBlocks(t *testing.T) {
	t.Parallel()
	// Room for exactly three 64-byte blocks plus a 64-byte tail block, so no
	// single block left after the three allocations can hold 192 bytes.
	h := NewHeap(4*headerSize + 256)

	a, err := h.Alloc(64)
	require.NoError(t, err)
	b, err := h.Alloc(64)
	require.NoError(t, err)
	c, err := h.Alloc(64)
	require.NoError(t, err)

	h.Free(b)
	h.Free(a)
	h.Free(c)

	// A 192-byte allocation fits only once the freed blocks have merged
	// forward and backward into one block.
	big, err := h.Alloc(64 * 3)
	require.NoError(t, err)
	require.NotNil(t, big)
}

func TestHeapOutOfMemory(t *testing.T) {
	t.Parallel()
	h := NewHeap(64)

	_, err := h.Alloc(4096)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrOutOfMemory)
}
