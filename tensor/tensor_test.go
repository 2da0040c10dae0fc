package tensor

import (
	"testing"

	"github.com/BinaryCat17/mathflow/memory"
	"github.com/stretchr/testify/require"
)

func TestTensorFloat32RoundTrip(t *testing.T) {
	t.Parallel()
	arena := memory.NewArena(1024)

	ten, err := New(arena, Vector(F32, 4))
	require.NoError(t, err)

	view := ten.Float32()
	require.Len(t, view, 4)
	copy(view, []float32{1, 2, 3, 4})
	require.Equal(t, []float32{1, 2, 3, 4}, ten.Float32())
}

func TestBroadcastScalarAndVector(t *testing.T) {
	t.Parallel()
	scalar := Scalar(F32)
	vec := Vector(F32, 4)

	out, err := Broadcast(scalar, vec)
	require.NoError(t, err)
	require.True(t, out.SameShape(vec))

	out2, err := Broadcast(vec, scalar)
	require.NoError(t, err)
	require.True(t, out2.SameShape(vec))
}

func TestBroadcastMismatchIsShapeMismatch(t *testing.T) {
	t.Parallel()
	a := Vector(F32, 3)
	b := Vector(F32, 4)

	_, err := Broadcast(a, b)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestElementStrideClassification(t *testing.T) {
	t.Parallel()
	require.EqualValues(t, 1, ElementStride(100, 100))
	require.EqualValues(t, 0, ElementStride(1, 100))
	require.EqualValues(t, 4, ElementStride(400, 100))
	require.EqualValues(t, 0, ElementStride(17, 100))
}

func TestIteratorContiguousAdvance(t *testing.T) {
	t.Parallel()
	arena := memory.NewArena(1024)
	ten, err := New(arena, Vector(F32, 4))
	require.NoError(t, err)
	copy(ten.Float32(), []float32{10, 20, 30, 40})

	it := Begin(ten)
	acc := Float32Accessor{it: it}
	require.Equal(t, float32(10), acc.Get())
	acc.Advance(2)
	require.Equal(t, float32(30), acc.Get())
}
