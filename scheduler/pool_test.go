package scheduler

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BinaryCat17/mathflow/program"
)

func emptyProgram() *program.Program {
	return &program.Program{}
}

func TestPoolRunDistributesAllJobs(t *testing.T) {
	t.Parallel()
	opts := Options{Workers: 3, WorkerHeapSize: 4096, WorkerArenaSize: 256}
	pool := NewPool(opts, func() *WorkerState { return NewWorkerState(emptyProgram(), opts) })
	defer pool.Close()

	var seen int64
	pool.Run(37, func(jobID int, local *WorkerState, _ any) {
		require.NotNil(t, local)
		atomic.AddInt64(&seen, 1)
	}, nil)

	require.EqualValues(t, 37, seen)
}

func TestPoolRunIsRepeatable(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	opts.Workers = 2
	pool := NewPool(opts, func() *WorkerState { return NewWorkerState(emptyProgram(), opts) })
	defer pool.Close()

	for batch := 0; batch < 5; batch++ {
		var seen int64
		pool.Run(10, func(int, *WorkerState, any) {
			atomic.AddInt64(&seen, 1)
		}, nil)
		require.EqualValues(t, 10, seen)
	}
}

func TestTileCountFloorsAtFour(t *testing.T) {
	t.Parallel()
	require.Equal(t, 4, TileCount(1))
	require.Equal(t, 4, TileCount(4))
	require.Equal(t, 8, TileCount(8))
}

func TestBuildTilesCoversFullHeightDisjointly(t *testing.T) {
	t.Parallel()
	tiles := buildTiles(16, 10, 4)
	total := 0
	for i, tl := range tiles {
		require.Equal(t, total, tl.YStart, "tile %d starts where previous ended", i)
		total += tl.Height
	}
	require.Equal(t, 10, total)
}

func TestDispatch2DWritesDisjointFramebufferRegions(t *testing.T) {
	t.Parallel()
	opts := Options{Workers: 2, WorkerHeapSize: 4096, WorkerArenaSize: 256}
	pool := NewPool(opts, func() *WorkerState { return NewWorkerState(emptyProgram(), opts) })
	defer pool.Close()

	const width, height = 4, 8
	framebuffer := make([]float32, width*height)

	Dispatch2D(pool, width, height,
		func(tile Tile, local *WorkerState) {},
		func(tile Tile, local *WorkerState) {
			for y := tile.YStart; y < tile.YStart+tile.Height; y++ {
				for x := 0; x < tile.Width; x++ {
					framebuffer[y*width+x] = float32(y*width + x)
				}
			}
		})

	for i, v := range framebuffer {
		require.Equal(t, float32(i), v)
	}
}
