package scheduler

import "github.com/BinaryCat17/mathflow/vm"

// Tile is one horizontal strip of a 2-D screen-space dispatch.
type Tile struct {
	YStart, Height int
	Width          int
}

// TileCount picks a tile count >= max(workerCount, 4), per spec.md §4.8's
// "host chooses a tile count >= max(thread count, 4)".
func TileCount(workerCount int) int {
	if workerCount < 4 {
		return 4
	}
	return workerCount
}

// buildTiles divides [0,height) by row into tiles of height
// ceil(height/tileCount); the last tile is shorter when height is not a
// multiple of that, and fewer than tileCount tiles may result.
func buildTiles(width, height, tileCount int) []Tile {
	if tileCount <= 0 {
		tileCount = 1
	}
	rowsPerTile := (height + tileCount - 1) / tileCount
	var tiles []Tile
	for y := 0; y < height; y += rowsPerTile {
		h := rowsPerTile
		if y+h > height {
			h = height - y
		}
		tiles = append(tiles, Tile{YStart: y, Height: h, Width: width})
	}
	return tiles
}

// SetupFn writes a tile's per-invocation builtins (u_Time, u_Resolution,
// u_Mouse, u_FragX/u_FragY, ...) into the worker's resident VM registers
// before Exec.
type SetupFn func(tile Tile, local *WorkerState)

// FinishFn reads the kernel's out_Color register after Exec and writes it
// into the caller's framebuffer slice for the tile.
type FinishFn func(tile Tile, local *WorkerState)

// Dispatch2D runs one full-frame tiled dispatch: width x height divided
// into TileCount(workers) horizontal strips, each run as one pool job.
// Jobs within the batch have no ordering guarantee and must write disjoint
// regions — true here because tiles partition the row range. Between
// batches the pool's done-cond establishes the happens-before barrier.
func Dispatch2D(pool *Pool, width, height int, setup SetupFn, finish FinishFn) {
	tiles := buildTiles(width, height, TileCount(len(pool.workers)))
	pool.Run(len(tiles), func(jobID int, local *WorkerState, _ any) {
		tile := tiles[jobID]
		setup(tile, local)
		_ = local.VM.Exec(vm.ExecParams{
			GlobalOffset: [3]uint32{0, uint32(tile.YStart), 0},
			LocalSize:    [3]uint32{uint32(tile.Width), uint32(tile.Height), 1},
			GlobalSize:   [3]uint32{uint32(width), uint32(height), 1},
		})
		finish(tile, local)
	}, nil)
}
