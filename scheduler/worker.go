package scheduler

import (
	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/vm"
)

// WorkerState is the thread-local state installed at worker construction
// per spec.md §4.8: a dedicated heap, a small metadata arena, and a
// resident VM initialized against the shared program. Reset is called once
// per job, winding the arena back and re-staging registers, never
// reallocating the heap or arena themselves.
type WorkerState struct {
	Heap  *memory.Heap
	Arena *memory.Arena
	VM    *vm.VM
}

// NewWorkerState builds one worker's resident state against prog, sized per
// opts (or DefaultOptions's 16 MiB heap / 1 MiB arena).
func NewWorkerState(prog *program.Program, opts Options) *WorkerState {
	heap := memory.NewHeap(opts.WorkerHeapSize)
	arena := memory.NewArena(opts.WorkerArenaSize)
	return &WorkerState{
		Heap:  heap,
		Arena: arena,
		VM:    vm.New(prog, heap),
	}
}

// Reset winds the worker's arena back to empty and re-stages the VM's
// registers (constants re-copied, intermediates zeroed) ahead of the next
// job, without touching the pool's atomic counters.
func (s *WorkerState) Reset() {
	s.Arena.Reset()
	if err := s.VM.Reset(); err != nil {
		// A worker's heap is sized generously against its program; a
		// failure here means the heap is too small for one frame's
		// working set, a configuration error rather than a data error.
		panic(err)
	}
}
