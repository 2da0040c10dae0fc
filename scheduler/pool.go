// Package scheduler implements the persistent worker pool spec.md §4.8/§5
// describes: N OS-thread-backed goroutines parked on a condition variable,
// woken in a batch by an atomic job counter, with a second condition
// variable signaling batch completion back to the dispatching caller.
// Grounded on the teacher's channel-driven StreamScheduler/Engine.worker
// pair (runtime/runtime.go), reshaped from unbounded per-task-group
// goroutine fan-out into the fixed-size atomic-counter/condvar design the
// spec's ordering and teardown guarantees require.
package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// JobFn is one unit of work: a job id, the worker's thread-local state, and
// an opaque user payload shared read-only across the batch.
type JobFn func(jobID int, local *WorkerState, userData any)

// Pool is a persistent pool of N workers, created once and reused across
// many batches (frames). Workers block on workCond when idle.
type Pool struct {
	workers []*worker

	mu        sync.Mutex
	workCond  *sync.Cond
	doneCond  *sync.Cond
	running   bool
	nextJob   atomic.Int64
	completed atomic.Int64
	totalJobs int64
	jobFn     JobFn
	userData  any
	batchGen  int64 // bumped each run() so a stale worker iteration doesn't re-enter
}

// Options configures a Pool's worker count and per-worker resource sizes.
type Options struct {
	Workers       int // 0 = runtime.NumCPU()
	WorkerHeapSize int // default 16 MiB, per spec.md §4.8
	WorkerArenaSize int
}

// DefaultOptions mirrors spec.md §4.8's stated defaults.
func DefaultOptions() Options {
	return Options{
		Workers:         0,
		WorkerHeapSize:  16 << 20,
		WorkerArenaSize: 1 << 20,
	}
}

// NewPool starts n workers (n<=0 uses NumCPU), each with its own heap,
// small metadata arena, and a VM built against newVM. newVM is called once
// per worker at construction, not per job.
func NewPool(opts Options, newVM func() *WorkerState) *Pool {
	n := opts.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p := &Pool{running: true}
	p.workCond = sync.NewCond(&p.mu)
	p.doneCond = sync.NewCond(&p.mu)

	p.workers = make([]*worker, n)
	for i := 0; i < n; i++ {
		w := &worker{id: i, pool: p, state: newVM()}
		p.workers[i] = w
		go w.loop()
	}
	return p
}

// Run dispatches jobCount jobs across the pool and blocks until every job
// has completed, per spec.md §4.8's run()/done-cond barrier.
func (p *Pool) Run(jobCount int, fn JobFn, userData any) {
	if jobCount <= 0 {
		return
	}
	p.mu.Lock()
	p.jobFn = fn
	p.userData = userData
	p.totalJobs = int64(jobCount)
	p.nextJob.Store(0)
	p.completed.Store(0)
	p.batchGen++
	p.workCond.Broadcast()
	for p.completed.Load() < p.totalJobs {
		p.doneCond.Wait()
	}
	p.mu.Unlock()
}

// Close tears down the pool: sets running=false and broadcasts so every
// worker observes it and exits its outer wait loop. Close returns without
// waiting for the worker goroutines to exit. There is no per-job cancel,
// matching spec.md §4.8's cancellation policy.
func (p *Pool) Close() {
	p.mu.Lock()
	p.running = false
	p.workCond.Broadcast()
	p.mu.Unlock()
}

type worker struct {
	id    int
	pool  *Pool
	state *WorkerState
}

// loop is the worker's outer wait loop: park on workCond until a batch is
// posted or the pool is torn down, then atomically claim job ids until the
// batch is exhausted.
func (w *worker) loop() {
	p := w.pool
	lastGen := int64(0)
	for {
		p.mu.Lock()
		for p.running && p.batchGen == lastGen {
			p.workCond.Wait()
		}
		if !p.running {
			p.mu.Unlock()
			return
		}
		gen := p.batchGen
		total := p.totalJobs
		fn := p.jobFn
		data := p.userData
		p.mu.Unlock()
		lastGen = gen

		for {
			id := p.nextJob.Add(1) - 1
			if id >= total {
				break
			}
			w.state.Reset()
			fn(int(id), w.state, data)
			if p.completed.Add(1) == total {
				p.mu.Lock()
				p.doneCond.Broadcast()
				p.mu.Unlock()
			}
		}
	}
}
