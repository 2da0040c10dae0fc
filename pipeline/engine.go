package pipeline

import (
	"github.com/pkg/errors"

	"go.uber.org/zap"

	"github.com/BinaryCat17/mathflow/internal/mflog"
	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/tensor"
	"github.com/BinaryCat17/mathflow/vm"
)

// ResourceSpec describes one named pipeline resource before allocation.
type ResourceSpec struct {
	Name string
	Info tensor.TypeInfo
}

// Description is the parsed form of a manifest's "pipeline" section:
// resources and kernels with their binding maps, spec.md §4.7/§6.
type Description struct {
	Resources []ResourceSpec
	Kernels   []KernelSpec
}

// Engine owns a built pipeline's resources and kernel instances, and runs
// one frame's dispatch in declared kernel order. Grounded on the teacher's
// Engine{graph, arena, sublates, scheduler} shape, generalized from one
// fixed model graph to the spec's named-resource pipeline.
type Engine struct {
	Alloc     memory.Allocator
	resources map[string]*Resource
	order     []string
	instances []*KernelInstance
	autoPairs []autoResizePair
}

// autoResizePair records an input/output symbol pair whose names hash to
// the same related_name_hash (e.g. u_State_in / u_State_out): resizing the
// output resource resizes the input resource before the next frame.
type autoResizePair struct {
	inResource, outResource string
}

// Build allocates every resource, constructs each kernel's VM and binding
// table, copies constant program tensors into their bound resources, wires
// auto-resize pairs, and rejects a cyclic resource graph — all of
// spec.md §4.7 steps 1-3 plus the cycle check.
func Build(alloc memory.Allocator, desc Description) (*Engine, error) {
	e := &Engine{Alloc: alloc, resources: make(map[string]*Resource, len(desc.Resources))}

	for _, rs := range desc.Resources {
		r, err := NewResource(alloc, rs.Name, rs.Info)
		if err != nil {
			return nil, err
		}
		e.resources[rs.Name] = r
		e.order = append(e.order, rs.Name)
	}

	warn := func(msg string) { mflog.Named("pipeline").Warn(msg) }

	for _, spec := range desc.Kernels {
		inst, err := buildInstance(alloc, spec, e.resources, warn)
		if err != nil {
			return nil, err
		}
		seedConstants(inst)
		e.instances = append(e.instances, inst)
	}

	e.autoPairs = findAutoResizePairs(e.instances)

	if err := e.checkCycles(); err != nil {
		return nil, err
	}
	return e, nil
}

// seedConstants copies constant program tensors already materialized into
// the instance's VM registers (vm.Reset populates CONST registers) into
// their bound resources as initial state, per spec.md §4.7 step 4. A size
// mismatch only warns and skips, it is not fatal.
func seedConstants(inst *KernelInstance) {
	protos := inst.Spec.Prog.Prototypes
	bindings := append(append([]Binding{}, inst.Inputs...), inst.Outputs...)
	for _, b := range bindings {
		if idx := int(b.Symbol.RegisterIdx); idx >= len(protos) || !protos[idx].IsConstant {
			continue
		}
		reg := inst.VM.Register(b.Symbol.RegisterIdx)
		if reg == nil {
			continue
		}
		front, back := b.Resource.Front().Data(), b.Resource.Back().Data()
		data := reg.Data()
		if len(data) != len(front) || len(data) != len(back) {
			mflog.Named("pipeline").Warn("skipping constant seed: size mismatch",
				zap.String("resource", b.Resource.Name), zap.Int("register_bytes", len(data)), zap.Int("resource_bytes", len(front)))
			continue
		}
		copy(front, data)
		copy(back, data)
	}
}

// findAutoResizePairs scans every instance's symbols for an input/output
// pair sharing the same related_name_hash (e.g. u_State_in <-> u_State_out,
// both hashed by the compiler from their shared base name), recording the
// pair so Resize can propagate.
func findAutoResizePairs(instances []*KernelInstance) []autoResizePair {
	var pairs []autoResizePair
	for _, inst := range instances {
		for _, in := range inst.Inputs {
			for _, out := range inst.Outputs {
				if in.Symbol.RelatedNameHash != 0 && in.Symbol.RelatedNameHash == out.Symbol.RelatedNameHash {
					pairs = append(pairs, autoResizePair{inResource: in.Resource.Name, outResource: out.Resource.Name})
				}
			}
		}
	}
	return pairs
}

// checkCycles rejects a resource dependency graph with a cycle: an edge
// producerKernel -> consumerKernel exists whenever one instance's output
// resource is another instance's input resource.
func (e *Engine) checkCycles() error {
	producers := make(map[string][]int) // resource name -> instance indices that write it
	for i, inst := range e.instances {
		for _, out := range inst.Outputs {
			producers[out.Resource.Name] = append(producers[out.Resource.Name], i)
		}
	}
	adj := make(map[int][]int)
	for i, inst := range e.instances {
		for _, in := range inst.Inputs {
			for _, p := range producers[in.Resource.Name] {
				if p != i {
					adj[p] = append(adj[p], i)
				}
			}
		}
	}

	const (
		white = iota
		grey
		black
	)
	color := make([]int, len(e.instances))
	var visit func(n int) error
	visit = func(n int) error {
		color[n] = grey
		for _, next := range adj[n] {
			switch color[next] {
			case grey:
				return errors.Errorf("pipeline: resource graph cycle involving kernel %q", e.instances[next].Spec.ID)
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		color[n] = black
		return nil
	}
	for i := range e.instances {
		if color[i] == white {
			if err := visit(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// Resource looks up a built resource by name.
func (e *Engine) Resource(name string) (*Resource, bool) {
	r, ok := e.resources[name]
	return r, ok
}

// Resize grows/shrinks a dynamic resource (e.g. out_Color on window resize)
// and immediately propagates to any auto-resize-paired input resource, per
// spec.md §4.7 step 3.
func (e *Engine) Resize(name string, newInfo tensor.TypeInfo) error {
	r, ok := e.resources[name]
	if !ok {
		return errors.Errorf("pipeline: unknown resource %q", name)
	}
	if err := r.Resize(e.Alloc, newInfo); err != nil {
		return err
	}
	for _, pair := range e.autoPairs {
		if pair.outResource == name {
			if paired, ok := e.resources[pair.inResource]; ok {
				if err := paired.Resize(e.Alloc, newInfo); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Dispatch runs one frame: stage -> exec -> drain for each kernel instance
// in declared order and frequency count, then swaps every resource written
// this frame. Kernel order is the producer-before-consumer guarantee;
// Build's cycle check is what makes that guarantee satisfiable.
func (e *Engine) Dispatch(params DispatchParams) error {
	for _, inst := range e.instances {
		freq := inst.Spec.Frequency
		if freq <= 0 {
			freq = 1
		}
		for i := 0; i < freq; i++ {
			inst.stage()
			if err := inst.VM.Exec(toExecParams(params)); err != nil {
				return errors.Wrapf(err, "pipeline: kernel %q (instance %s)", inst.Spec.ID, inst.RuntimeID)
			}
			inst.drain()
		}
	}
	for _, name := range e.order {
		e.resources[name].Swap()
	}
	return nil
}

// DispatchParams carries the per-frame tiling/coordinate builtins a caller
// (mf-window, or a headless frame loop) supplies.
type DispatchParams struct {
	GlobalOffset [3]uint32
	LocalSize    [3]uint32
	GlobalSize   [3]uint32
}

func toExecParams(p DispatchParams) vm.ExecParams {
	return vm.ExecParams{GlobalOffset: p.GlobalOffset, LocalSize: p.LocalSize, GlobalSize: p.GlobalSize}
}
