package pipeline

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/vm"
)

// Binding pairs a kernel's compiled-in symbol with the resource bound to it.
type Binding struct {
	Symbol   program.Symbol
	Resource *Resource
}

// KernelSpec describes one pipeline kernel: its compiled program, how many
// times it runs per frame, and its port -> resource binding table.
type KernelSpec struct {
	ID         string
	Prog       *program.Program
	Frequency  int
	Bindings   map[string]string // port name -> resource name
}

// KernelInstance is a built KernelSpec: a resident VM plus resolved input
// and output bindings, ready to dispatch every frame. RuntimeID is a
// per-build identity distinct from Spec.ID (the manifest's author-chosen,
// possibly-reused name): it disambiguates two instances built from the same
// spec across a hot reload, in logs and error traces.
type KernelInstance struct {
	Spec      KernelSpec
	RuntimeID uuid.UUID
	VM        *vm.VM
	Inputs    []Binding
	Outputs   []Binding
}

// buildInstance resolves a KernelSpec's bindings against its program's
// symbol table and the pipeline's resource set. A binding naming a resource
// that does not exist is fatal; a declared binding whose port has no
// matching symbol only warns, as does a symbol with no declared binding
// (the kernel simply runs without it bound).
func buildInstance(alloc memory.Allocator, spec KernelSpec, resources map[string]*Resource, warn func(string)) (*KernelInstance, error) {
	machine := vm.New(spec.Prog, alloc)
	if err := machine.Reset(); err != nil {
		return nil, errors.Wrapf(err, "pipeline: kernel %q: reset VM", spec.ID)
	}

	inst := &KernelInstance{Spec: spec, RuntimeID: uuid.New(), VM: machine}
	for port := range spec.Bindings {
		if _, ok := spec.Prog.FindSymbol(port); !ok {
			warn(errors.Errorf("pipeline: kernel %q: binding port %q matches no symbol", spec.ID, port).Error())
		}
	}
	for _, sym := range spec.Prog.Symbols {
		resName, bound := spec.Bindings[sym.Name]
		if !bound {
			warn(errors.Errorf("pipeline: kernel %q: symbol %q has no binding", spec.ID, sym.Name).Error())
			continue
		}
		res, ok := resources[resName]
		if !ok {
			return nil, errors.Errorf("pipeline: kernel %q: binding %q -> resource %q not found", spec.ID, sym.Name, resName)
		}
		b := Binding{Symbol: sym, Resource: res}
		if sym.Flags&program.SymOutput != 0 {
			inst.Outputs = append(inst.Outputs, b)
		} else {
			inst.Inputs = append(inst.Inputs, b)
		}
	}
	return inst, nil
}

// stage copies each input resource's front buffer into the instance's VM
// registers ahead of Exec.
func (inst *KernelInstance) stage() {
	for _, b := range inst.Inputs {
		dst := inst.VM.Register(b.Symbol.RegisterIdx)
		src := b.Resource.Front()
		if dst == nil || src == nil {
			continue
		}
		copy(dst.Data(), src.Data())
	}
}

// drain copies each output register into its resource's back buffer after
// Exec, marking the resource written so Swap rotates it at frame end.
func (inst *KernelInstance) drain() {
	for _, b := range inst.Outputs {
		src := inst.VM.Register(b.Symbol.RegisterIdx)
		dst := b.Resource.Back()
		if src == nil || dst == nil {
			continue
		}
		copy(dst.Data(), src.Data())
		b.Resource.MarkWritten()
	}
}
