// Package mathflow implements a tensor dataflow runtime: JSON graphs of tensor
// operations are compiled into linear bytecode and executed over an
// N-dimensional iteration domain, either as a headless script or as a
// per-frame shader-like pipeline.
//
// # Architecture Overview
//
// The runtime is organized leaves-first:
//
//   - memory: bump arena and free-list heap allocators
//   - tensor: dtype/shape/stride model and the strided N-D iterator
//   - ops: the static operation registry (opcode, shape rule, dtype rule)
//   - ir + compiler: JSON AST to bytecode, in nine ordered passes
//   - program: the bytecode container (instructions, symbols, tasks)
//   - backend: the opcode dispatch table and kernel implementations
//   - vm: holds register tensors and executes one Program
//   - pipeline: named ping-pong resources and multi-kernel orchestration
//   - scheduler: the tiled worker pool fanning a Program across a domain
//   - cartridge: the sectioned binary container format
//
// # Basic Usage
//
//	prog, diags := compiler.Compile(graphJSON, compiler.DefaultOptions())
//	if diags.HasErrors() {
//	    log.Fatal(diags.First())
//	}
//	machine := vm.New(prog, alloc)
//	machine.Reset()
//	if err := machine.Exec(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Package Structure
//
//   - memory, tensor, ops, diag: fundamental data model
//   - ir, compiler: graph-to-bytecode compiler
//   - program, backend, vm: bytecode container and executor
//   - pipeline, scheduler: frame orchestration and parallel dispatch
//   - cartridge: on-disk container format
//   - cmd: command-line tools (mfc, mf-runner, mf-window)
package mathflow
