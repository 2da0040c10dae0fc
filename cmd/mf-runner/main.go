// Command mf-runner headlessly executes a compiled program or graph for a
// fixed number of frames and dumps every named register, the teacher's
// sublrun generalized from one arena-resident graph to the register-machine
// VM this runtime uses.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BinaryCat17/mathflow/cartridge"
	"github.com/BinaryCat17/mathflow/compiler"
	"github.com/BinaryCat17/mathflow/internal/mflog"
	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/program"
	"github.com/BinaryCat17/mathflow/vm"
)

func main() {
	var (
		frames  int
		verbose bool
		heapMB  int
	)

	root := &cobra.Command{
		Use:   "mf-runner <graph.json|program.mfc>",
		Short: "Headlessly execute a compiled program for N frames and dump registers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guard := mflog.Init(verbose)
			defer guard.Sync()

			prog, err := load(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			heap := memory.NewHeap(heapMB << 20)
			machine := vm.New(prog, heap)

			// Reset runs once: MEMORY nodes' pinned registers must survive
			// across frames, only Exec's end-of-frame COPY updates them.
			if err := machine.Reset(); err != nil {
				fmt.Fprintf(os.Stderr, "mf-runner: reset: %v\n", err)
				os.Exit(1)
			}
			for frame := 0; frame < frames; frame++ {
				if err := machine.Exec(vm.ExecParams{}); err != nil {
					fmt.Fprintf(os.Stderr, "mf-runner: frame %d: exec: %v\n", frame, err)
					os.Exit(1)
				}
			}

			dumpRegisters(prog, machine)
			return nil
		},
	}
	root.Flags().IntVar(&frames, "frames", 1, "number of frames to execute")
	root.Flags().BoolVar(&verbose, "verbose", false, "verbose logging")
	root.Flags().IntVar(&heapMB, "heap-mb", 64, "VM heap size in MiB")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load(path string) (*program.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mf-runner: read %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".json") {
		prog, sink := compiler.Compile(string(data), compiler.Options{SourceFile: path, ValidateGraph: true})
		if sink.HasErrors() {
			return nil, fmt.Errorf("mf-runner: %s", sink.First().Error())
		}
		return prog, nil
	}
	return cartridge.DecodeProgram(data)
}

func dumpRegisters(prog *program.Program, machine *vm.VM) {
	for _, sym := range prog.Symbols {
		reg := machine.Register(sym.RegisterIdx)
		if reg == nil {
			continue
		}
		fmt.Printf("%s (r%d): %v\n", sym.Name, sym.RegisterIdx, reg.Float32())
	}
}
