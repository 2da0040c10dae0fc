// Command mfc compiles a graph JSON document (or an .mfapp manifest
// bundling several kernels) into a binary cartridge. Exit status mirrors
// the teacher's sublc: 0 on success, 1 on any diagnostic error.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BinaryCat17/mathflow/cartridge"
	"github.com/BinaryCat17/mathflow/compiler"
	"github.com/BinaryCat17/mathflow/internal/mflog"
	"github.com/BinaryCat17/mathflow/pipeline"
)

func main() {
	var (
		optimize bool
		validate bool
		debug    bool
	)

	root := &cobra.Command{
		Use:   "mfc <input.mfapp|input.json> [output.mfc]",
		Short: "Compile a MathFlow graph or app manifest into a binary cartridge",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guard := mflog.Init(debug)
			defer guard.Sync()

			in := args[0]
			out := deriveOutputPath(in, args)

			opts := compiler.Options{OptimizeLayout: optimize, ValidateGraph: validate, DebugOutput: debug}

			var blob []byte
			var err error
			if strings.HasSuffix(in, ".mfapp") {
				blob, err = compileManifest(in, opts)
			} else {
				blob, err = compileGraph(in, opts)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			if err := os.WriteFile(out, blob, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "mfc: write %s: %v\n", out, err)
				os.Exit(1)
			}
			fmt.Printf("compiled %s -> %s (%d bytes)\n", in, out, len(blob))
			return nil
		},
	}
	root.Flags().BoolVarP(&optimize, "optimize", "O", false, "enable fusion/layout optimizations")
	root.Flags().BoolVar(&validate, "validate", true, "validate graph reachability before codegen")
	root.Flags().BoolVar(&debug, "debug", false, "verbose compiler logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func deriveOutputPath(in string, args []string) string {
	if len(args) == 2 {
		return args[1]
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + ".mfc"
}

func compileGraph(path string, opts compiler.Options) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mfc: read %s: %w", path, err)
	}
	opts.SourceFile = path
	prog, sink := compiler.Compile(string(src), opts)
	if sink.HasErrors() {
		return nil, fmt.Errorf("mfc: %s", sink.First().Error())
	}
	return cartridge.EncodeProgram(prog, 0, 0)
}

func compileManifest(path string, opts compiler.Options) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mfc: read %s: %w", path, err)
	}
	manifest, err := pipeline.DecodeManifest(raw)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	var sections []cartridge.Section
	for _, k := range manifest.Pipeline.Kernels {
		kSrc, err := os.ReadFile(filepath.Join(dir, k.Entry))
		if err != nil {
			return nil, fmt.Errorf("mfc: read kernel %s: %w", k.Entry, err)
		}
		kOpts := opts
		kOpts.SourceFile = filepath.Join(dir, k.Entry)
		prog, sink := compiler.Compile(string(kSrc), kOpts)
		if sink.HasErrors() {
			return nil, fmt.Errorf("mfc: kernel %q: %s", k.ID, sink.First().Error())
		}
		blob, err := cartridge.EncodeProgram(prog, uint32(manifest.Window.Width), uint32(manifest.Window.Height))
		if err != nil {
			return nil, err
		}
		sections = append(sections, cartridge.Section{Name: k.ID, Type: cartridge.SectionProgram, Data: blob})
	}

	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	sections = append(sections, cartridge.Section{Name: "manifest", Type: cartridge.SectionAsset, Data: manifestJSON})

	return cartridge.WriteContainer(sections)
}
