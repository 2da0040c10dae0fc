// Command mf-window runs a pipeline manifest's dispatch loop once per
// frame. Opening an actual OS window, pumping its event loop, and blitting
// a framebuffer to the screen are external collaborators this runtime does
// not implement (no windowing/graphics library appears anywhere in the
// example corpus this project is grounded on); FrameSink and AssetLoader
// below are the seams a real host would plug into. What is implemented
// here is building the pipeline engine from the manifest and running
// Engine.Dispatch once per frame on the calling goroutine; the scheduler's
// tiled dispatch is not used.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BinaryCat17/mathflow/compiler"
	"github.com/BinaryCat17/mathflow/internal/mflog"
	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/pipeline"
)

// FrameSink receives a completed frame's out_Color resource, e.g. to blit
// it into a window surface. A real host implements this against its
// windowing library of choice; mf-window's own main loop here uses
// logSink, which just reports frame statistics.
type FrameSink interface {
	Present(width, height int, rgba []float32) error
}

// AssetLoader resolves a manifest asset reference (font, image, sound) to
// bytes. A real host implements this against a filesystem or embedded
// bundle; mf-window's own main loop here uses no assets beyond the
// manifest's own pipeline graphs.
type AssetLoader interface {
	Load(ref pipeline.AssetRef) ([]byte, error)
}

type logSink struct{ frame int }

func (s *logSink) Present(width, height int, rgba []float32) error {
	s.frame++
	mflog.L().Sugar().Infof("frame %d: presented %dx%d (%d floats)", s.frame, width, height, len(rgba))
	return nil
}

func main() {
	var (
		maxFrames int
		verbose   bool
	)

	root := &cobra.Command{
		Use:   "mf-window <app.mfapp>",
		Short: "Run a pipeline manifest's per-frame dispatch loop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guard := mflog.Init(verbose)
			defer guard.Sync()

			eng, manifest, err := buildFromManifest(args[0])
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			sink := &logSink{}
			for f := 0; maxFrames <= 0 || f < maxFrames; f++ {
				if err := eng.Dispatch(pipeline.DispatchParams{}); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(1)
				}
				if out, ok := eng.Resource("out_Color"); ok {
					if err := sink.Present(manifest.Window.Width, manifest.Window.Height, out.Front().Float32()); err != nil {
						fmt.Fprintln(os.Stderr, err)
						os.Exit(1)
					}
				}
				if maxFrames <= 0 {
					break // no real event loop to drive further frames without a window backend
				}
			}
			return nil
		},
	}
	root.Flags().IntVar(&maxFrames, "frames", 1, "frames to run (0 runs a single frame: there is no window to run until close)")
	root.Flags().BoolVar(&verbose, "verbose", false, "verbose logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildFromManifest(path string) (*pipeline.Engine, *pipeline.Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("mf-window: read %s: %w", path, err)
	}
	manifest, err := pipeline.DecodeManifest(raw)
	if err != nil {
		return nil, nil, err
	}

	resources, err := manifest.ResourceSpecs()
	if err != nil {
		return nil, nil, err
	}

	dir := filepath.Dir(path)
	var kernels []pipeline.KernelSpec
	for _, k := range manifest.Pipeline.Kernels {
		kSrc, err := os.ReadFile(filepath.Join(dir, k.Entry))
		if err != nil {
			return nil, nil, fmt.Errorf("mf-window: read kernel %s: %w", k.Entry, err)
		}
		prog, sink := compiler.Compile(string(kSrc), compiler.Options{SourceFile: filepath.Join(dir, k.Entry)})
		if sink.HasErrors() {
			return nil, nil, fmt.Errorf("mf-window: kernel %q: %s", k.ID, sink.First().Error())
		}
		kernels = append(kernels, pipeline.KernelSpec{
			ID: k.ID, Prog: prog, Frequency: k.Frequency, Bindings: k.BindingMap(),
		})
	}

	heap := memory.NewHeap(64 << 20)
	eng, err := pipeline.Build(heap, pipeline.Description{Resources: resources, Kernels: kernels})
	if err != nil {
		return nil, nil, err
	}
	return eng, manifest, nil
}
