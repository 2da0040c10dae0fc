package compiler

// Options configures a single Compile invocation, in the teacher's
// options-struct idiom (compiler.CompileOptions / DefaultOptions()).
type Options struct {
	// OptimizeLayout enables Pass 7 FMA fusion; when false no fusion runs,
	// which is useful for debugging a miscompile. Pass 8 register reuse
	// runs either way.
	OptimizeLayout bool
	// ValidateGraph warns, before codegen, about live nodes that feed no
	// OUTPUT (orphan nodes). Ports are not checked.
	ValidateGraph bool
	// DebugOutput logs one summary line after codegen: node, instruction,
	// task and register counts.
	DebugOutput bool
	// Verbose is not read by Compile; warnings are recorded in the returned
	// Sink either way.
	Verbose bool
	// Load resolves a CALL node's subgraph_path to source text. Defaults to
	// os.ReadFile-backed loading when nil (set by Compile).
	Load FileLoader
	// SourceFile names the root graph for diagnostics.
	SourceFile string
}

// DefaultOptions returns fusion and graph validation enabled, debug output
// off. `mfc` builds its own Options from its flags instead.
func DefaultOptions() Options {
	return Options{
		OptimizeLayout: true,
		ValidateGraph:  true,
	}
}
