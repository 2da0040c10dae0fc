package pipeline

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/BinaryCat17/mathflow/tensor"
)

// Manifest is the decoded form of an `.mfapp` file, spec.md §6. Window and
// asset sections are carried through for the cmd/mf-window host; only
// Pipeline feeds Build directly.
type Manifest struct {
	Window   WindowConfig    `json:"window"`
	Runtime  RuntimeConfig   `json:"runtime"`
	Pipeline ManifestPipeline `json:"pipeline"`
	Assets   []AssetRef      `json:"assets"`
}

type WindowConfig struct {
	Title      string `json:"title"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Resizable  bool   `json:"resizable"`
	VSync      bool   `json:"vsync"`
	Fullscreen bool   `json:"fullscreen"`
}

type RuntimeConfig struct {
	Entry   string `json:"entry"`
	Threads int    `json:"threads"`
}

type ManifestPipeline struct {
	Resources []ManifestResource `json:"resources"`
	Kernels   []ManifestKernel   `json:"kernels"`
}

type ManifestResource struct {
	Name  string  `json:"name"`
	Dtype string  `json:"dtype"`
	Shape []int32 `json:"shape"`
}

type ManifestBinding struct {
	Port     string `json:"port"`
	Resource string `json:"resource"`
}

type ManifestKernel struct {
	ID        string            `json:"id"`
	Entry     string            `json:"entry"`
	Frequency int               `json:"frequency"`
	Bindings  []ManifestBinding `json:"bindings"`
}

// AssetRef names an external collaborator resource (font, image, sound):
// out of scope per spec.md's Non-goals, but the manifest still needs to
// carry the reference through for a host that does load them.
type AssetRef struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// DecodeManifest parses an `.mfapp` document. Errors are wrapped with
// pkg/errors rather than routed through diag.Sink: manifests are host
// configuration, not compiled graph source, so they do not carry the
// source-location diagnostics spec.md §7 reserves for the compiler.
func DecodeManifest(src []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(src, &m); err != nil {
		return nil, errors.Wrap(err, "pipeline: decode manifest")
	}
	return &m, nil
}

// ResourceSpecs converts the manifest's resource list into ResourceSpecs
// usable by Build.
func (m *Manifest) ResourceSpecs() ([]ResourceSpec, error) {
	specs := make([]ResourceSpec, 0, len(m.Pipeline.Resources))
	for _, r := range m.Pipeline.Resources {
		dt, ok := tensor.ParseDtype(r.Dtype)
		if !ok {
			return nil, errors.Errorf("pipeline: resource %q: unknown dtype %q", r.Name, r.Dtype)
		}
		info := tensor.FromShape(dt, r.Shape)
		specs = append(specs, ResourceSpec{Name: r.Name, Info: info})
	}
	return specs, nil
}

// BindingMap converts a manifest kernel's binding list into the port ->
// resource map buildInstance expects.
func (k ManifestKernel) BindingMap() map[string]string {
	out := make(map[string]string, len(k.Bindings))
	for _, b := range k.Bindings {
		out[b.Port] = b.Resource
	}
	return out
}
