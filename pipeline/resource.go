// Package pipeline assembles compiled Programs into a running application:
// named ping-pong resources bound to kernel instances, dispatched once per
// frame in declaration order. Grounded on the teacher's runtime.Engine
// struct shape and core.Sublate's front/back buffer swap, generalized from
// one fixed model graph to the named-resource pipeline spec.md §4.7/§6
// describes.
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/BinaryCat17/mathflow/memory"
	"github.com/BinaryCat17/mathflow/tensor"
)

// Resource is a named, double-buffered tensor: front is read by consumers
// this frame, back is written by producers and becomes the new front at the
// end of dispatch — the direct generalization of core.Sublate's
// PayloadPrev/PayloadProp pair to an arbitrary named tensor.
type Resource struct {
	Name string
	Info tensor.TypeInfo

	front, back *tensor.Tensor
	written     bool
}

// NewResource allocates both buffers of a resource at its declared shape.
// A dynamic (negative) dimension leaves the resource zero-sized until its
// first Resize.
func NewResource(alloc memory.Allocator, name string, info tensor.TypeInfo) (*Resource, error) {
	r := &Resource{Name: name, Info: info}
	if info.Size() == 0 {
		r.front = tensor.View(info, nil)
		r.back = tensor.View(info, nil)
		return r, nil
	}
	f, err := tensor.New(alloc, info)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline: alloc resource %q front buffer", name)
	}
	b, err := tensor.New(alloc, info)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline: alloc resource %q back buffer", name)
	}
	r.front, r.back = f, b
	return r, nil
}

// Front returns the buffer consumers should read this frame.
func (r *Resource) Front() *tensor.Tensor { return r.front }

// Back returns the buffer producers should write this frame.
func (r *Resource) Back() *tensor.Tensor { return r.back }

// MarkWritten flags that a kernel wrote this resource's back buffer this
// frame, so Swap actually rotates it at frame end.
func (r *Resource) MarkWritten() { r.written = true }

// Swap rotates front/back for any resource written this frame, mirroring
// core.Sublate.SwapBuffers(); unwritten resources keep their front buffer
// stable across frames (e.g. a constant texture).
func (r *Resource) Swap() {
	if !r.written {
		return
	}
	r.front, r.back = r.back, r.front
	r.written = false
}

// Resize grows or shrinks both buffers of a dynamic resource, e.g. on
// window resize for out_Color, through tensor.Resize, which keeps each
// buffer's bytes up to the smaller of the old and new sizes.
func (r *Resource) Resize(alloc memory.Allocator, newInfo tensor.TypeInfo) error {
	if err := r.front.Resize(alloc, newInfo); err != nil {
		return errors.Wrapf(err, "pipeline: resize resource %q front", r.Name)
	}
	if err := r.back.Resize(alloc, newInfo); err != nil {
		return errors.Wrapf(err, "pipeline: resize resource %q back", r.Name)
	}
	r.Info = newInfo
	return nil
}
