// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package render2d

import (
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/render2d/internal/gpu"
)

func init() {
	gpuSetLogger = gpu.SetLogger
}

// Target is the color attachment of one frame. Set View to render into a
// surface texture view, or leave it nil and set Image to render offscreen
// and read the pixels back into Image when the frame ends.
type Target struct {
	View          hal.TextureView
	Width, Height int
	Image         *image.RGBA
}

func (t Target) size() (int, int) {
	if t.View == nil && t.Image != nil && t.Width == 0 && t.Height == 0 {
		b := t.Image.Bounds()
		return b.Dx(), b.Dy()
	}
	return t.Width, t.Height
}

// FrameStats describes a finished frame.
type FrameStats struct {
	// DrawCalls is the number of draw calls recorded into the render pass.
	DrawCalls int
	// Vertices is the number of caller vertices uploaded.
	Vertices int
	// PipelineSwitches counts changes of pipeline between draws.
	PipelineSwitches int
	// ViewportUploaded reports whether the viewport uniform was rewritten.
	ViewportUploaded bool
	// AtlasBytes is the number of atlas bytes uploaded before the pass.
	AtlasBytes int
	// AtlasEvictions is the number of atlas textures dropped after the
	// frame to stay within the atlas budget.
	AtlasEvictions int
}

// Renderer owns the GPU pipelines and shared resources for 2D primitive
// rendering on one device. Create it with New or NewWithDevice and release
// it with Close. The device itself belongs to the caller.
//
// Renderer methods are safe for concurrent use, but at most one Frame is
// open at a time.
type Renderer struct {
	mu sync.Mutex

	session *gpu.Session
	opts    options

	viewport    Viewport
	hasViewport bool
	bound       AtlasSource
	frame       *Frame
	frames      uint64
	closed      bool
}

// New creates a renderer on the device of a host provider. The provider
// must expose HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue, or be a gpucontext.DeviceProvider whose Device and Queue are
// HAL objects. A gpucontext.DeviceProvider's SurfaceFormat is used unless
// WithSurfaceFormat is given.
func New(provider any, opts ...Option) (*Renderer, error) {
	device, queue, err := halFromProvider(provider)
	if err != nil {
		return nil, err
	}
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		if f := dp.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
			// Prepended so an explicit WithSurfaceFormat still wins.
			opts = append([]Option{WithSurfaceFormat(f)}, opts...)
		}
	}
	return NewWithDevice(device, queue, opts...)
}

func halFromProvider(provider any) (hal.Device, hal.Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	var devAny, queueAny any
	switch p := provider.(type) {
	case halProvider:
		devAny, queueAny = p.HalDevice(), p.HalQueue()
	case gpucontext.DeviceProvider:
		devAny, queueAny = p.Device(), p.Queue()
	default:
		return nil, nil, fmt.Errorf("%w: %T exposes no device", ErrNoDevice, provider)
	}
	device, ok := devAny.(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("%w: device is %T", ErrNoDevice, devAny)
	}
	queue, ok := queueAny.(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("%w: queue is %T", ErrNoDevice, queueAny)
	}
	return device, queue, nil
}

// NewWithDevice creates a renderer on an existing HAL device and queue.
// Shader and pipeline creation failures are returned wrapped.
func NewWithDevice(device hal.Device, queue hal.Queue, opts ...Option) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	r := &Renderer{opts: o}
	if o.viewportSet {
		if err := o.viewport.Validate(); err != nil {
			return nil, err
		}
		r.viewport = o.viewport
		r.hasViewport = true
	}

	session, err := gpu.NewSession(device, queue, gpu.Config{
		Format:         o.format,
		VertexCapacity: o.vertexCapacity,
		SPIRV:          o.spirv,
		Debug:          o.debug,
		AtlasBudget:    o.atlasBudget,
	})
	if err != nil {
		return nil, fmt.Errorf("render2d: create pipelines: %w", err)
	}
	r.session = session
	Logger().Info("render2d: renderer created",
		"format", o.format, "debug", o.debug, "viewport", r.viewport.String())
	return r, nil
}

// Resize sets the viewport to width x height pixels. Invalid sizes fail
// with ErrInvalidViewport and keep the previous viewport. A resize while a
// frame is open applies from the next BeginFrame.
func (r *Renderer) Resize(width, height float32) error {
	vp, err := NewViewport(width, height)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("%w: renderer closed", ErrResourceUnbound)
	}
	if r.hasViewport && r.viewport == vp {
		return nil
	}
	r.viewport = vp
	r.hasViewport = true
	Logger().Debug("render2d: viewport resized", "viewport", vp.String())
	return nil
}

// Viewport returns the current viewport and whether one has been set.
func (r *Renderer) Viewport() (Viewport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewport, r.hasViewport
}

// BindAtlas sets the atlas used by debug blits and by glyph submissions
// with a nil atlas. It takes effect from the next BeginFrame. A nil a
// unbinds; an atlas of a non-comparable type fails with ErrResourceUnbound.
func (r *Renderer) BindAtlas(a AtlasSource) error {
	if a != nil {
		if err := checkComparable(a); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = a
	return nil
}

// ReleaseAtlas frees the GPU texture mirroring a and unbinds a if it is
// bound. The atlas is uploaded again if a later frame uses it. It fails with
// ErrFrameInFlight while a frame is open, since the frame may still draw
// from the texture.
func (r *Renderer) ReleaseAtlas(a AtlasSource) error {
	if a == nil {
		return nil
	}
	if err := checkComparable(a); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("%w: renderer closed", ErrResourceUnbound)
	}
	if r.frame != nil {
		return ErrFrameInFlight
	}
	r.session.ReleaseAtlas(a)
	if r.bound == a {
		r.bound = nil
	}
	return nil
}

// BeginFrame opens a frame drawing into target. The current viewport is
// captured for the whole frame. BeginFrame fails with ErrResourceUnbound
// when no viewport has been set, and with ErrFrameInFlight while another
// frame is open.
func (r *Renderer) BeginFrame(target Target) (*Frame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("%w: renderer closed", ErrResourceUnbound)
	}
	if r.frame != nil {
		return nil, ErrFrameInFlight
	}
	if !r.hasViewport {
		return nil, fmt.Errorf("%w: viewport not set", ErrResourceUnbound)
	}
	w, h := target.size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render2d: target size %dx%d", w, h)
	}
	if target.View == nil {
		if target.Image == nil {
			return nil, fmt.Errorf("%w: target has neither view nor image", ErrResourceUnbound)
		}
		if b := target.Image.Bounds(); b.Dx() != w || b.Dy() != h {
			return nil, fmt.Errorf("render2d: target image %v does not match %dx%d", b, w, h)
		}
	}
	target.Width, target.Height = w, h

	f := &Frame{r: r, target: target}
	f.list.reset(r.viewport, r.opts.debug)
	f.list.bound = r.bound
	r.frame = f
	r.frames++
	return f, nil
}

// Close releases all GPU resources. An open frame is abandoned and its End
// fails with ErrResourceUnbound. Close is safe to call more than once.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.frame = nil
	r.session.Destroy()
	Logger().Info("render2d: renderer closed", "frames", r.frames)
}

// endFrame renders f. Called by Frame.End.
func (r *Renderer) endFrame(f *Frame) (FrameStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == f {
		r.frame = nil
	}
	if r.closed {
		return FrameStats{}, fmt.Errorf("%w: renderer closed", ErrResourceUnbound)
	}

	var stats FrameStats
	cmds := f.list.cmds
	draws := make([]gpu.Draw, 0, len(cmds))
	synced := make(map[AtlasSource]*gpu.AtlasTexture)
	for _, c := range cmds {
		d := gpu.Draw{
			First: uint32(c.first), //nolint:gosec // bounded by vertex buffer size
			Count: uint32(c.count), //nolint:gosec // bounded by vertex buffer size
		}
		switch c.kind {
		case CommandQuads:
			d.Kind = gpu.DrawQuads
		case CommandGlyphs, CommandDebugAtlas:
			d.Kind = gpu.DrawGlyphs
			if c.kind == CommandDebugAtlas {
				d.Kind = gpu.DrawDebugAtlas
			}
			tex, ok := synced[c.atlas]
			if !ok {
				tex = r.session.Atlas(c.atlas)
				n, err := tex.Sync(c.atlas.Coverage(), c.atlas.Dirty(), c.atlas.Generation())
				if err != nil {
					return stats, fmt.Errorf("render2d: sync atlas: %w", err)
				}
				c.atlas.ClearDirty()
				stats.AtlasBytes += n
				synced[c.atlas] = tex
			}
			d.Atlas = tex
		}
		draws = append(draws, d)
	}

	in := gpu.FrameInput{
		Target: gpu.Target{
			View:   f.target.View,
			Width:  uint32(f.target.Width),  //nolint:gosec // validated positive in BeginFrame
			Height: uint32(f.target.Height), //nolint:gosec // validated positive in BeginFrame
		},
		Viewport: f.list.viewport.Uniform(),
		Vertices: AppendVertexBytes(nil, f.list.vertices),
		Draws:    draws,
		Load:     r.opts.loadExisting,
	}
	if !r.opts.loadExisting {
		c := r.opts.clear
		in.Clear = gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
	}
	if f.target.View == nil {
		in.Target.Readback = f.target.Image.Pix
		if f.target.Image.Stride != f.target.Width*4 {
			in.Target.Readback = make([]byte, f.target.Width*f.target.Height*4)
		}
	}

	gs, err := r.session.Render(in)
	if err != nil {
		return stats, fmt.Errorf("render2d: render frame: %w", err)
	}
	if f.target.View == nil && f.target.Image.Stride != f.target.Width*4 {
		img := f.target.Image
		row := f.target.Width * 4
		for y := range f.target.Height {
			copy(img.Pix[y*img.Stride:y*img.Stride+row], in.Target.Readback[y*row:(y+1)*row])
		}
	}

	stats.DrawCalls = gs.DrawCalls
	stats.PipelineSwitches = gs.PipelineSwitches
	stats.ViewportUploaded = gs.UniformWritten
	stats.AtlasEvictions = gs.AtlasEvictions
	stats.Vertices = len(f.list.vertices)
	return stats, nil
}
