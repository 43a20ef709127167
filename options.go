// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import "github.com/gogpu/gputypes"

// DefaultVertexCapacity is the initial GPU vertex buffer capacity in
// vertices. The buffer grows when a frame needs more.
const DefaultVertexCapacity = 65536

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := render2d.NewWithDevice(device, queue,
//	    render2d.WithViewport(1280, 720),
//	    render2d.WithClearColor(render2d.Hex("#282c34")),
//	)
type Option func(*options)

type options struct {
	format         gputypes.TextureFormat
	formatSet      bool
	clear          RGBA
	loadExisting   bool
	viewport       Viewport
	viewportSet    bool
	debug          bool
	vertexCapacity int
	spirv          bool
	atlasBudget    uint64
}

func defaultOptions() options {
	return options{
		format:         gputypes.TextureFormatBGRA8Unorm,
		clear:          Transparent,
		vertexCapacity: DefaultVertexCapacity,
	}
}

// WithSurfaceFormat sets the color attachment format the pipelines target.
// Defaults to the provider's surface format when New receives a
// gpucontext.DeviceProvider, otherwise BGRA8Unorm.
func WithSurfaceFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
		o.formatSet = true
	}
}

// WithClearColor sets the color the attachment is cleared to at the start
// of every frame.
func WithClearColor(c RGBA) Option {
	return func(o *options) {
		o.clear = c
		o.loadExisting = false
	}
}

// WithLoadExisting keeps the attachment contents instead of clearing, so
// frames composite over what the target already holds.
func WithLoadExisting() Option {
	return func(o *options) {
		o.loadExisting = true
	}
}

// WithViewport sets the initial viewport. An invalid size makes the
// constructor fail with ErrInvalidViewport.
func WithViewport(width, height float32) Option {
	return func(o *options) {
		o.viewport = Viewport{Width: width, Height: height}
		o.viewportSet = true
	}
}

// WithDebugPasses enables Frame.DebugBlitAtlas. Production renderers leave
// it off.
func WithDebugPasses(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
	}
}

// WithVertexCapacity sets the initial GPU vertex buffer capacity in
// vertices. Values below 1 select DefaultVertexCapacity.
func WithVertexCapacity(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = DefaultVertexCapacity
		}
		o.vertexCapacity = n
	}
}

// WithSPIRV compiles the WGSL shaders to SPIR-V with naga at creation time
// and builds the shader modules from SPIR-V.
func WithSPIRV(enabled bool) Option {
	return func(o *options) {
		o.spirv = enabled
	}
}

// WithAtlasBudget caps the GPU memory used by atlas textures, in bytes.
// When it is exceeded after a frame, the least recently drawn atlases are
// dropped from the GPU and uploaded again on their next use. Zero selects
// a 64 MiB budget.
func WithAtlasBudget(bytes uint64) Option {
	return func(o *options) {
		o.atlasBudget = bytes
	}
}
