// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Mode selects the vertex stage of the glyph pipeline. Both modes share the
// shader module, bind group layout and fragment stage.
type Mode uint8

const (
	// ModeProduction transforms caller-supplied pixel-space glyph vertices
	// through the viewport uniform.
	ModeProduction Mode = iota

	// ModeDebugFullscreen ignores vertex buffers and the viewport and draws
	// the whole atlas over the target in opaque white. Debug use only.
	ModeDebugFullscreen

	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeProduction:
		return "production"
	case ModeDebugFullscreen:
		return "debug-fullscreen"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// GlyphPipeline draws coverage-tinted triangles sampling a single-channel
// atlas: the output is (rgb, a * coverage), written premultiplied.
//
// Bind group layout:
//
//	Binding 0: viewport uniform (vertex)
//	Binding 1: atlas texture (fragment)
//	Binding 2: atlas sampler (fragment)
type GlyphPipeline struct {
	device hal.Device
	format gputypes.TextureFormat
	spirv  bool

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipelines     [modeCount]hal.RenderPipeline
}

// NewGlyphPipeline creates a glyph pipeline targeting format. Each mode's
// render pipeline is created on first use by ensureMode.
func NewGlyphPipeline(device hal.Device, format gputypes.TextureFormat, spirv bool) *GlyphPipeline {
	return &GlyphPipeline{device: device, format: format, spirv: spirv}
}

// ensureBase creates the shared shader module and layouts.
func (p *GlyphPipeline) ensureBase() error {
	if p.shader != nil && p.uniformLayout != nil && p.pipeLayout != nil {
		return nil
	}
	shader, err := createShaderModule(p.device, "glyph", glyphShaderSource, p.spirv)
	if err != nil {
		return err
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "glyph_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		p.destroyPipeline()
		return fmt.Errorf("create glyph uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "glyph_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		p.destroyPipeline()
		return fmt.Errorf("create glyph pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout
	return nil
}

// ensureMode creates the render pipeline for mode if it does not exist.
func (p *GlyphPipeline) ensureMode(mode Mode) error {
	if mode >= modeCount {
		return fmt.Errorf("glyph pipeline: unknown %v", mode)
	}
	if p.pipelines[mode] != nil {
		return nil
	}
	if err := p.ensureBase(); err != nil {
		return err
	}

	vertex := hal.VertexState{
		Module:     p.shader,
		EntryPoint: entryVertex,
		Buffers:    vertexLayout(),
	}
	label := "glyph_pipeline"
	if mode == ModeDebugFullscreen {
		vertex = hal.VertexState{
			Module:     p.shader,
			EntryPoint: entryDebugFullscreen,
		}
		label = "glyph_debug_fullscreen_pipeline"
	}

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipeLayout,
		Vertex: vertex,
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: entryFragment,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					Blend:     &premulBlend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", label, err)
	}
	p.pipelines[mode] = pipeline
	slogger().Debug("glyph pipeline created", "mode", mode, "format", p.format)
	return nil
}

// createBindGroup binds the viewport uniform and an atlas texture.
func (p *GlyphPipeline) createBindGroup(viewport *ViewportBuffer, atlas *AtlasTexture) (hal.BindGroup, error) {
	if err := p.ensureBase(); err != nil {
		return nil, err
	}
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "glyph_bind_group",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: viewport.binding()},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: atlas.view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: atlas.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create glyph bind group: %w", err)
	}
	return bg, nil
}

// RecordDraw records one draw in mode. In ModeProduction the vertex buffer
// must already be bound at slot 0 and first/count address it. In
// ModeDebugFullscreen first and count are ignored and the built-in six
// vertices are drawn.
func (p *GlyphPipeline) RecordDraw(rp hal.RenderPassEncoder, mode Mode, bindGroup hal.BindGroup, first, count uint32) {
	rp.SetPipeline(p.pipelines[mode])
	rp.SetBindGroup(0, bindGroup, nil)
	if mode == ModeDebugFullscreen {
		rp.Draw(debugFullscreenVerts, 1, 0, 0)
		return
	}
	rp.Draw(count, 1, first, 0)
}

// Destroy releases all GPU resources. Safe to call more than once.
func (p *GlyphPipeline) Destroy() {
	p.destroyPipeline()
}

// destroyPipeline releases pipeline resources in reverse creation order.
func (p *GlyphPipeline) destroyPipeline() {
	if p.device == nil {
		return
	}
	for i := len(p.pipelines) - 1; i >= 0; i-- {
		if p.pipelines[i] != nil {
			p.device.DestroyRenderPipeline(p.pipelines[i])
			p.pipelines[i] = nil
		}
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.uniformLayout != nil {
		p.device.DestroyBindGroupLayout(p.uniformLayout)
		p.uniformLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
