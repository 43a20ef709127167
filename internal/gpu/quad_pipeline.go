// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// QuadPipeline draws vertex-colored triangles in pixel space. The fragment
// stage outputs the interpolated vertex color; uv is carried but unused.
//
// Bind group layout:
//
//	Binding 0: viewport uniform (vertex)
type QuadPipeline struct {
	device hal.Device
	format gputypes.TextureFormat
	spirv  bool

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
}

// NewQuadPipeline creates a quad pipeline targeting format. GPU objects are
// created by ensurePipeline.
func NewQuadPipeline(device hal.Device, format gputypes.TextureFormat, spirv bool) *QuadPipeline {
	return &QuadPipeline{device: device, format: format, spirv: spirv}
}

func (p *QuadPipeline) ensurePipeline() error {
	if p.pipeline != nil {
		return nil
	}
	return p.createPipeline()
}

func (p *QuadPipeline) createPipeline() error {
	shader, err := createShaderModule(p.device, "quad", quadShaderSource, p.spirv)
	if err != nil {
		return err
	}
	p.shader = shader

	uniformLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "quad_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		p.destroyPipeline()
		return fmt.Errorf("create quad uniform layout: %w", err)
	}
	p.uniformLayout = uniformLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "quad_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.uniformLayout},
	})
	if err != nil {
		p.destroyPipeline()
		return fmt.Errorf("create quad pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "quad_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: entryVertex,
			Buffers:    vertexLayout(),
		},
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
		p.destroyPipeline()
		return fmt.Errorf("create quad pipeline: %w", err)
	}
	p.pipeline = pipeline
	slogger().Debug("quad pipeline created", "format", p.format)
	return nil
}

// createBindGroup binds the viewport uniform for this pipeline's layout.
func (p *QuadPipeline) createBindGroup(viewport *ViewportBuffer) (hal.BindGroup, error) {
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "quad_bind_group",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: viewport.binding()},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create quad bind group: %w", err)
	}
	return bg, nil
}

// RecordDraw records one draw of count vertices starting at first. The
// vertex buffer must already be bound at slot 0.
func (p *QuadPipeline) RecordDraw(rp hal.RenderPassEncoder, bindGroup hal.BindGroup, first, count uint32) {
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.Draw(count, 1, first, 0)
}

// Destroy releases all GPU resources. Safe to call more than once.
func (p *QuadPipeline) Destroy() {
	p.destroyPipeline()
}

// destroyPipeline releases pipeline resources in reverse creation order.
func (p *QuadPipeline) destroyPipeline() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
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
