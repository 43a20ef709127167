// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// VertexStride is the byte stride of one vertex shared by both pipelines.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes  (location 0)
//	color    (vec4<f32>) = 16 bytes (location 1)
//	uv       (vec2<f32>) = 8 bytes  (location 2)
//
// Total = 32 bytes per vertex.
const VertexStride = 32

// vertexLayout returns the vertex buffer layout for pixel-space vertices.
func vertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x4, Offset: 8, ShaderLocation: 1},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			},
		},
	}
}

// vertexBuffer is a persistent vertex buffer reused across frames. It grows
// to the next power of two when a frame needs more room and never shrinks.
type vertexBuffer struct {
	device hal.Device
	queue  hal.Queue
	buf    hal.Buffer
	size   uint64
	grows  int
}

func newVertexBuffer(device hal.Device, queue hal.Queue, capacity int) (*vertexBuffer, error) {
	vb := &vertexBuffer{device: device, queue: queue}
	if err := vb.reserve(uint64(capacity) * VertexStride); err != nil {
		return nil, err
	}
	vb.grows = 0
	return vb, nil
}

// reserve makes the buffer at least n bytes.
func (vb *vertexBuffer) reserve(n uint64) error {
	if n <= vb.size && vb.buf != nil {
		return nil
	}
	size := uint64(VertexStride)
	for size < n {
		size <<= 1
	}
	buf, err := vb.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "vertices",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create vertex buffer (%d bytes): %w", size, err)
	}
	if vb.buf != nil {
		vb.device.DestroyBuffer(vb.buf)
		vb.grows++
		slogger().Debug("vertex buffer grown", "from", vb.size, "to", size)
	}
	vb.buf = buf
	vb.size = size
	return nil
}

// upload writes data at offset 0, growing the buffer first if needed.
func (vb *vertexBuffer) upload(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := vb.reserve(uint64(len(data))); err != nil {
		return err
	}
	if err := vb.queue.WriteBuffer(vb.buf, 0, data); err != nil {
		return fmt.Errorf("write %d vertex bytes: %w", len(data), err)
	}
	return nil
}

func (vb *vertexBuffer) destroy() {
	if vb.buf != nil {
		vb.device.DestroyBuffer(vb.buf)
		vb.buf = nil
		vb.size = 0
	}
}
