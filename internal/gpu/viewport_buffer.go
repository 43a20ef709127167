// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ViewportUniformSize is the uniform block size: vec2<f32> size plus
// vec2<f32> padding.
const ViewportUniformSize = 16

// ViewportBuffer is the uniform buffer holding the surface size read by
// every pixel-space vertex stage. It is written only when the encoded value
// changes.
type ViewportBuffer struct {
	device hal.Device
	queue  hal.Queue
	buf    hal.Buffer

	last    [ViewportUniformSize]byte
	written bool
	writes  int
}

// NewViewportBuffer allocates the uniform buffer. Its contents are
// undefined until the first Update.
func NewViewportBuffer(device hal.Device, queue hal.Queue) (*ViewportBuffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "viewport_uniform",
		Size:  ViewportUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create viewport uniform: %w", err)
	}
	return &ViewportBuffer{device: device, queue: queue, buf: buf}, nil
}

// Update uploads data if it differs from the last upload and reports
// whether a write happened. A failed write is retried on the next Update.
func (b *ViewportBuffer) Update(data [ViewportUniformSize]byte) (bool, error) {
	if b.written && b.last == data {
		return false, nil
	}
	if err := b.queue.WriteBuffer(b.buf, 0, data[:]); err != nil {
		b.written = false
		return false, fmt.Errorf("write viewport uniform: %w", err)
	}
	b.last = data
	b.written = true
	b.writes++
	return true, nil
}

// Writes returns the number of uploads performed.
func (b *ViewportBuffer) Writes() int { return b.writes }

// Buffer returns the underlying uniform buffer.
func (b *ViewportBuffer) Buffer() hal.Buffer { return b.buf }

// binding returns the bind group resource for the buffer.
func (b *ViewportBuffer) binding() gputypes.BufferBinding {
	return gputypes.BufferBinding{Buffer: b.buf.NativeHandle(), Offset: 0, Size: ViewportUniformSize}
}

// Destroy releases the buffer. Safe to call more than once.
func (b *ViewportBuffer) Destroy() {
	if b.buf != nil {
		b.device.DestroyBuffer(b.buf)
		b.buf = nil
	}
}
