// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a device on the noop backend. GPU work succeeds
// there but produces no pixels, so tests check behavior and counters.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestSession(t *testing.T, cfg Config) *Session {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatBGRA8Unorm
	}
	s, err := NewSession(device, queue, cfg)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(s.Destroy)
	return s
}

// recordingDevice wraps a device and keeps a copy of every render pipeline
// descriptor it is asked to create.
type recordingDevice struct {
	hal.Device
	pipelines []hal.RenderPipelineDescriptor
}

func (d *recordingDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelines = append(d.pipelines, *desc)
	return d.Device.CreateRenderPipeline(desc)
}

// pipeline returns the recorded descriptor with the given label.
func (d *recordingDevice) pipeline(t *testing.T, label string) hal.RenderPipelineDescriptor {
	t.Helper()
	for _, desc := range d.pipelines {
		if desc.Label == label {
			return desc
		}
	}
	t.Fatalf("no pipeline %q created; have %d", label, len(d.pipelines))
	return hal.RenderPipelineDescriptor{}
}

// newRecordingSession is newTestSession on a recordingDevice.
func newRecordingSession(t *testing.T, cfg Config) (*Session, *recordingDevice) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	rec := &recordingDevice{Device: device}
	if cfg.Format == gputypes.TextureFormatUndefined {
		cfg.Format = gputypes.TextureFormatBGRA8Unorm
	}
	s, err := NewSession(rec, queue, cfg)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	t.Cleanup(s.Destroy)
	return s, rec
}

// textureWrite is one recorded Queue.WriteTexture call.
type textureWrite struct {
	origin hal.Origin3D
	size   hal.Extent3D
	layout hal.ImageDataLayout
	data   []byte
}

// recordingQueue wraps a queue and keeps every texture write.
type recordingQueue struct {
	hal.Queue
	writes []textureWrite
}

func (q *recordingQueue) WriteTexture(dst *hal.ImageCopyTexture, data []byte, layout *hal.ImageDataLayout, size *hal.Extent3D) error {
	q.writes = append(q.writes, textureWrite{
		origin: dst.Origin,
		size:   *size,
		layout: *layout,
		data:   append([]byte(nil), data...),
	})
	return q.Queue.WriteTexture(dst, data, layout, size)
}
