// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package main

import (
	"errors"
	"fmt"
	"image"
	"log"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/render2d"
	"github.com/gogpu/render2d/atlas"
	"github.com/gogpu/render2d/scene"

	// Vulkan backend registration.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

var errNoAdapter = errors.New("no GPU adapters found")

// headless is a device opened without a surface.
type headless struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
}

// openHeadless opens the first discrete GPU, else the first integrated
// one, else whatever adapter comes first.
func openHeadless() (*headless, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errNoAdapter
	}
	selected := pickAdapter(adapters)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	log.Printf("render2d-demo: using %s", selected.Info.Name)
	return &headless{instance: instance, device: openDev.Device, queue: openDev.Queue}, nil
}

func pickAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

func (h *headless) Close() {
	if h.device != nil {
		h.device.Destroy()
	}
	if h.instance != nil {
		h.instance.Destroy()
	}
}

// renderGPU draws b into img on a headless device and logs the frame
// stats.
func renderGPU(img *image.RGBA, b *scene.Builder, atl *atlas.Atlas, debug bool) error {
	dev, err := openHeadless()
	if err != nil {
		return err
	}
	defer dev.Close()

	size := img.Bounds().Size()
	r, err := render2d.NewWithDevice(dev.device, dev.queue,
		render2d.WithViewport(float32(size.X), float32(size.Y)),
		render2d.WithClearColor(background),
		render2d.WithDebugPasses(debug),
	)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := r.BindAtlas(atl); err != nil {
		return err
	}

	f, err := r.BeginFrame(render2d.Target{Image: img})
	if err != nil {
		return err
	}
	if err := b.Submit(f); err != nil {
		_, _ = f.End()
		return err
	}
	if debug {
		if err := f.DebugBlitAtlas(); err != nil {
			_, _ = f.End()
			return err
		}
	}
	stats, err := f.End()
	if err != nil {
		return err
	}
	log.Printf("gpu frame: %d draw calls, %d vertices, %d atlas bytes",
		stats.DrawCalls, stats.Vertices, stats.AtlasBytes)
	return nil
}
