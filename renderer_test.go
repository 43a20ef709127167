// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package render2d

import (
	"bytes"
	"errors"
	"image"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice opens a device on the noop backend. Frames succeed there
// but read back zeroed pixels, so these tests check counters and errors.
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

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, func()) {
	t.Helper()
	device, queue, cleanupDevice := createNoopDevice(t)
	r, err := NewWithDevice(device, queue, opts...)
	if err != nil {
		cleanupDevice()
		t.Fatalf("NewWithDevice failed: %v", err)
	}
	return r, func() {
		r.Close()
		cleanupDevice()
	}
}

func offscreen(w, h int) Target {
	return Target{Image: image.NewRGBA(image.Rect(0, 0, w, h))}
}

func endFrame(t *testing.T, r *Renderer, target Target, draw func(f *Frame)) FrameStats {
	t.Helper()
	f, err := r.BeginFrame(target)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	if draw != nil {
		draw(f)
	}
	stats, err := f.End()
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	return stats
}

type halProvider struct {
	device, queue any
}

func (p halProvider) HalDevice() any { return p.device }
func (p halProvider) HalQueue() any  { return p.queue }

func TestNewFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r, err := New(halProvider{device: device, queue: queue}, WithViewport(16, 16))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer r.Close()
	if vp, ok := r.Viewport(); !ok || vp != (Viewport{Width: 16, Height: 16}) {
		t.Errorf("Viewport() = %v, %v", vp, ok)
	}
}

func TestNewNoDevice(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name     string
		provider any
	}{
		{"nil", nil},
		{"unrelated type", "not a provider"},
		{"nil device", halProvider{}},
		{"queue of wrong type", halProvider{device: device, queue: 42}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.provider); !errors.Is(err, ErrNoDevice) {
				t.Errorf("New error = %v, want ErrNoDevice", err)
			}
		})
	}
	if _, err := NewWithDevice(nil, nil); !errors.Is(err, ErrNoDevice) {
		t.Errorf("NewWithDevice(nil, nil) error = %v, want ErrNoDevice", err)
	}
}

func TestNewInvalidViewportOption(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	if _, err := NewWithDevice(device, queue, WithViewport(0, 10)); !errors.Is(err, ErrInvalidViewport) {
		t.Errorf("got %v, want ErrInvalidViewport", err)
	}
}

func TestResizeRejectsInvalid(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(800, 600))
	defer cleanup()

	nan := float32(math.NaN())
	for _, size := range [][2]float32{{0, 600}, {800, -1}, {nan, 600}} {
		if err := r.Resize(size[0], size[1]); !errors.Is(err, ErrInvalidViewport) {
			t.Errorf("Resize(%v, %v) error = %v, want ErrInvalidViewport", size[0], size[1], err)
		}
		if vp, _ := r.Viewport(); vp != (Viewport{Width: 800, Height: 600}) {
			t.Errorf("Resize(%v, %v) changed viewport to %v", size[0], size[1], vp)
		}
	}
}

func TestViewportUploadIdempotent(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(32, 32))
	defer cleanup()
	target := offscreen(32, 32)

	if s := endFrame(t, r, target, nil); !s.ViewportUploaded {
		t.Error("first frame did not upload the viewport")
	}
	if err := r.Resize(32, 32); err != nil {
		t.Fatal(err)
	}
	if s := endFrame(t, r, target, nil); s.ViewportUploaded {
		t.Error("unchanged viewport was uploaded again")
	}
	if err := r.Resize(64, 16); err != nil {
		t.Fatal(err)
	}
	if s := endFrame(t, r, target, nil); !s.ViewportUploaded {
		t.Error("resized viewport was not uploaded")
	}
}

func TestBeginFrameWithoutViewport(t *testing.T) {
	r, cleanup := newTestRenderer(t)
	defer cleanup()
	if _, err := r.BeginFrame(offscreen(8, 8)); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("got %v, want ErrResourceUnbound", err)
	}
}

func TestFrameInFlight(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	defer cleanup()

	f, err := r.BeginFrame(offscreen(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.BeginFrame(offscreen(8, 8)); !errors.Is(err, ErrFrameInFlight) {
		t.Errorf("second BeginFrame error = %v, want ErrFrameInFlight", err)
	}
	if _, err := f.End(); err != nil {
		t.Fatal(err)
	}
	if _, err := f.End(); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("second End error = %v, want ErrResourceUnbound", err)
	}
	if err := f.SubmitQuads(Rect(0, 0, 1, 1, White)); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("submit after End error = %v, want ErrResourceUnbound", err)
	}
	// The renderer is free again.
	endFrame(t, r, offscreen(8, 8), nil)
}

func TestBeginFrameTargetValidation(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	defer cleanup()

	tests := []struct {
		name   string
		target Target
	}{
		{"empty", Target{}},
		{"image size mismatch", Target{Image: image.NewRGBA(image.Rect(0, 0, 8, 8)), Width: 4, Height: 4}},
		{"size without view or image", Target{Width: 8, Height: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.BeginFrame(tt.target); err == nil {
				t.Error("BeginFrame succeeded")
			}
		})
	}
}

func TestMalformedBatchDrawsNothing(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(16, 16))
	defer cleanup()

	stats := endFrame(t, r, offscreen(16, 16), func(f *Frame) {
		if err := f.SubmitQuads(Rect(0, 0, 4, 4, White)[:5]); !errors.Is(err, ErrMalformedBatch) {
			t.Errorf("got %v, want ErrMalformedBatch", err)
		}
	})
	if stats.DrawCalls != 0 || stats.Vertices != 0 {
		t.Errorf("stats = %+v, want no draws", stats)
	}
}

func TestFrameDrawOrderAndStats(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(32, 32))
	defer cleanup()
	atl := newTestAtlas(16)

	stats := endFrame(t, r, offscreen(32, 32), func(f *Frame) {
		must(t, f.SubmitQuads(Rect(0, 0, 32, 32, Black)))
		must(t, f.SubmitGlyphs(Rect(4, 4, 8, 8, White), atl))
		must(t, f.SubmitQuads(Rect(8, 8, 4, 4, RGB(1, 0, 0))))
		cmds := f.Commands()
		if len(cmds) != 3 || cmds[1].Kind != CommandGlyphs {
			t.Errorf("commands = %+v", cmds)
		}
	})
	if stats.DrawCalls != 3 {
		t.Errorf("DrawCalls = %d, want 3", stats.DrawCalls)
	}
	if stats.Vertices != 18 {
		t.Errorf("Vertices = %d, want 18", stats.Vertices)
	}
	if stats.PipelineSwitches != 3 {
		t.Errorf("PipelineSwitches = %d, want 3", stats.PipelineSwitches)
	}
	if stats.AtlasBytes != 16*16 {
		t.Errorf("AtlasBytes = %d, want %d", stats.AtlasBytes, 16*16)
	}
	if atl.cleared != 1 {
		t.Errorf("atlas cleared %d times, want 1", atl.cleared)
	}

	// A clean atlas is not uploaded again.
	stats = endFrame(t, r, offscreen(32, 32), func(f *Frame) {
		must(t, f.SubmitGlyphs(Rect(4, 4, 8, 8, White), atl))
	})
	if stats.AtlasBytes != 0 {
		t.Errorf("clean atlas uploaded %d bytes", stats.AtlasBytes)
	}

	// Only the dirty region is uploaded.
	atl.dirty = image.Rect(2, 3, 5, 5)
	stats = endFrame(t, r, offscreen(32, 32), func(f *Frame) {
		must(t, f.SubmitGlyphs(Rect(4, 4, 8, 8, White), atl))
	})
	if stats.AtlasBytes != 3*2 {
		t.Errorf("dirty atlas uploaded %d bytes, want %d", stats.AtlasBytes, 3*2)
	}
}

func TestFrameBoundAtlas(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	defer cleanup()

	endFrame(t, r, offscreen(8, 8), func(f *Frame) {
		if err := f.SubmitGlyphs(Rect(0, 0, 1, 1, White), nil); !errors.Is(err, ErrResourceUnbound) {
			t.Errorf("no bound atlas: got %v, want ErrResourceUnbound", err)
		}
	})
	must(t, r.BindAtlas(newTestAtlas(8)))
	stats := endFrame(t, r, offscreen(8, 8), func(f *Frame) {
		must(t, f.SubmitGlyphs(Rect(0, 0, 1, 1, White), nil))
	})
	if stats.DrawCalls != 1 {
		t.Errorf("DrawCalls = %d, want 1", stats.DrawCalls)
	}
}

func TestFrameNonComparableAtlas(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	defer cleanup()

	atl := newSliceAtlas(8)
	if err := r.BindAtlas(atl); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("BindAtlas: got %v, want ErrResourceUnbound", err)
	}
	stats := endFrame(t, r, offscreen(8, 8), func(f *Frame) {
		if err := f.SubmitGlyphs(Rect(0, 0, 1, 1, White), atl); !errors.Is(err, ErrResourceUnbound) {
			t.Errorf("SubmitGlyphs: got %v, want ErrResourceUnbound", err)
		}
		must(t, f.SubmitGlyphs(Rect(0, 0, 1, 1, White), &atl))
	})
	if stats.DrawCalls != 1 || stats.AtlasBytes != 8*8 {
		t.Errorf("stats = %+v, want one draw uploading %d bytes", stats, 8*8)
	}
	if err := r.ReleaseAtlas(atl); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("ReleaseAtlas: got %v, want ErrResourceUnbound", err)
	}
	must(t, r.ReleaseAtlas(&atl))
}

func TestReleaseAtlas(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	defer cleanup()

	atl := newTestAtlas(8)
	must(t, r.BindAtlas(atl))
	stats := endFrame(t, r, offscreen(8, 8), func(f *Frame) {
		must(t, f.SubmitGlyphs(Rect(0, 0, 1, 1, White), nil))
	})
	if stats.AtlasBytes != 8*8 {
		t.Fatalf("first upload = %d bytes, want %d", stats.AtlasBytes, 8*8)
	}
	if r.session.AtlasMemory().Textures != 1 {
		t.Fatalf("atlas textures = %d, want 1", r.session.AtlasMemory().Textures)
	}

	f, err := r.BeginFrame(offscreen(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.ReleaseAtlas(atl); !errors.Is(err, ErrFrameInFlight) {
		t.Errorf("release during a frame: got %v, want ErrFrameInFlight", err)
	}
	if _, err := f.End(); err != nil {
		t.Fatal(err)
	}

	must(t, r.ReleaseAtlas(atl))
	must(t, r.ReleaseAtlas(nil))
	if r.session.AtlasMemory().Textures != 0 {
		t.Errorf("atlas textures = %d after release, want 0", r.session.AtlasMemory().Textures)
	}
	// Released atlases are unbound and uploaded in full when drawn again,
	// even though nothing is dirty.
	stats = endFrame(t, r, offscreen(8, 8), func(f *Frame) {
		if err := f.SubmitGlyphs(Rect(0, 0, 1, 1, White), nil); !errors.Is(err, ErrResourceUnbound) {
			t.Errorf("released atlas still bound: %v", err)
		}
		must(t, f.SubmitGlyphs(Rect(0, 0, 1, 1, White), atl))
	})
	if stats.AtlasBytes != 8*8 {
		t.Errorf("re-upload = %d bytes, want %d", stats.AtlasBytes, 8*8)
	}

	r.Close()
	if err := r.ReleaseAtlas(atl); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("release after Close: got %v, want ErrResourceUnbound", err)
	}
}

func TestDebugBlitAtlas(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	defer cleanup()
	must(t, r.BindAtlas(newTestAtlas(8)))
	endFrame(t, r, offscreen(8, 8), func(f *Frame) {
		if err := f.DebugBlitAtlas(); !errors.Is(err, ErrDebugDisabled) {
			t.Errorf("got %v, want ErrDebugDisabled", err)
		}
	})

	dr, dcleanup := newTestRenderer(t, WithViewport(8, 8), WithDebugPasses(true))
	defer dcleanup()
	must(t, dr.BindAtlas(newTestAtlas(8)))
	stats := endFrame(t, dr, offscreen(8, 8), func(f *Frame) {
		must(t, f.DebugBlitAtlas())
	})
	if stats.DrawCalls != 1 || stats.Vertices != 0 {
		t.Errorf("stats = %+v, want one draw without caller vertices", stats)
	}
}

func TestCloseAbandonsFrame(t *testing.T) {
	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	defer cleanup()

	f, err := r.BeginFrame(offscreen(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	r.Close()
	if _, err := f.End(); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("End after Close error = %v, want ErrResourceUnbound", err)
	}
	if err := r.Resize(4, 4); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("Resize after Close error = %v, want ErrResourceUnbound", err)
	}
	if _, err := r.BeginFrame(offscreen(8, 8)); !errors.Is(err, ErrResourceUnbound) {
		t.Errorf("BeginFrame after Close error = %v, want ErrResourceUnbound", err)
	}
}

func TestOptions(t *testing.T) {
	o := defaultOptions()
	if o.format != gputypes.TextureFormatBGRA8Unorm || o.vertexCapacity != DefaultVertexCapacity {
		t.Errorf("defaults = %+v", o)
	}
	for _, opt := range []Option{
		WithSurfaceFormat(gputypes.TextureFormatRGBA8Unorm),
		WithLoadExisting(),
		WithVertexCapacity(0),
		WithAtlasBudget(1 << 10),
		WithSPIRV(true),
	} {
		opt(&o)
	}
	if o.format != gputypes.TextureFormatRGBA8Unorm || !o.formatSet {
		t.Errorf("format = %v, set %v", o.format, o.formatSet)
	}
	if !o.loadExisting || o.vertexCapacity != DefaultVertexCapacity || o.atlasBudget != 1<<10 || !o.spirv {
		t.Errorf("options = %+v", o)
	}
	WithClearColor(White)(&o)
	if o.loadExisting || o.clear != White {
		t.Error("WithClearColor did not replace WithLoadExisting")
	}
}

func TestRendererLogs(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	r, cleanup := newTestRenderer(t, WithViewport(8, 8))
	r.Close()
	cleanup()
	out := buf.String()
	if !strings.Contains(out, "renderer created") {
		t.Errorf("expected renderer creation to be logged, got: %s", out)
	}
	// The GPU layer shares the logger.
	if !strings.Contains(out, "gpu session created") {
		t.Errorf("expected GPU layer records, got: %s", out)
	}
}
