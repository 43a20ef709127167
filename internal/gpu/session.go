// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// submitTimeout bounds the wait for a submitted frame.
const submitTimeout = 5 * time.Second

// pollInterval is the sleep between completion polls.
const pollInterval = 100 * time.Microsecond

// copyPitchAlignment is the BytesPerRow alignment required for texture to
// buffer copies.
const copyPitchAlignment = 256

var (
	// ErrSessionClosed is returned by Render after Destroy.
	ErrSessionClosed = errors.New("gpu: session closed")

	// ErrTargetSize is returned for a zero-sized target or a readback
	// buffer too small for it.
	ErrTargetSize = errors.New("gpu: invalid target size")

	// ErrSubmitTimeout is returned when the GPU does not finish a frame
	// within the submit timeout.
	ErrSubmitTimeout = errors.New("gpu: timed out waiting for frame")
)

// Config configures a Session.
type Config struct {
	// Format is the color attachment format of every target.
	Format gputypes.TextureFormat

	// VertexCapacity is the initial vertex buffer capacity in vertices.
	VertexCapacity int

	// SPIRV builds shader modules from naga-compiled SPIR-V.
	SPIRV bool

	// Debug creates the atlas debug pipeline up front.
	Debug bool

	// AtlasBudget caps atlas texture memory in bytes. Zero means
	// DefaultAtlasBudget.
	AtlasBudget uint64
}

// DrawKind identifies the pipeline of a Draw.
type DrawKind uint8

const (
	DrawQuads DrawKind = iota
	DrawGlyphs
	DrawDebugAtlas
)

// Draw is one draw call within a frame's render pass.
type Draw struct {
	Kind  DrawKind
	First uint32
	Count uint32
	Atlas *AtlasTexture
}

// Target is the color attachment of a frame. A nil View renders into a
// session-owned texture whose pixels are read back into Readback as RGBA.
type Target struct {
	View          hal.TextureView
	Width, Height uint32
	Readback      []byte
}

// FrameInput is everything one frame needs.
type FrameInput struct {
	Target   Target
	Viewport [ViewportUniformSize]byte
	Vertices []byte
	Draws    []Draw
	Clear    gputypes.Color
	Load     bool
}

// Stats describes a rendered frame.
type Stats struct {
	DrawCalls        int
	PipelineSwitches int
	UniformWritten   bool
	VertexBytes      int
	AtlasEvictions   int
}

// Session owns the GPU objects shared by all frames: pipelines, the
// viewport uniform, the vertex buffer, atlas textures and the offscreen
// target. It encodes one render pass per frame with a single color
// attachment and waits for the submission to complete before returning, so
// no resource is written while a frame that reads it is in flight.
//
// A Session is not safe for concurrent use.
type Session struct {
	device hal.Device
	queue  hal.Queue
	cfg    Config

	quad     *QuadPipeline
	glyph    *GlyphPipeline
	viewport *ViewportBuffer
	vertices *vertexBuffer
	atlases  *atlasCache

	quadBindGroup hal.BindGroup
	offscreen     offscreenTarget
	closed        bool
}

// offscreenTarget is the session-owned attachment used when a frame has no
// surface view.
type offscreenTarget struct {
	tex           hal.Texture
	view          hal.TextureView
	width, height uint32
}

// NewSession creates the pipelines and shared buffers. Shader or pipeline
// creation failures are returned unchanged in meaning.
func NewSession(device hal.Device, queue hal.Queue, cfg Config) (*Session, error) {
	if device == nil || queue == nil {
		return nil, errors.New("gpu: nil device or queue")
	}
	if cfg.VertexCapacity < 1 {
		cfg.VertexCapacity = 1
	}
	s := &Session{
		device:  device,
		queue:   queue,
		cfg:     cfg,
		quad:    NewQuadPipeline(device, cfg.Format, cfg.SPIRV),
		glyph:   NewGlyphPipeline(device, cfg.Format, cfg.SPIRV),
		atlases: newAtlasCache(cfg.AtlasBudget),
	}
	if err := s.init(); err != nil {
		s.Destroy()
		return nil, err
	}
	slogger().Debug("gpu session created",
		"format", cfg.Format, "vertex_capacity", cfg.VertexCapacity, "spirv", cfg.SPIRV, "debug", cfg.Debug)
	return s, nil
}

func (s *Session) init() error {
	if err := s.quad.ensurePipeline(); err != nil {
		return err
	}
	if err := s.glyph.ensureMode(ModeProduction); err != nil {
		return err
	}
	if s.cfg.Debug {
		if err := s.glyph.ensureMode(ModeDebugFullscreen); err != nil {
			return err
		}
	}

	vb, err := NewViewportBuffer(s.device, s.queue)
	if err != nil {
		return err
	}
	s.viewport = vb

	verts, err := newVertexBuffer(s.device, s.queue, s.cfg.VertexCapacity)
	if err != nil {
		return err
	}
	s.vertices = verts

	bg, err := s.quad.createBindGroup(s.viewport)
	if err != nil {
		return err
	}
	s.quadBindGroup = bg
	return nil
}

// Atlas returns the texture mirroring the atlas identified by key,
// creating an empty one on first use.
func (s *Session) Atlas(key any) *AtlasTexture {
	return s.atlases.get(key, func() *AtlasTexture {
		return newAtlasTexture(s.device, s.queue)
	})
}

// ReleaseAtlas destroys the texture for key, if any.
func (s *Session) ReleaseAtlas(key any) {
	s.atlases.release(key)
}

// AtlasMemory reports atlas texture memory use.
func (s *Session) AtlasMemory() AtlasMemoryStats {
	return s.atlases.stats()
}

// ViewportWrites returns how many times the viewport uniform was uploaded.
func (s *Session) ViewportWrites() int {
	if s.viewport == nil {
		return 0
	}
	return s.viewport.Writes()
}

// Render uploads the frame's uniform and vertices, encodes the draws in
// order into one render pass, submits, and waits for completion.
func (s *Session) Render(in FrameInput) (Stats, error) {
	var stats Stats
	if s.closed {
		return stats, ErrSessionClosed
	}
	t := in.Target
	if t.Width == 0 || t.Height == 0 {
		return stats, fmt.Errorf("%w: %dx%d", ErrTargetSize, t.Width, t.Height)
	}
	if t.View == nil && uint64(len(t.Readback)) < uint64(t.Width)*uint64(t.Height)*4 {
		return stats, fmt.Errorf("%w: readback holds %d bytes for %dx%d", ErrTargetSize, len(t.Readback), t.Width, t.Height)
	}

	if err := s.prepareDraws(in.Draws); err != nil {
		return stats, err
	}
	written, err := s.viewport.Update(in.Viewport)
	if err != nil {
		return stats, err
	}
	stats.UniformWritten = written
	if err := s.vertices.upload(in.Vertices); err != nil {
		return stats, err
	}
	stats.VertexBytes = len(in.Vertices)

	view := t.View
	if view == nil {
		if err := s.ensureOffscreen(t.Width, t.Height); err != nil {
			return stats, err
		}
		view = s.offscreen.view
	}

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "render2d_encoder",
	})
	if err != nil {
		return stats, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("render2d_frame"); err != nil {
		return stats, fmt.Errorf("begin encoding: %w", err)
	}

	loadOp := gputypes.LoadOpClear
	if in.Load {
		loadOp = gputypes.LoadOpLoad
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "render2d_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     loadOp,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: in.Clear,
		}},
	})
	s.recordDraws(rp, in.Draws, len(in.Vertices) > 0, &stats)
	rp.End()

	var staging hal.Buffer
	var alignedBytesPerRow uint32
	if t.View == nil {
		staging, alignedBytesPerRow, err = s.encodeReadback(encoder, t.Width, t.Height)
		if err != nil {
			encoder.DiscardEncoding()
			return stats, err
		}
		defer s.device.DestroyBuffer(staging)
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return stats, fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	if err := s.submitAndWait(cmdBuf); err != nil {
		return stats, err
	}

	if staging != nil {
		if err := s.readback(staging, alignedBytesPerRow, t); err != nil {
			return stats, err
		}
	}

	// The submission has completed, so no textures are in use by the GPU.
	keep := make(map[*AtlasTexture]bool)
	for _, d := range in.Draws {
		if d.Atlas != nil {
			keep[d.Atlas] = true
		}
	}
	stats.AtlasEvictions = s.atlases.trim(keep)
	return stats, nil
}

// prepareDraws creates pipelines and bind groups the draws need before
// encoding starts.
func (s *Session) prepareDraws(draws []Draw) error {
	for i := range draws {
		d := &draws[i]
		switch d.Kind {
		case DrawQuads:
		case DrawGlyphs, DrawDebugAtlas:
			if d.Atlas == nil || d.Atlas.view == nil {
				return fmt.Errorf("draw %d: atlas texture not synced", i)
			}
			if d.Kind == DrawDebugAtlas {
				if err := s.glyph.ensureMode(ModeDebugFullscreen); err != nil {
					return err
				}
			}
			if d.Atlas.bindGroup == nil {
				bg, err := s.glyph.createBindGroup(s.viewport, d.Atlas)
				if err != nil {
					return err
				}
				d.Atlas.bindGroup = bg
			}
		default:
			return fmt.Errorf("draw %d: unknown kind %d", i, d.Kind)
		}
	}
	return nil
}

func (s *Session) recordDraws(rp hal.RenderPassEncoder, draws []Draw, haveVertices bool, stats *Stats) {
	if haveVertices {
		rp.SetVertexBuffer(0, s.vertices.buf, 0)
	}
	last := DrawKind(255)
	for _, d := range draws {
		if d.Kind != last {
			stats.PipelineSwitches++
			last = d.Kind
		}
		switch d.Kind {
		case DrawQuads:
			s.quad.RecordDraw(rp, s.quadBindGroup, d.First, d.Count)
		case DrawGlyphs:
			s.glyph.RecordDraw(rp, ModeProduction, d.Atlas.bindGroup, d.First, d.Count)
		case DrawDebugAtlas:
			s.glyph.RecordDraw(rp, ModeDebugFullscreen, d.Atlas.bindGroup, 0, debugFullscreenVerts)
		}
		stats.DrawCalls++
	}
}

func (s *Session) ensureOffscreen(w, h uint32) error {
	if s.offscreen.tex != nil && s.offscreen.width == w && s.offscreen.height == h {
		return nil
	}
	s.destroyOffscreen()

	tex, err := s.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "render2d_offscreen",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        s.cfg.Format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen texture: %w", err)
	}
	view, err := s.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "render2d_offscreen_view",
		Format:        s.cfg.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		s.device.DestroyTexture(tex)
		return fmt.Errorf("create offscreen view: %w", err)
	}
	s.offscreen = offscreenTarget{tex: tex, view: view, width: w, height: h}
	slogger().Debug("offscreen target created", "width", w, "height", h)
	return nil
}

// encodeReadback copies the offscreen texture into a new staging buffer.
func (s *Session) encodeReadback(encoder hal.CommandEncoder, w, h uint32) (hal.Buffer, uint32, error) {
	// The attachment leaves the pass in a render layout; copies need a
	// transfer source layout. No-op on backends without layouts.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.offscreen.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})

	bytesPerRow := w * 4
	aligned := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(aligned) * uint64(h)

	staging, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "render2d_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("create staging buffer: %w", err)
	}

	encoder.CopyTextureToBuffer(s.offscreen.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: aligned, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: s.offscreen.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: s.offscreen.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	return staging, aligned, nil
}

func (s *Session) submitAndWait(cmdBuf hal.CommandBuffer) error {
	index, err := s.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	deadline := time.Now().Add(submitTimeout)
	for s.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			slogger().Warn("frame submission timed out", "index", index, "timeout", submitTimeout)
			return ErrSubmitTimeout
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// readback strips row padding and converts the staging contents to RGBA.
func (s *Session) readback(staging hal.Buffer, aligned uint32, t Target) error {
	bytesPerRow := t.Width * 4
	size := uint64(aligned) * uint64(t.Height)
	mapping, err := s.device.MapBuffer(staging, 0, size)
	if err != nil {
		return fmt.Errorf("map staging buffer: %w", err)
	}
	raw := make([]byte, size)
	copy(raw, unsafe.Slice((*byte)(mapping.Ptr), size))
	if err := s.device.UnmapBuffer(staging); err != nil {
		return fmt.Errorf("unmap staging buffer: %w", err)
	}
	tight := raw
	if aligned != bytesPerRow {
		tight = make([]byte, uint64(bytesPerRow)*uint64(t.Height))
		for row := range t.Height {
			src := raw[row*aligned : row*aligned+bytesPerRow]
			copy(tight[row*bytesPerRow:], src)
		}
	}
	n := t.Width * t.Height
	if isBGRA(s.cfg.Format) {
		convertBGRAToRGBA(tight, t.Readback, n)
	} else {
		copy(t.Readback, tight[:n*4])
	}
	return nil
}

func isBGRA(f gputypes.TextureFormat) bool {
	return f == gputypes.TextureFormatBGRA8Unorm || f == gputypes.TextureFormatBGRA8UnormSrgb
}

// convertBGRAToRGBA swaps the R and B channels of n pixels from src into dst.
func convertBGRAToRGBA(src, dst []byte, n uint32) {
	for i := uint32(0); i < n; i++ {
		o := i * 4
		dst[o+0] = src[o+2]
		dst[o+1] = src[o+1]
		dst[o+2] = src[o+0]
		dst[o+3] = src[o+3]
	}
}

func (s *Session) destroyOffscreen() {
	if s.offscreen.view != nil {
		s.device.DestroyTextureView(s.offscreen.view)
	}
	if s.offscreen.tex != nil {
		s.device.DestroyTexture(s.offscreen.tex)
	}
	s.offscreen = offscreenTarget{}
}

// Destroy releases every GPU object the session owns. Safe to call more
// than once.
func (s *Session) Destroy() {
	if s.closed {
		return
	}
	s.closed = true
	s.atlases.destroy()
	s.destroyOffscreen()
	if s.quadBindGroup != nil {
		s.device.DestroyBindGroup(s.quadBindGroup)
		s.quadBindGroup = nil
	}
	if s.vertices != nil {
		s.vertices.destroy()
	}
	if s.viewport != nil {
		s.viewport.Destroy()
	}
	s.glyph.Destroy()
	s.quad.Destroy()
}
