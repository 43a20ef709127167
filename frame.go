// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package render2d

import "fmt"

// Frame records draw commands for one render pass. Submissions are
// validated immediately and run in order when End is called; submit
// back-to-front. A Frame is used from a single goroutine and is finished by
// exactly one call to End.
type Frame struct {
	r      *Renderer
	target Target
	list   CommandList
	done   bool
}

// Viewport returns the viewport captured when the frame began.
func (f *Frame) Viewport() Viewport { return f.list.viewport }

// SubmitQuads records a quad draw. The batch must be a whole number of
// triangles with color and uv components in [0, 1]; otherwise it fails with
// ErrMalformedBatch and nothing is recorded.
func (f *Frame) SubmitQuads(batch []Vertex) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.list.SubmitQuads(batch)
}

// SubmitGlyphs records a glyph draw sampling atlas. A nil atlas selects the
// renderer's bound atlas; with none bound it fails with ErrResourceUnbound.
func (f *Frame) SubmitGlyphs(batch []Vertex, atlas AtlasSource) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.list.SubmitGlyphs(batch, atlas)
}

// DebugBlitAtlas draws the whole bound atlas over the target in white,
// ignoring the viewport. It fails with ErrDebugDisabled unless the
// renderer was created with WithDebugPasses(true).
func (f *Frame) DebugBlitAtlas() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.list.DebugBlitAtlas()
}

// Commands returns the commands recorded so far.
func (f *Frame) Commands() []Command { return f.list.Commands() }

// End uploads the viewport uniform, atlas changes and vertices, encodes the
// render pass, submits it and waits for the GPU. For offscreen targets the
// pixels are in Target.Image when End returns. GPU errors are returned
// wrapped; the frame is finished either way.
func (f *Frame) End() (FrameStats, error) {
	if err := f.checkOpen(); err != nil {
		return FrameStats{}, err
	}
	f.done = true
	return f.r.endFrame(f)
}

func (f *Frame) checkOpen() error {
	if f.done {
		return fmt.Errorf("%w: frame already ended", ErrResourceUnbound)
	}
	return nil
}

var (
	_ Submitter = (*Frame)(nil)
	_ Submitter = (*CommandList)(nil)
)
