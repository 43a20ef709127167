// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software replays render2d command lists on the CPU.
//
// It follows the same rules as the GPU pipelines: the vertex transform of
// render2d.Viewport, pixel-center sampling with a top-left fill rule,
// linearly interpolated attributes, the render2d fragment functions and
// premultiplied source-over blending. It is the reference the GPU output is
// checked against, and the fallback when no adapter is available.
package software

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/render2d"
)

// ErrNilTarget is returned when Render is given no destination image.
var ErrNilTarget = errors.New("software: nil target image")

// Stats describes one Render call.
type Stats struct {
	DrawCalls int
	Triangles int
	// Fragments is the number of pixel centers covered by a triangle.
	Fragments int
}

// Renderer rasterizes command lists into an *image.RGBA.
//
// The zero value clears the target to transparent black before drawing.
type Renderer struct {
	// Clear is the color the target is cleared to.
	Clear render2d.RGBA
	// LoadExisting keeps the target's pixels instead of clearing.
	LoadExisting bool
}

// Render draws every command of list into dst in order. Vertex positions
// are mapped through the list's viewport; the debug atlas pass covers the
// whole of dst.
func (r *Renderer) Render(dst *image.RGBA, list *render2d.CommandList) (Stats, error) {
	if dst == nil {
		return Stats{}, ErrNilTarget
	}
	b := dst.Bounds()
	if b.Empty() {
		return Stats{}, nil
	}
	fb := newFramebuffer(b.Dx(), b.Dy())
	if r.LoadExisting {
		fb.load(dst)
	} else {
		fb.fill(r.Clear.Premultiplied())
	}

	var stats Stats
	vp := list.Viewport()
	for i, c := range list.Commands() {
		var err error
		switch c.Kind {
		case render2d.CommandQuads:
			err = fb.drawBatch(vp, c.Vertices, nil, &stats)
		case render2d.CommandGlyphs:
			err = fb.drawBatch(vp, c.Vertices, c.Atlas.Coverage(), &stats)
		case render2d.CommandDebugAtlas:
			fb.drawDebug(c.Atlas.Coverage(), &stats)
		default:
			err = fmt.Errorf("software: unknown command kind %v", c.Kind)
		}
		if err != nil {
			return stats, fmt.Errorf("command %d: %w", i, err)
		}
		stats.DrawCalls++
	}
	fb.store(dst)
	return stats, nil
}

// Render draws list into dst with a transparent clear.
func Render(dst *image.RGBA, list *render2d.CommandList) (Stats, error) {
	var r Renderer
	return r.Render(dst, list)
}

// framebuffer holds premultiplied float colors so that a sequence of
// blends rounds only once, at store.
type framebuffer struct {
	width, height int
	pix           []float32
}

func newFramebuffer(w, h int) *framebuffer {
	return &framebuffer{width: w, height: h, pix: make([]float32, w*h*4)}
}

func (fb *framebuffer) fill(c render2d.RGBA) {
	for i := 0; i < len(fb.pix); i += 4 {
		fb.pix[i], fb.pix[i+1], fb.pix[i+2], fb.pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// load reads dst, which like image.RGBA in general holds premultiplied
// 8-bit components.
func (fb *framebuffer) load(dst *image.RGBA) {
	for y := range fb.height {
		row := dst.Pix[y*dst.Stride:]
		for x := range fb.width {
			s := row[x*4 : x*4+4]
			d := fb.pix[(y*fb.width+x)*4:]
			d[0] = float32(s[0]) / 255
			d[1] = float32(s[1]) / 255
			d[2] = float32(s[2]) / 255
			d[3] = float32(s[3]) / 255
		}
	}
}

func (fb *framebuffer) store(dst *image.RGBA) {
	for y := range fb.height {
		row := dst.Pix[y*dst.Stride:]
		for x := range fb.width {
			s := fb.pix[(y*fb.width+x)*4:]
			d := row[x*4 : x*4+4]
			d[0], d[1], d[2], d[3] = toByte(s[0]), toByte(s[1]), toByte(s[2]), toByte(s[3])
		}
	}
}

// blend composites a straight-alpha fragment over pixel (x, y).
func (fb *framebuffer) blend(x, y int, c render2d.RGBA) {
	if c.A <= 0 {
		return
	}
	d := fb.pix[(y*fb.width+x)*4:]
	inv := 1 - c.A
	d[0] = c.R*c.A + d[0]*inv
	d[1] = c.G*c.A + d[1]*inv
	d[2] = c.B*c.A + d[2]*inv
	d[3] = c.A + d[3]*inv
}

func toByte(v float32) uint8 {
	switch {
	case !(v > 0):
		return 0
	case v >= 1:
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
