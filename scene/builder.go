// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene builds one frame's draw batches from rectangles, styled
// lines and positioned glyphs.
//
// A Builder holds no retained graph: it tessellates primitives as they are
// added, applies the current clip rectangle, and sorts by layer in Build.
// Submit replays the batches into anything that accepts them, normally a
// *render2d.Frame or a *render2d.CommandList.
//
// Example:
//
//	b := scene.NewBuilder().
//	    FillRect(scene.NewRect(0, 0, 800, 24), render2d.Hex("#1e1e1e")).
//	    PushClip(scene.NewRect(0, 0, 400, 24)).
//	    DrawGlyphs(atl, glyphs, render2d.White).
//	    DrawLine(scene.Pt(10, 20), scene.Pt(90, 20), 1, render2d.Hex("#f44"), scene.LineWavy).
//	    PopClip()
//	if err := b.Submit(frame); err != nil {
//	    return err
//	}
package scene

import (
	"fmt"
	"slices"

	"github.com/gogpu/render2d"
	"github.com/gogpu/render2d/atlas"
)

// Batch is one draw call's worth of vertices.
type Batch struct {
	Kind     render2d.CommandKind
	Layer    int
	Vertices []render2d.Vertex
	// Atlas is set for glyph batches.
	Atlas render2d.AtlasSource
}

type item struct {
	kind  render2d.CommandKind
	layer int
	atlas render2d.AtlasSource
	verts []render2d.Vertex
}

// Builder accumulates primitives for one frame. It is not safe for
// concurrent use.
type Builder struct {
	items []item
	clips []Rect
	layer int

	scratch []render2d.Vertex
	culled  int
}

// NewBuilder creates an empty builder on layer 0 with no clip.
func NewBuilder() *Builder {
	return &Builder{}
}

// FillRect adds a solid rectangle.
func (b *Builder) FillRect(r Rect, c render2d.RGBA) *Builder {
	if r.Empty() {
		return b
	}
	b.scratch = render2d.AppendQuad(b.scratch[:0], r.X, r.Y, r.Right(), r.Bottom(), c, [4]float32{0, 0, 1, 1})
	b.add(render2d.CommandQuads, nil, b.scratch)
	return b
}

// StrokeRect outlines r with lines of the given width drawn inside it.
func (b *Builder) StrokeRect(r Rect, width float32, c render2d.RGBA) *Builder {
	if r.Empty() || !(width > 0) {
		return b
	}
	w := min(width, r.Width/2, r.Height/2)
	b.FillRect(NewRect(r.X, r.Y, r.Width, w), c)
	b.FillRect(NewRect(r.X, r.Bottom()-w, r.Width, w), c)
	b.FillRect(NewRect(r.X, r.Y+w, w, r.Height-2*w), c)
	b.FillRect(NewRect(r.Right()-w, r.Y+w, w, r.Height-2*w), c)
	return b
}

// DrawLine adds a line of the given width from one point to another.
// Segments shorter than 0.001 pixels produce nothing.
func (b *Builder) DrawLine(from, to Point, width float32, c render2d.RGBA, style LineStyle) *Builder {
	b.scratch = appendLine(b.scratch[:0], from, to, width, c, style)
	b.add(render2d.CommandQuads, nil, b.scratch)
	return b
}

// DrawGlyphs adds glyph quads sampling a, all tinted c. The glyphs' own
// Color is ignored.
func (b *Builder) DrawGlyphs(a *atlas.Atlas, glyphs []atlas.PositionedGlyph, c render2d.RGBA) *Builder {
	if a == nil || len(glyphs) == 0 {
		return b
	}
	tinted := slices.Clone(glyphs)
	for i := range tinted {
		tinted[i].Color = c
	}
	b.scratch = atlas.AppendGlyphVertices(b.scratch[:0], a, tinted)
	b.add(render2d.CommandGlyphs, a, b.scratch)
	return b
}

// PushClip intersects the clip with r until the matching PopClip.
// Primitives outside the clip are dropped and those crossing it are cut.
func (b *Builder) PushClip(r Rect) *Builder {
	if n := len(b.clips); n > 0 {
		r = b.clips[n-1].Intersect(r)
	}
	b.clips = append(b.clips, r)
	return b
}

// PopClip restores the clip in effect before the last PushClip. Popping
// with no clip pushed does nothing.
func (b *Builder) PopClip() *Builder {
	if n := len(b.clips); n > 0 {
		b.clips = b.clips[:n-1]
	}
	return b
}

// Clip returns the current clip rectangle, if any.
func (b *Builder) Clip() (Rect, bool) {
	if n := len(b.clips); n > 0 {
		return b.clips[n-1], true
	}
	return Rect{}, false
}

// Layer sets the layer of primitives added from now on. Higher layers draw
// later; primitives on one layer keep the order they were added in.
func (b *Builder) Layer(z int) *Builder {
	b.layer = z
	return b
}

// Culled returns the number of triangles dropped by clipping.
func (b *Builder) Culled() int { return b.culled }

// Len returns the number of primitives added since the last Reset.
func (b *Builder) Len() int { return len(b.items) }

func (b *Builder) add(kind render2d.CommandKind, a render2d.AtlasSource, verts []render2d.Vertex) {
	if len(verts) == 0 {
		return
	}
	var out []render2d.Vertex
	if clip, ok := b.Clip(); ok {
		if clip.Empty() {
			b.culled += len(verts) / 3
			return
		}
		var culled int
		out, culled = clipTriangles(make([]render2d.Vertex, 0, len(verts)), verts, clip)
		b.culled += culled
		if len(out) == 0 {
			return
		}
	} else {
		out = slices.Clone(verts)
	}
	b.items = append(b.items, item{kind: kind, layer: b.layer, atlas: a, verts: out})
}

// Build returns the batches in draw order: sorted by layer, stable within
// a layer, with adjacent primitives of the same kind and atlas merged.
func (b *Builder) Build() []Batch {
	items := slices.Clone(b.items)
	slices.SortStableFunc(items, func(x, y item) int { return x.layer - y.layer })

	var batches []Batch
	for _, it := range items {
		if n := len(batches); n > 0 {
			last := &batches[n-1]
			if last.Kind == it.kind && last.Atlas == it.atlas && last.Layer == it.layer {
				last.Vertices = append(last.Vertices, it.verts...)
				continue
			}
		}
		batches = append(batches, Batch{
			Kind:     it.kind,
			Layer:    it.layer,
			Vertices: slices.Clone(it.verts),
			Atlas:    it.atlas,
		})
	}
	return batches
}

// Submit builds the batches and submits them to s in order. It stops at
// the first rejected batch.
func (b *Builder) Submit(s render2d.Submitter) error {
	for i, batch := range b.Build() {
		var err error
		switch batch.Kind {
		case render2d.CommandGlyphs:
			err = s.SubmitGlyphs(batch.Vertices, batch.Atlas)
		default:
			err = s.SubmitQuads(batch.Vertices)
		}
		if err != nil {
			return fmt.Errorf("scene: batch %d (%v, layer %d): %w", i, batch.Kind, batch.Layer, err)
		}
	}
	return nil
}

// Reset drops every primitive, clip and the layer so the builder can be
// reused for the next frame.
func (b *Builder) Reset() *Builder {
	b.items = b.items[:0]
	b.clips = b.clips[:0]
	b.layer = 0
	b.culled = 0
	return b
}
