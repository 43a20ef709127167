// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import "github.com/gogpu/render2d"

// PositionedGlyph is a glyph placed by an external layout stage. X and Y
// are the pixel position of the quad's top-left corner. Width and Height
// are the on-screen size; zero means the region's texel size.
type PositionedGlyph struct {
	X, Y          float32
	Width, Height float32
	Region        Region
	Color         render2d.RGBA
}

// BuildGlyphVertices returns six vertices (two triangles) per glyph,
// sampling each glyph's region of a. Glyphs with an invalid region are
// skipped.
func BuildGlyphVertices(a *Atlas, glyphs []PositionedGlyph) []render2d.Vertex {
	return AppendGlyphVertices(make([]render2d.Vertex, 0, len(glyphs)*6), a, glyphs)
}

// AppendGlyphVertices appends the vertices of glyphs to dst.
func AppendGlyphVertices(dst []render2d.Vertex, a *Atlas, glyphs []PositionedGlyph) []render2d.Vertex {
	for _, g := range glyphs {
		if !g.Region.IsValid() {
			continue
		}
		w, h := g.Width, g.Height
		if w == 0 {
			w = float32(g.Region.Width)
		}
		if h == 0 {
			h = float32(g.Region.Height)
		}
		dst = render2d.AppendQuad(dst, g.X, g.Y, g.X+w, g.Y+h, g.Color, a.UV(g.Region))
	}
	return dst
}
