// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import (
	"encoding/binary"
	"fmt"
	"math"
)

// VertexSize is the byte stride of one encoded Vertex:
// position 2xf32, color 4xf32, uv 2xf32.
const VertexSize = 32

// Vertex attribute byte offsets within one encoded Vertex.
const (
	PositionOffset = 0
	ColorOffset    = 8
	UVOffset       = 24
)

// Vertex is one corner of a triangle. Position is in pixels; Color is a
// straight-alpha RGBA in [0, 1]; UV addresses the glyph atlas in [0, 1]².
// Quads and glyphs share this record.
type Vertex struct {
	Position [2]float32
	Color    [4]float32
	UV       [2]float32
}

// V creates a vertex.
func V(x, y float32, c RGBA, u, v float32) Vertex {
	return Vertex{
		Position: [2]float32{x, y},
		Color:    c.Array(),
		UV:       [2]float32{u, v},
	}
}

// Rect returns six vertices covering the pixel rectangle (x, y, w, h) in a
// single color, uv spanning the full unit square.
func Rect(x, y, w, h float32, c RGBA) []Vertex {
	return AppendQuad(nil, x, y, x+w, y+h, c, [4]float32{0, 0, 1, 1})
}

// AppendQuad appends two triangles covering [x0,y0]-[x1,y1] to dst.
// uv holds (u0, v0, u1, v1) for the top-left and bottom-right corners.
func AppendQuad(dst []Vertex, x0, y0, x1, y1 float32, c RGBA, uv [4]float32) []Vertex {
	tl := V(x0, y0, c, uv[0], uv[1])
	tr := V(x1, y0, c, uv[2], uv[1])
	bl := V(x0, y1, c, uv[0], uv[3])
	br := V(x1, y1, c, uv[2], uv[3])
	return append(dst, tl, tr, bl, bl, tr, br)
}

// ValidateBatch checks that batch is a whole number of triangles with finite
// positions and color and uv components in [0, 1]. The returned error wraps
// ErrMalformedBatch and names the first offending vertex.
func ValidateBatch(batch []Vertex) error {
	if len(batch)%3 != 0 {
		return fmt.Errorf("%w: %d vertices is not a multiple of 3", ErrMalformedBatch, len(batch))
	}
	for i := range batch {
		v := &batch[i]
		if !finite(v.Position[0]) || !finite(v.Position[1]) {
			return fmt.Errorf("%w: vertex %d position %v is not finite", ErrMalformedBatch, i, v.Position)
		}
		for _, c := range v.Color {
			if !unitRange(c) {
				return fmt.Errorf("%w: vertex %d color %v outside [0,1]", ErrMalformedBatch, i, v.Color)
			}
		}
		if !unitRange(v.UV[0]) || !unitRange(v.UV[1]) {
			return fmt.Errorf("%w: vertex %d uv %v outside [0,1]", ErrMalformedBatch, i, v.UV)
		}
	}
	return nil
}

// AppendVertexBytes appends the little-endian encoding of batch to dst.
func AppendVertexBytes(dst []byte, batch []Vertex) []byte {
	var rec [VertexSize]byte
	put := func(off int, f float32) {
		binary.LittleEndian.PutUint32(rec[off:off+4], math.Float32bits(f))
	}
	for i := range batch {
		v := &batch[i]
		put(PositionOffset, v.Position[0])
		put(PositionOffset+4, v.Position[1])
		for j, c := range v.Color {
			put(ColorOffset+j*4, c)
		}
		put(UVOffset, v.UV[0])
		put(UVOffset+4, v.UV[1])
		dst = append(dst, rec[:]...)
	}
	return dst
}
