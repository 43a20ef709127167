// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "github.com/gogpu/render2d"

// clipTriangles appends the parts of the triangle list tris that lie inside
// clip to dst. Triangles fully inside are kept as is, triangles fully
// outside are dropped and the rest are cut with Sutherland-Hodgman against
// the four clip edges. Cut vertices interpolate color and uv, so a trimmed
// glyph keeps sampling the same atlas texels. It returns the number of
// triangles dropped.
func clipTriangles(dst []render2d.Vertex, tris []render2d.Vertex, clip Rect) ([]render2d.Vertex, int) {
	culled := 0
	var poly, scratch []render2d.Vertex
	for i := 0; i+2 < len(tris); i += 3 {
		t := tris[i : i+3]
		b := triBounds(t)
		switch {
		case clip.Contains(b):
			dst = append(dst, t...)
			continue
		case !clip.Overlaps(b):
			culled++
			continue
		}

		poly = append(poly[:0], t...)
		for e := range clipEdges {
			scratch = clipAgainst(scratch[:0], poly, clip, clipEdges[e])
			poly, scratch = scratch, poly
		}
		if len(poly) < 3 {
			culled++
			continue
		}
		for k := 1; k+1 < len(poly); k++ {
			dst = append(dst, poly[0], poly[k], poly[k+1])
		}
	}
	return dst, culled
}

func triBounds(t []render2d.Vertex) Rect {
	x0, y0 := t[0].Position[0], t[0].Position[1]
	x1, y1 := x0, y0
	for _, v := range t[1:] {
		x0, x1 = min(x0, v.Position[0]), max(x1, v.Position[0])
		y0, y1 = min(y0, v.Position[1]), max(y1, v.Position[1])
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

type clipEdge uint8

const (
	edgeLeft clipEdge = iota
	edgeRight
	edgeTop
	edgeBottom
)

var clipEdges = [...]clipEdge{edgeLeft, edgeRight, edgeTop, edgeBottom}

// distance is positive inside the edge.
func (e clipEdge) distance(v render2d.Vertex, r Rect) float32 {
	switch e {
	case edgeLeft:
		return v.Position[0] - r.X
	case edgeRight:
		return r.Right() - v.Position[0]
	case edgeTop:
		return v.Position[1] - r.Y
	default:
		return r.Bottom() - v.Position[1]
	}
}

func clipAgainst(dst, poly []render2d.Vertex, r Rect, e clipEdge) []render2d.Vertex {
	if len(poly) == 0 {
		return dst
	}
	prev := poly[len(poly)-1]
	dPrev := e.distance(prev, r)
	for _, cur := range poly {
		dCur := e.distance(cur, r)
		if (dPrev >= 0) != (dCur >= 0) {
			dst = append(dst, lerpVertex(prev, cur, dPrev/(dPrev-dCur)))
		}
		if dCur >= 0 {
			dst = append(dst, cur)
		}
		prev, dPrev = cur, dCur
	}
	return dst
}

func lerpVertex(a, b render2d.Vertex, t float32) render2d.Vertex {
	var v render2d.Vertex
	for i := range v.Position {
		v.Position[i] = a.Position[i] + (b.Position[i]-a.Position[i])*t
	}
	// Clamped so rounding cannot push a component out of the unit range
	// the renderer validates.
	for i := range v.Color {
		v.Color[i] = clamp01(a.Color[i] + (b.Color[i]-a.Color[i])*t)
	}
	for i := range v.UV {
		v.UV[i] = clamp01(a.UV[i] + (b.UV[i]-a.UV[i])*t)
	}
	return v
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
