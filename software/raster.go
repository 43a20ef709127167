// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/render2d"
)

// point is a screen-space position in pixels, y down.
type point struct{ x, y float64 }

// attrs are the interpolated per-vertex attributes.
type attrs struct {
	color [4]float32
	uv    [2]float32
}

// drawBatch rasterizes a triangle list. With a nil atlas the quad fragment
// function is used, otherwise the glyph one.
func (fb *framebuffer) drawBatch(vp render2d.Viewport, batch []render2d.Vertex, atlas *image.Alpha, stats *Stats) error {
	var (
		pts [3]point
		at  [3]attrs
	)
	for i := 0; i+2 < len(batch); i += 3 {
		for k := range 3 {
			v := batch[i+k]
			nx, ny, ok := vp.ToNDC(v.Position[0], v.Position[1])
			if !ok {
				return fmt.Errorf("vertex %d: %w", i+k, render2d.ErrInvalidViewport)
			}
			pts[k] = fb.toScreen(nx, ny)
			at[k] = attrs{color: v.Color, uv: v.UV}
		}
		stats.Triangles++
		fb.triangle(pts, at, stats, func(a attrs) render2d.RGBA {
			if atlas == nil {
				return render2d.ShadeQuad(a.color)
			}
			return render2d.ShadeGlyph(a.color, render2d.SampleCoverage(atlas, a.uv[0], a.uv[1]))
		})
	}
	return nil
}

// drawDebug runs the atlas debug pass: the built-in device-space table,
// white vertex color, coverage from atlas.
func (fb *framebuffer) drawDebug(atlas *image.Alpha, stats *Stats) {
	table := render2d.DebugFullscreenVertices()
	color := render2d.DebugVertexColor.Array()
	var (
		pts [3]point
		at  [3]attrs
	)
	for i := 0; i < len(table); i += 3 {
		for k := range 3 {
			v := table[i+k]
			pts[k] = fb.toScreen(v.Position[0], v.Position[1])
			at[k] = attrs{color: color, uv: v.UV}
		}
		stats.Triangles++
		fb.triangle(pts, at, stats, func(a attrs) render2d.RGBA {
			return render2d.ShadeGlyph(a.color, render2d.SampleCoverage(atlas, a.uv[0], a.uv[1]))
		})
	}
}

// toScreen maps device coordinates to framebuffer pixels.
func (fb *framebuffer) toScreen(x, y float32) point {
	return point{
		x: (float64(x) + 1) / 2 * float64(fb.width),
		y: (1 - float64(y)) / 2 * float64(fb.height),
	}
}

// edge is positive when p is on the inner side of a->b for a triangle
// with positive area.
func edge(a, b, p point) float64 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

// ownsEdge is the top-left rule: a pixel center exactly on an edge belongs
// to the triangle only when the edge is a left edge or a horizontal top
// edge. With positive area the inward normal of a->b is (a.y-b.y, b.x-a.x).
func ownsEdge(a, b point) bool {
	nx, ny := a.y-b.y, b.x-a.x
	return nx > 0 || (nx == 0 && ny > 0)
}

// triangle shades every pixel center inside the triangle. Both windings
// cover the same pixels.
func (fb *framebuffer) triangle(p [3]point, at [3]attrs, stats *Stats, shade func(attrs) render2d.RGBA) {
	area := edge(p[0], p[1], p[2])
	if area == 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return
	}
	if area < 0 {
		p[1], p[2] = p[2], p[1]
		at[1], at[2] = at[2], at[1]
		area = -area
	}

	minX := max(int(math.Floor(min(p[0].x, p[1].x, p[2].x))), 0)
	minY := max(int(math.Floor(min(p[0].y, p[1].y, p[2].y))), 0)
	maxX := min(int(math.Ceil(max(p[0].x, p[1].x, p[2].x))), fb.width-1)
	maxY := min(int(math.Ceil(max(p[0].y, p[1].y, p[2].y))), fb.height-1)

	own0 := ownsEdge(p[1], p[2])
	own1 := ownsEdge(p[2], p[0])
	own2 := ownsEdge(p[0], p[1])
	inside := func(w float64, owns bool) bool {
		return w > 0 || (w == 0 && owns)
	}

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			c := point{x: float64(x) + 0.5, y: float64(y) + 0.5}
			w0 := edge(p[1], p[2], c)
			w1 := edge(p[2], p[0], c)
			w2 := edge(p[0], p[1], c)
			if !inside(w0, own0) || !inside(w1, own1) || !inside(w2, own2) {
				continue
			}
			stats.Fragments++
			fb.blend(x, y, shade(interpolate(at, w0/area, w1/area, w2/area)))
		}
	}
}

func interpolate(at [3]attrs, l0, l1, l2 float64) attrs {
	var out attrs
	for i := range out.color {
		out.color[i] = float32(float64(at[0].color[i])*l0 + float64(at[1].color[i])*l1 + float64(at[2].color[i])*l2)
	}
	for i := range out.uv {
		out.uv[i] = float32(float64(at[0].uv[i])*l0 + float64(at[1].uv[i])*l1 + float64(at[2].uv[i])*l2)
	}
	return out
}
