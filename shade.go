// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render2d

import (
	"image"
	"math"
)

// ShadeQuad is the quad pipeline's fragment function: the interpolated
// vertex color, unchanged.
func ShadeQuad(color [4]float32) RGBA {
	return RGBA{R: color[0], G: color[1], B: color[2], A: color[3]}
}

// ShadeGlyph is the glyph pipeline's fragment function. The atlas supplies
// coverage only; color comes from the vertex: (r, g, b, a*coverage).
func ShadeGlyph(color [4]float32, coverage float32) RGBA {
	return RGBA{R: color[0], G: color[1], B: color[2], A: color[3] * coverage}
}

// SampleCoverage samples img at (u, v) the way the atlas sampler does:
// bilinear filtering with clamp-to-edge addressing. The result is in [0, 1].
// A nil or empty image has zero coverage everywhere.
func SampleCoverage(img *image.Alpha, u, v float32) float32 {
	if img == nil || img.Rect.Empty() {
		return 0
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()

	tx := float64(u)*float64(w) - 0.5
	ty := float64(v)*float64(h) - 0.5
	x0f, y0f := math.Floor(tx), math.Floor(ty)
	fx, fy := float32(tx-x0f), float32(ty-y0f)
	x0, y0 := int(x0f), int(y0f)

	at := func(x, y int) float32 {
		x = min(max(x, 0), w-1)
		y = min(max(y, 0), h-1)
		return float32(img.Pix[y*img.Stride+x]) / 255
	}
	top := at(x0, y0)*(1-fx) + at(x0+1, y0)*fx
	bot := at(x0, y0+1)*(1-fx) + at(x0+1, y0+1)*fx
	return top*(1-fy) + bot*fy
}

// DebugVertex is one entry of the atlas debug pass's built-in vertex table.
// Position is already in device space.
type DebugVertex struct {
	Position [2]float32
	UV       [2]float32
}

// debugFullscreen covers the device square with two triangles. V is flipped
// so atlas texel (0, 0) lands on the surface's top-left corner. The same
// table is hard-coded in the vs_debug_fullscreen shader entry point.
var debugFullscreen = [6]DebugVertex{
	{Position: [2]float32{-1, -1}, UV: [2]float32{0, 1}},
	{Position: [2]float32{1, -1}, UV: [2]float32{1, 1}},
	{Position: [2]float32{-1, 1}, UV: [2]float32{0, 0}},
	{Position: [2]float32{-1, 1}, UV: [2]float32{0, 0}},
	{Position: [2]float32{1, -1}, UV: [2]float32{1, 1}},
	{Position: [2]float32{1, 1}, UV: [2]float32{1, 0}},
}

// DebugVertexColor is the fixed vertex color of the atlas debug pass.
var DebugVertexColor = White

// DebugFullscreenVertices returns the atlas debug pass's vertex table.
func DebugFullscreenVertices() [6]DebugVertex {
	return debugFullscreen
}
