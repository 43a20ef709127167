// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"fmt"
	"math"

	"github.com/gogpu/render2d"
)

// LineStyle selects how DrawLine breaks a line into quads.
type LineStyle uint8

const (
	// LineSolid is one quad from end to end.
	LineSolid LineStyle = iota
	// LineDotted places width-long dots every 3*width.
	LineDotted
	// LineDashed alternates 4*width dashes with 2*width gaps.
	LineDashed
	// LineWavy zigzags across the line with amplitude 1.5*width and
	// period 4*width, as used for error underlines.
	LineWavy
)

func (s LineStyle) String() string {
	switch s {
	case LineSolid:
		return "solid"
	case LineDotted:
		return "dotted"
	case LineDashed:
		return "dashed"
	case LineWavy:
		return "wavy"
	}
	return fmt.Sprintf("LineStyle(%d)", uint8(s))
}

// minSegment is the shortest segment that produces geometry.
const minSegment = 0.001

// appendLine appends the quads of a styled line.
func appendLine(dst []render2d.Vertex, from, to Point, width float32, c render2d.RGBA, style LineStyle) []render2d.Vertex {
	if !(width > 0) {
		return dst
	}
	dx, dy := to.X-from.X, to.Y-from.Y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if !(length >= minSegment) {
		return dst
	}
	nx, ny := dx/length, dy/length
	at := func(t float32) Point { return Point{X: from.X + nx*t, Y: from.Y + ny*t} }

	switch style {
	case LineDotted:
		spacing := width * 3
		n := int(length / spacing)
		for i := 0; i <= n; i++ {
			mid := float32(i) * spacing
			dst = appendSegment(dst, at(mid-width/2), at(mid+width/2), width, c)
		}
	case LineDashed:
		dash, gap := width*4, width*2
		for t := float32(0); t < length; t += dash + gap {
			dst = appendSegment(dst, at(t), at(min(t+dash, length)), width, c)
		}
	case LineWavy:
		step := width // a quarter of the 4*width period
		amp := width * 1.5
		// Offsets run along the left normal, so a left-to-right line
		// first swings up.
		px, py := ny, -nx
		prev := from
		n := int(length / step)
		for i := 1; i <= n; i++ {
			var off float32
			switch i % 4 {
			case 1:
				off = amp
			case 3:
				off = -amp
			}
			p := at(float32(i) * step)
			p.X += px * off
			p.Y += py * off
			dst = appendSegment(dst, prev, p, width, c)
			prev = p
		}
		if math.Hypot(float64(prev.X-to.X), float64(prev.Y-to.Y)) > 0.1 {
			dst = appendSegment(dst, prev, to, width, c)
		}
	default:
		dst = appendSegment(dst, from, to, width, c)
	}
	return dst
}

// appendSegment appends one quad of the given width centered on from-to.
func appendSegment(dst []render2d.Vertex, from, to Point, width float32, c render2d.RGBA) []render2d.Vertex {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if !(length >= minSegment) {
		return dst
	}
	h := width / 2
	ox, oy := -dy/length*h, dx/length*h

	a := render2d.V(from.X+ox, from.Y+oy, c, 0, 0)
	b := render2d.V(to.X+ox, to.Y+oy, c, 1, 0)
	d := render2d.V(from.X-ox, from.Y-oy, c, 0, 1)
	e := render2d.V(to.X-ox, to.Y-oy, c, 1, 1)
	return append(dst, a, b, d, d, b, e)
}
