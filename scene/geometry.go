// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "fmt"

// Point is a position in viewport pixels.
type Point struct {
	X, Y float32
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float32) Point { return Point{X: x, Y: y} }

// Rect is an axis-aligned rectangle in viewport pixels.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// NewRect returns the rectangle with top-left (x, y) and size w x h.
func NewRect(x, y, w, h float32) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float32 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float32 { return r.Y + r.Height }

// Empty reports whether r covers no area.
func (r Rect) Empty() bool { return !(r.Width > 0) || !(r.Height > 0) }

// Intersect returns the overlap of r and o. The result is empty when they
// do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Overlaps reports whether r and o share any area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}
