// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import "fmt"

// Region is a rectangle of atlas texels.
type Region struct {
	X, Y          int
	Width, Height int
}

// IsValid returns true if the region has positive dimensions.
func (r Region) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// Contains returns true if texel (x, y) is inside the region.
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// shelf is one horizontal row of the packer.
type shelf struct {
	y      int
	height int // tallest padded item so far
	nextX  int
}

// shelfAllocator packs rectangles into horizontal shelves. Every
// allocation is followed by padding texels on the right and bottom, and the
// first shelf starts padding texels in from the top-left, so each region
// has a border of untouched texels on all sides.
//
// shelfAllocator is not safe for concurrent use; Atlas serializes access.
type shelfAllocator struct {
	width, height int
	padding       int
	shelves       []shelf

	count    int
	usedArea int
}

func newShelfAllocator(width, height, padding int) *shelfAllocator {
	if padding < 0 {
		padding = 0
	}
	return &shelfAllocator{
		width:   width,
		height:  height,
		padding: padding,
		shelves: make([]shelf, 0, 16),
	}
}

// allocate finds room for a width x height rectangle. It returns an invalid
// region when nothing fits.
func (a *shelfAllocator) allocate(width, height int) Region {
	if width <= 0 || height <= 0 {
		return Region{}
	}
	pw, ph := width+a.padding, height+a.padding
	if a.padding+pw > a.width || a.padding+ph > a.height {
		return Region{}
	}

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.nextX+pw > a.width || ph > s.height {
			continue
		}
		r := Region{X: s.nextX, Y: s.y, Width: width, Height: height}
		s.nextX += pw
		a.count++
		a.usedArea += width * height
		return r
	}

	y := a.padding
	if n := len(a.shelves); n > 0 {
		last := a.shelves[n-1]
		y = last.y + last.height
	}
	if y+ph > a.height {
		return Region{}
	}
	a.shelves = append(a.shelves, shelf{y: y, height: ph, nextX: a.padding + pw})
	a.count++
	a.usedArea += width * height
	return Region{X: a.padding, Y: y, Width: width, Height: height}
}

// reset clears all allocations.
func (a *shelfAllocator) reset() {
	a.shelves = a.shelves[:0]
	a.count = 0
	a.usedArea = 0
}

// utilization returns the fraction of area allocated (0.0 to 1.0).
func (a *shelfAllocator) utilization() float64 {
	total := a.width * a.height
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}
